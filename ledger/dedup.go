package ledger

import (
	"github.com/pkg/errors"
)

// checkCreatedAt validates a request timestamp against the dedup
// window: older than now-txWindow-drift is TooOld, later than now+drift
// is CreatedInFuture.
func (l *Ledger) checkCreatedAt(c *Collection, now, createdAt int64) *Error {
	if createdAt < now-int64(c.TxWindow)-int64(c.PermittedDrift) {
		return ErrorTooOld()
	}
	if createdAt > now+int64(c.PermittedDrift) {
		return ErrorCreatedInFuture(now)
	}
	return nil
}

// checkDuplicate scans the transaction log backward from the newest
// entry for a replay of the candidate. The scan stops at the first
// entry committed before the dedup window, so its cost is bounded by
// activity inside the window, not by the log size.
func (l *Ledger) checkDuplicate(c *Collection, now int64, candidate *Transaction) (uint64, bool, error) {
	horizon := now - int64(c.TxWindow) - int64(c.PermittedDrift)
	for id := c.TxCount; id > 0; id-- {
		tx, err := l.store.ReadTransaction(id)
		if err != nil {
			return 0, false, errors.Wrap(err, "read transaction")
		}
		if tx == nil {
			return 0, false, errors.Errorf("transaction log hole at %d", id)
		}
		if tx.Timestamp < horizon {
			return 0, false, nil
		}
		if tx.matches(candidate) {
			return tx.ID, true, nil
		}
	}
	return 0, false, nil
}
