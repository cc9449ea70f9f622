package ledger

import (
	"sort"
	"sync"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/pkg/errors"
)

// Ledger is the state machine of one collection instance. All state
// lives in the store, every operation re-reads it before mutating, and
// the mutex serializes mutations end to end so no call ever observes a
// partially applied batch.
type Ledger struct {
	mutex sync.Mutex
	store Store
	timer Timer
}

// OpenLedger restores an instance from the store, initializing the
// collection record from genesis on first boot. The running counters
// always start at zero on initialization regardless of the input.
func OpenLedger(store Store, timer Timer, genesis *Collection) (*Ledger, error) {
	c, err := store.ReadCollection()
	if err != nil {
		return nil, errors.Wrap(err, "read collection")
	}
	if c == nil {
		if genesis == nil {
			return nil, errors.New("collection not initialized")
		}
		c = genesis
		c.TotalSupply, c.TxCount = 0, 0
		err = store.WriteCollection(c)
		if err != nil {
			return nil, errors.Wrap(err, "write collection")
		}
		logger.Printf("ledger initialized %s (%s)\n", c.Name, c.Symbol)
	}
	return &Ledger{store: store, timer: timer}, nil
}

type MintArgs struct {
	SubAccount  *SubAccount
	To          *Account // defaults to the caller
	TokenIDs    []uint64
	Name        string
	Description string
	Logo        string
	Memo        []byte
}

func (l *Ledger) Mint(caller string, args *MintArgs) (uint64, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	c, err := l.readCollection()
	if err != nil {
		return 0, err
	}
	minter := NormalizeAccount(caller, args.SubAccount)
	if minter != c.MintingAuthority {
		return 0, ErrorUnauthorized(nil)
	}
	to := minter
	if args.To != nil {
		to = *args.To
	}
	if to.Anonymous() {
		return 0, ErrorInvalidRecipient("anonymous mint destination")
	}
	if !c.validMemo(args.Memo) {
		return 0, ErrorPayloadTooLarge("memo exceeds max size")
	}
	if len(args.TokenIDs) == 0 {
		return 0, ErrorGeneric("empty token ids")
	}
	if !c.validBatch(args.TokenIDs) {
		return 0, ErrorPayloadTooLarge("batch exceeds max size")
	}
	ids := sortedTokenIDs(args.TokenIDs)
	for i := 1; i < len(ids); i++ {
		if ids[i] == ids[i-1] {
			return 0, ErrorGeneric("repeated token id in batch")
		}
	}
	if c.SupplyCap > 0 && c.TotalSupply+uint64(len(ids)) > c.SupplyCap {
		return 0, ErrorSupplyCapReached(c.SupplyCap)
	}
	var existing []uint64
	for _, id := range ids {
		old, err := l.store.ReadToken(id)
		if err != nil {
			return 0, errors.Wrap(err, "read token")
		}
		if old != nil {
			existing = append(existing, id)
		}
	}
	if len(existing) > 0 {
		return 0, ErrorAlreadyExists(existing)
	}

	tokens := make([]*Token, len(ids))
	for i, id := range ids {
		tokens[i] = &Token{
			ID:          id,
			Owner:       to,
			Name:        args.Name,
			Description: args.Description,
			Logo:        args.Logo,
		}
	}
	c.TotalSupply += uint64(len(ids))
	return l.commit(c, tokens, &Transaction{
		Kind:     TransactionKindMint,
		TokenIDs: ids,
		To:       to,
		Memo:     args.Memo,
	})
}

type TransferArgs struct {
	SpenderSubAccount *SubAccount
	From              Account
	To                Account
	TokenIDs          []uint64
	Memo              []byte
	CreatedAt         int64 // request time in nanoseconds, zero when absent
	// Atomic defaults to the collection setting. When explicitly false,
	// unauthorized ids are skipped and the remainder transferred; the
	// call fails with Unauthorized only if every id was unauthorized.
	Atomic *bool
}

func (l *Ledger) Transfer(caller string, args *TransferArgs) (uint64, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	c, err := l.readCollection()
	if err != nil {
		return 0, err
	}
	if len(args.TokenIDs) == 0 {
		return 0, ErrorGeneric("empty token ids")
	}
	if !c.validBatch(args.TokenIDs) {
		return 0, ErrorPayloadTooLarge("batch exceeds max size")
	}
	if !c.validMemo(args.Memo) {
		return 0, ErrorPayloadTooLarge("memo exceeds max size")
	}
	if args.To.Anonymous() {
		return 0, ErrorInvalidRecipient("anonymous transfer destination")
	}
	if args.From.Anonymous() {
		return 0, ErrorGeneric("anonymous sender")
	}
	spender := NormalizeAccount(caller, args.SpenderSubAccount)
	ids := sortedTokenIDs(args.TokenIDs)
	now := l.timer.Now()

	candidate := &Transaction{
		Kind:      TransactionKindTransfer,
		TokenIDs:  ids,
		From:      args.From,
		Spender:   spender,
		To:        args.To,
		Memo:      args.Memo,
		CreatedAt: args.CreatedAt,
	}
	if args.CreatedAt != 0 {
		if err := l.checkCreatedAt(c, now.UnixNano(), args.CreatedAt); err != nil {
			return 0, err
		}
		dup, found, err := l.checkDuplicate(c, now.UnixNano(), candidate)
		if err != nil {
			return 0, err
		}
		if found {
			return 0, ErrorDuplicate(dup)
		}
	}

	var unauthorized []uint64
	authorized := make(map[uint64]*Token)
	for _, id := range ids {
		token, err := l.store.ReadToken(id)
		if err != nil {
			return 0, errors.Wrap(err, "read token")
		}
		switch {
		case token == nil:
			unauthorized = append(unauthorized, id)
		case token.Owner == spender:
			authorized[id] = token
		case token.ApprovedFor(spender, now.UnixNano()) && token.Owner == args.From:
			authorized[id] = token
		default:
			unauthorized = append(unauthorized, id)
		}
	}

	atomic := c.AtomicBatchTransfer
	if args.Atomic != nil {
		atomic = *args.Atomic
	}
	if atomic && len(unauthorized) > 0 {
		return 0, ErrorUnauthorized(unauthorized)
	}
	if len(authorized) == 0 {
		return 0, ErrorUnauthorized(unauthorized)
	}

	var transferred []uint64
	var tokens []*Token
	for _, id := range ids {
		token := authorized[id]
		if token == nil {
			continue
		}
		token.Transfer(args.To)
		transferred = append(transferred, id)
		tokens = append(tokens, token)
	}
	candidate.TokenIDs = transferred
	return l.commit(c, tokens, candidate)
}

type BurnArgs struct {
	SubAccount *SubAccount
	TokenIDs   []uint64
	Memo       []byte
	CreatedAt  int64
}

// Burn moves tokens to the collection burn account. Only the current
// owner may burn, delegated approvals never authorize it. The token
// rows remain and the total supply is unchanged, a burned token simply
// has no valid caller left that can match its owner.
func (l *Ledger) Burn(caller string, args *BurnArgs) (uint64, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	c, err := l.readCollection()
	if err != nil {
		return 0, err
	}
	if len(args.TokenIDs) == 0 {
		return 0, ErrorGeneric("empty token ids")
	}
	if !c.validBatch(args.TokenIDs) {
		return 0, ErrorPayloadTooLarge("batch exceeds max size")
	}
	if !c.validMemo(args.Memo) {
		return 0, ErrorPayloadTooLarge("memo exceeds max size")
	}
	owner := NormalizeAccount(caller, args.SubAccount)
	if owner.Anonymous() {
		return 0, ErrorGeneric("anonymous caller")
	}
	burn := c.BurnAccount()
	ids := sortedTokenIDs(args.TokenIDs)
	now := l.timer.Now()

	candidate := &Transaction{
		Kind:      TransactionKindBurn,
		TokenIDs:  ids,
		From:      owner,
		Spender:   owner,
		To:        burn,
		Memo:      args.Memo,
		CreatedAt: args.CreatedAt,
	}
	if args.CreatedAt != 0 {
		if err := l.checkCreatedAt(c, now.UnixNano(), args.CreatedAt); err != nil {
			return 0, err
		}
		dup, found, err := l.checkDuplicate(c, now.UnixNano(), candidate)
		if err != nil {
			return 0, err
		}
		if found {
			return 0, ErrorDuplicate(dup)
		}
	}

	var unauthorized []uint64
	tokens := make([]*Token, 0, len(ids))
	for _, id := range ids {
		token, err := l.store.ReadToken(id)
		if err != nil {
			return 0, errors.Wrap(err, "read token")
		}
		if token == nil || token.Owner != owner {
			unauthorized = append(unauthorized, id)
			continue
		}
		tokens = append(tokens, token)
	}
	if len(unauthorized) > 0 {
		return 0, ErrorUnauthorized(unauthorized)
	}

	for _, token := range tokens {
		token.Transfer(burn)
	}
	return l.commit(c, tokens, candidate)
}

type ApproveArgs struct {
	SubAccount *SubAccount
	Spender    Account
	// TokenIDs nil approves the caller's whole current holdings.
	TokenIDs  []uint64
	ExpiresAt int64 // nanoseconds, zero means no expiry
	Memo      []byte
}

func (l *Ledger) Approve(caller string, args *ApproveArgs) (uint64, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	c, err := l.readCollection()
	if err != nil {
		return 0, err
	}
	if args.Spender.Anonymous() {
		return 0, ErrorInvalidRecipient("anonymous spender")
	}
	if !c.validMemo(args.Memo) {
		return 0, ErrorPayloadTooLarge("memo exceeds max size")
	}
	owner := NormalizeAccount(caller, args.SubAccount)

	var tokens []*Token
	if args.TokenIDs == nil {
		tokens, err = l.ownedTokens(owner)
		if err != nil {
			return 0, err
		}
		if len(tokens) == 0 {
			return 0, ErrorGeneric("no token owned")
		}
	} else {
		if len(args.TokenIDs) == 0 {
			return 0, ErrorGeneric("empty token ids")
		}
		if !c.validBatch(args.TokenIDs) {
			return 0, ErrorPayloadTooLarge("batch exceeds max size")
		}
		ids := sortedTokenIDs(args.TokenIDs)
		var unauthorized []uint64
		for _, id := range ids {
			token, err := l.store.ReadToken(id)
			if err != nil {
				return 0, errors.Wrap(err, "read token")
			}
			if token == nil || token.Owner != owner {
				unauthorized = append(unauthorized, id)
				continue
			}
			tokens = append(tokens, token)
		}
		if len(unauthorized) > 0 {
			return 0, ErrorUnauthorized(unauthorized)
		}
	}

	approved := make([]uint64, len(tokens))
	for i, token := range tokens {
		token.Approve(args.Spender, args.ExpiresAt)
		approved[i] = token.ID
	}
	return l.commit(c, tokens, &Transaction{
		Kind:     TransactionKindApproval,
		TokenIDs: approved,
		From:     owner,
		Spender:  args.Spender,
		Memo:     args.Memo,
	})
}

// commit stamps and appends the transaction and writes the whole
// operation atomically. Store failure here is fatal to the call, never
// partially applied.
func (l *Ledger) commit(c *Collection, tokens []*Token, tx *Transaction) (uint64, error) {
	c.TxCount += 1
	tx.ID = c.TxCount
	tx.Timestamp = l.timer.Now().UnixNano()
	err := l.store.WriteLedgerEntry(tokens, tx, c)
	if err != nil {
		return 0, errors.Wrap(err, "write ledger entry")
	}
	logger.Verbosef("ledger.commit(%s, %v) => %d\n", tx.Kind, tx.TokenIDs, tx.ID)
	return tx.ID, nil
}

func (l *Ledger) readCollection() (*Collection, error) {
	c, err := l.store.ReadCollection()
	if err != nil {
		return nil, errors.Wrap(err, "read collection")
	}
	if c == nil {
		return nil, errors.New("collection not initialized")
	}
	return c, nil
}

// ownedTokens scans the registry in one store snapshot, no secondary
// owner index is kept so this is linear in the collection size.
func (l *Ledger) ownedTokens(owner Account) ([]*Token, error) {
	all, err := l.store.ListTokens(0, 0)
	if err != nil {
		return nil, errors.Wrap(err, "list tokens")
	}
	var tokens []*Token
	for _, token := range all {
		if token.Owner == owner {
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}

func sortedTokenIDs(ids []uint64) []uint64 {
	sorted := make([]uint64, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted
}
