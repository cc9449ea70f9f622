package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"nftledger/ledger"
	"nftledger/store"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func testLedger(t *testing.T, genesis *ledger.Collection) (*ledger.Ledger, *store.BadgerStore, *testClock) {
	t.Helper()
	db, err := store.OpenBadger(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	clock := &testClock{now: time.Unix(1700000000, 0)}
	lgr, err := ledger.OpenLedger(db, clock, genesis)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	return lgr, db, clock
}

func testGenesis(authority string) *ledger.Collection {
	c := ledger.DefaultCollection()
	c.Name = "Test Collectibles"
	c.Symbol = "TST"
	c.MintingAuthority = ledger.NormalizeAccount(authority, nil)
	return c
}

func ledgerError(t *testing.T, err error) *ledger.Error {
	t.Helper()
	var lerr *ledger.Error
	if !errors.As(err, &lerr) {
		t.Fatalf("expected a ledger error, got %v", err)
	}
	return lerr
}

func mustMint(t *testing.T, lgr *ledger.Ledger, caller string, ids []uint64, to *ledger.Account) uint64 {
	t.Helper()
	txn, err := lgr.Mint(caller, &ledger.MintArgs{TokenIDs: ids, Name: "Piece", To: to})
	if err != nil {
		t.Fatalf("mint %v: %v", ids, err)
	}
	return txn
}

func TestMintUniqueness(t *testing.T) {
	lgr, _, _ := testLedger(t, testGenesis("alice"))

	txn := mustMint(t, lgr, "alice", []uint64{10, 11}, nil)
	if txn != 1 {
		t.Fatalf("expected first transaction id 1, got %d", txn)
	}
	supply, err := lgr.TotalSupply()
	if err != nil || supply != 2 {
		t.Fatalf("expected supply 2, got %d %v", supply, err)
	}

	_, err = lgr.Mint("alice", &ledger.MintArgs{TokenIDs: []uint64{11, 12}, Name: "Piece"})
	lerr := ledgerError(t, err)
	if lerr.Code != ledger.ErrAlreadyExists {
		t.Fatalf("expected ALREADY_EXISTS, got %s", lerr.Code)
	}
	if len(lerr.TokenIDs) != 1 || lerr.TokenIDs[0] != 11 {
		t.Fatalf("expected colliding ids [11], got %v", lerr.TokenIDs)
	}

	// the whole batch must be rejected, 12 stays unminted
	owner, err := lgr.OwnerOf(12)
	if err != nil || owner != nil {
		t.Fatalf("expected no owner for 12, got %v %v", owner, err)
	}
	supply, _ = lgr.TotalSupply()
	if supply != 2 {
		t.Fatalf("failed mint mutated supply: %d", supply)
	}
}

func TestMintAuthorization(t *testing.T) {
	lgr, _, _ := testLedger(t, testGenesis("alice"))

	_, err := lgr.Mint("mallory", &ledger.MintArgs{TokenIDs: []uint64{1}, Name: "Piece"})
	if lerr := ledgerError(t, err); lerr.Code != ledger.ErrUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %s", lerr.Code)
	}

	anon := ledger.NormalizeAccount(ledger.AnonymousOwner, nil)
	_, err = lgr.Mint("alice", &ledger.MintArgs{TokenIDs: []uint64{1}, Name: "Piece", To: &anon})
	if lerr := ledgerError(t, err); lerr.Code != ledger.ErrInvalidRecipient {
		t.Fatalf("expected INVALID_RECIPIENT, got %s", lerr.Code)
	}

	_, err = lgr.Mint("alice", &ledger.MintArgs{TokenIDs: nil, Name: "Piece"})
	if lerr := ledgerError(t, err); lerr.Code != ledger.ErrGeneric {
		t.Fatalf("expected GENERIC for empty batch, got %s", lerr.Code)
	}

	memo := make([]byte, 33)
	_, err = lgr.Mint("alice", &ledger.MintArgs{TokenIDs: []uint64{1}, Name: "Piece", Memo: memo})
	if lerr := ledgerError(t, err); lerr.Code != ledger.ErrPayloadTooLarge {
		t.Fatalf("expected PAYLOAD_TOO_LARGE, got %s", lerr.Code)
	}
}

func TestMintSupplyCap(t *testing.T) {
	genesis := testGenesis("alice")
	genesis.SupplyCap = 2
	lgr, _, _ := testLedger(t, genesis)

	_, err := lgr.Mint("alice", &ledger.MintArgs{TokenIDs: []uint64{1, 2, 3}, Name: "Piece"})
	if lerr := ledgerError(t, err); lerr.Code != ledger.ErrSupplyCapReached {
		t.Fatalf("expected SUPPLY_CAP_REACHED, got %s", lerr.Code)
	}
	supply, _ := lgr.TotalSupply()
	if supply != 0 {
		t.Fatalf("rejected mint mutated supply: %d", supply)
	}

	mustMint(t, lgr, "alice", []uint64{1, 2}, nil)
	_, err = lgr.Mint("alice", &ledger.MintArgs{TokenIDs: []uint64{3}, Name: "Piece"})
	if lerr := ledgerError(t, err); lerr.Code != ledger.ErrSupplyCapReached {
		t.Fatalf("expected SUPPLY_CAP_REACHED at cap, got %s", lerr.Code)
	}
	supply, _ = lgr.TotalSupply()
	if supply != 2 {
		t.Fatalf("expected supply pinned at cap, got %d", supply)
	}
}

func TestTransferOwnership(t *testing.T) {
	lgr, _, _ := testLedger(t, testGenesis("alice"))
	alice := ledger.NormalizeAccount("alice", nil)
	bob := ledger.NormalizeAccount("bob", nil)

	mustMint(t, lgr, "alice", []uint64{1}, nil)
	_, err := lgr.Approve("alice", &ledger.ApproveArgs{Spender: ledger.NormalizeAccount("carol", nil), TokenIDs: []uint64{1}})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}

	txn, err := lgr.Transfer("alice", &ledger.TransferArgs{From: alice, To: bob, TokenIDs: []uint64{1}})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	owner, err := lgr.OwnerOf(1)
	if err != nil || owner == nil || *owner != bob {
		t.Fatalf("expected owner bob, got %v %v", owner, err)
	}

	tx, err := lgr.Transaction(txn)
	if err != nil || tx == nil {
		t.Fatalf("read transaction %d: %v", txn, err)
	}
	if tx.Kind != ledger.TransactionKindTransfer || tx.From != alice || tx.To != bob {
		t.Fatalf("unexpected transaction record %+v", tx)
	}

	// carol's approval must not survive the ownership change
	_, err = lgr.Transfer("carol", &ledger.TransferArgs{From: bob, To: alice, TokenIDs: []uint64{1}})
	if lerr := ledgerError(t, err); lerr.Code != ledger.ErrUnauthorized {
		t.Fatalf("expected UNAUTHORIZED for stale approval, got %s", lerr.Code)
	}
}

func TestTransferAuthorization(t *testing.T) {
	lgr, _, clock := testLedger(t, testGenesis("alice"))
	alice := ledger.NormalizeAccount("alice", nil)
	bob := ledger.NormalizeAccount("bob", nil)
	carol := ledger.NormalizeAccount("carol", nil)

	mustMint(t, lgr, "alice", []uint64{1}, nil)

	// no approval at all
	_, err := lgr.Transfer("bob", &ledger.TransferArgs{From: alice, To: carol, TokenIDs: []uint64{1}})
	if lerr := ledgerError(t, err); lerr.Code != ledger.ErrUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %s", lerr.Code)
	}

	// expired approval behaves identically to none
	expired := clock.Now().Add(-time.Minute).UnixNano()
	_, err = lgr.Approve("alice", &ledger.ApproveArgs{Spender: bob, TokenIDs: []uint64{1}, ExpiresAt: expired})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	_, err = lgr.Transfer("bob", &ledger.TransferArgs{From: alice, To: carol, TokenIDs: []uint64{1}})
	if lerr := ledgerError(t, err); lerr.Code != ledger.ErrUnauthorized {
		t.Fatalf("expected UNAUTHORIZED for expired approval, got %s", lerr.Code)
	}

	// live approval authorizes the spender
	live := clock.Now().Add(time.Hour).UnixNano()
	_, err = lgr.Approve("alice", &ledger.ApproveArgs{Spender: bob, TokenIDs: []uint64{1}, ExpiresAt: live})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	_, err = lgr.Transfer("bob", &ledger.TransferArgs{From: alice, To: carol, TokenIDs: []uint64{1}})
	if err != nil {
		t.Fatalf("approved transfer: %v", err)
	}
	owner, _ := lgr.OwnerOf(1)
	if owner == nil || *owner != carol {
		t.Fatalf("expected owner carol, got %v", owner)
	}
}

func TestTransferAtomicBatch(t *testing.T) {
	lgr, _, _ := testLedger(t, testGenesis("alice"))
	alice := ledger.NormalizeAccount("alice", nil)
	bob := ledger.NormalizeAccount("bob", nil)

	mustMint(t, lgr, "alice", []uint64{1, 2}, nil)

	_, err := lgr.Transfer("alice", &ledger.TransferArgs{From: alice, To: bob, TokenIDs: []uint64{1, 2, 999}})
	lerr := ledgerError(t, err)
	if lerr.Code != ledger.ErrUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %s", lerr.Code)
	}
	if len(lerr.TokenIDs) != 1 || lerr.TokenIDs[0] != 999 {
		t.Fatalf("expected unauthorized [999], got %v", lerr.TokenIDs)
	}
	for _, id := range []uint64{1, 2} {
		owner, _ := lgr.OwnerOf(id)
		if owner == nil || *owner != alice {
			t.Fatalf("atomic failure mutated token %d: %v", id, owner)
		}
	}
}

func TestTransferNonAtomicPartial(t *testing.T) {
	lgr, _, _ := testLedger(t, testGenesis("alice"))
	alice := ledger.NormalizeAccount("alice", nil)
	bob := ledger.NormalizeAccount("bob", nil)
	atomic := false

	mustMint(t, lgr, "alice", []uint64{1, 2}, nil)

	txn, err := lgr.Transfer("alice", &ledger.TransferArgs{
		From: alice, To: bob, TokenIDs: []uint64{1, 999}, Atomic: &atomic,
	})
	if err != nil {
		t.Fatalf("non-atomic transfer: %v", err)
	}
	tx, err := lgr.Transaction(txn)
	if err != nil || tx == nil {
		t.Fatalf("read transaction: %v", err)
	}
	if len(tx.TokenIDs) != 1 || tx.TokenIDs[0] != 1 {
		t.Fatalf("expected logged ids [1], got %v", tx.TokenIDs)
	}
	owner, _ := lgr.OwnerOf(1)
	if owner == nil || *owner != bob {
		t.Fatalf("expected 1 transferred to bob, got %v", owner)
	}
	owner, _ = lgr.OwnerOf(2)
	if owner == nil || *owner != alice {
		t.Fatalf("token 2 outside the batch moved: %v", owner)
	}

	// every id unauthorized still fails, even non-atomically
	_, err = lgr.Transfer("alice", &ledger.TransferArgs{
		From: alice, To: bob, TokenIDs: []uint64{998, 999}, Atomic: &atomic,
	})
	lerr := ledgerError(t, err)
	if lerr.Code != ledger.ErrUnauthorized || len(lerr.TokenIDs) != 2 {
		t.Fatalf("expected UNAUTHORIZED [998 999], got %s %v", lerr.Code, lerr.TokenIDs)
	}
}

func TestTransferDedup(t *testing.T) {
	lgr, _, clock := testLedger(t, testGenesis("alice"))
	alice := ledger.NormalizeAccount("alice", nil)
	bob := ledger.NormalizeAccount("bob", nil)

	mustMint(t, lgr, "alice", []uint64{1, 2}, nil)

	createdAt := clock.Now().UnixNano()
	args := &ledger.TransferArgs{From: alice, To: bob, TokenIDs: []uint64{1, 2}, CreatedAt: createdAt}
	first, err := lgr.Transfer("alice", args)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	clock.advance(time.Minute)
	_, err = lgr.Transfer("alice", args)
	lerr := ledgerError(t, err)
	if lerr.Code != ledger.ErrDuplicate {
		t.Fatalf("expected DUPLICATE, got %s", lerr.Code)
	}
	if lerr.DuplicateOf != first {
		t.Fatalf("expected duplicate of %d, got %d", first, lerr.DuplicateOf)
	}

	// a different memo is a different request, it fails on
	// authorization instead of being treated as a replay
	other := &ledger.TransferArgs{From: alice, To: bob, TokenIDs: []uint64{1, 2}, CreatedAt: createdAt, Memo: []byte("x")}
	_, err = lgr.Transfer("alice", other)
	if lerr := ledgerError(t, err); lerr.Code != ledger.ErrUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %s", lerr.Code)
	}

	// outside the dedup window the request is stale, not a duplicate
	clock.advance(25 * time.Hour)
	_, err = lgr.Transfer("alice", args)
	if lerr := ledgerError(t, err); lerr.Code != ledger.ErrTooOld {
		t.Fatalf("expected TOO_OLD, got %s", lerr.Code)
	}

	future := clock.Now().Add(time.Hour).UnixNano()
	_, err = lgr.Transfer("alice", &ledger.TransferArgs{From: alice, To: bob, TokenIDs: []uint64{1}, CreatedAt: future})
	lerr = ledgerError(t, err)
	if lerr.Code != ledger.ErrCreatedInFuture {
		t.Fatalf("expected CREATED_IN_FUTURE, got %s", lerr.Code)
	}
	if lerr.LedgerTime != clock.Now().UnixNano() {
		t.Fatalf("expected ledger time %d, got %d", clock.Now().UnixNano(), lerr.LedgerTime)
	}
}

func TestBurn(t *testing.T) {
	genesis := testGenesis("alice")
	lgr, _, _ := testLedger(t, genesis)
	alice := ledger.NormalizeAccount("alice", nil)
	bob := ledger.NormalizeAccount("bob", nil)
	burn := genesis.BurnAccount()

	mustMint(t, lgr, "alice", []uint64{1, 2}, nil)
	_, err := lgr.Approve("alice", &ledger.ApproveArgs{Spender: bob, TokenIDs: []uint64{1}})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}

	// approvals never authorize burn
	_, err = lgr.Burn("bob", &ledger.BurnArgs{TokenIDs: []uint64{1}})
	if lerr := ledgerError(t, err); lerr.Code != ledger.ErrUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %s", lerr.Code)
	}

	_, err = lgr.Burn("alice", &ledger.BurnArgs{TokenIDs: []uint64{1}})
	if err != nil {
		t.Fatalf("burn: %v", err)
	}
	owner, _ := lgr.OwnerOf(1)
	if owner == nil || *owner != burn {
		t.Fatalf("expected burn account owner, got %v", owner)
	}

	// the row survives and supply is unchanged, but nothing can spend it
	supply, _ := lgr.TotalSupply()
	if supply != 2 {
		t.Fatalf("burn changed supply: %d", supply)
	}
	_, err = lgr.Transfer("alice", &ledger.TransferArgs{From: alice, To: bob, TokenIDs: []uint64{1}})
	if lerr := ledgerError(t, err); lerr.Code != ledger.ErrUnauthorized {
		t.Fatalf("expected burned token unspendable, got %s", lerr.Code)
	}
	_, err = lgr.Burn("alice", &ledger.BurnArgs{TokenIDs: []uint64{1}})
	if lerr := ledgerError(t, err); lerr.Code != ledger.ErrUnauthorized {
		t.Fatalf("expected burned token unburnable, got %s", lerr.Code)
	}
}

func TestApprove(t *testing.T) {
	lgr, _, _ := testLedger(t, testGenesis("alice"))
	bob := ledger.NormalizeAccount("bob", nil)
	carol := ledger.NormalizeAccount("carol", nil)
	anon := ledger.NormalizeAccount(ledger.AnonymousOwner, nil)

	mustMint(t, lgr, "alice", []uint64{1, 2}, nil)

	_, err := lgr.Approve("alice", &ledger.ApproveArgs{Spender: anon, TokenIDs: []uint64{1}})
	if lerr := ledgerError(t, err); lerr.Code != ledger.ErrInvalidRecipient {
		t.Fatalf("expected INVALID_RECIPIENT, got %s", lerr.Code)
	}

	// partial approval is never applied
	_, err = lgr.Approve("alice", &ledger.ApproveArgs{Spender: bob, TokenIDs: []uint64{1, 999}})
	lerr := ledgerError(t, err)
	if lerr.Code != ledger.ErrUnauthorized || len(lerr.TokenIDs) != 1 || lerr.TokenIDs[0] != 999 {
		t.Fatalf("expected UNAUTHORIZED [999], got %s %v", lerr.Code, lerr.TokenIDs)
	}
	alice := ledger.NormalizeAccount("alice", nil)
	_, err = lgr.Transfer("bob", &ledger.TransferArgs{From: alice, To: bob, TokenIDs: []uint64{1}})
	if lerr := ledgerError(t, err); lerr.Code != ledger.ErrUnauthorized {
		t.Fatalf("rejected approval still applied, got %s", lerr.Code)
	}

	// a caller owning nothing cannot approve the whole collection
	_, err = lgr.Approve("carol", &ledger.ApproveArgs{Spender: bob})
	if lerr := ledgerError(t, err); lerr.Code != ledger.ErrGeneric {
		t.Fatalf("expected GENERIC, got %s", lerr.Code)
	}

	// whole collection expands to the caller's current holdings
	txn, err := lgr.Approve("alice", &ledger.ApproveArgs{Spender: carol})
	if err != nil {
		t.Fatalf("approve collection: %v", err)
	}
	tx, err := lgr.Transaction(txn)
	if err != nil || tx == nil {
		t.Fatalf("read transaction: %v", err)
	}
	if tx.Kind != ledger.TransactionKindApproval || len(tx.TokenIDs) != 2 {
		t.Fatalf("unexpected approval record %+v", tx)
	}
	_, err = lgr.Transfer("carol", &ledger.TransferArgs{From: alice, To: carol, TokenIDs: []uint64{1, 2}})
	if err != nil {
		t.Fatalf("collection approval should authorize transfer: %v", err)
	}
}

func TestScenario(t *testing.T) {
	lgr, _, _ := testLedger(t, testGenesis("alice"))
	alice := ledger.NormalizeAccount("alice", nil)
	bob := ledger.NormalizeAccount("bob", nil)
	carol := ledger.NormalizeAccount("carol", nil)
	atomic := false

	mustMint(t, lgr, "alice", []uint64{10, 11}, nil)
	supply, _ := lgr.TotalSupply()
	if supply != 2 {
		t.Fatalf("expected supply 2, got %d", supply)
	}

	_, err := lgr.Approve("alice", &ledger.ApproveArgs{Spender: bob, TokenIDs: []uint64{10}})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}

	_, err = lgr.Transfer("bob", &ledger.TransferArgs{
		From: alice, To: carol, TokenIDs: []uint64{10}, Atomic: &atomic,
	})
	if err != nil {
		t.Fatalf("delegated transfer: %v", err)
	}
	owner, _ := lgr.OwnerOf(10)
	if owner == nil || *owner != carol {
		t.Fatalf("expected owner carol, got %v", owner)
	}

	_, err = lgr.Transfer("alice", &ledger.TransferArgs{From: alice, To: bob, TokenIDs: []uint64{10}})
	lerr := ledgerError(t, err)
	if lerr.Code != ledger.ErrUnauthorized || len(lerr.TokenIDs) != 1 || lerr.TokenIDs[0] != 10 {
		t.Fatalf("expected UNAUTHORIZED [10], got %s %v", lerr.Code, lerr.TokenIDs)
	}
}

func TestLedgerRestart(t *testing.T) {
	dir := t.TempDir()
	clock := &testClock{now: time.Unix(1700000000, 0)}

	db, err := store.OpenBadger(context.Background(), dir)
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	lgr, err := ledger.OpenLedger(db, clock, testGenesis("alice"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	mustMint(t, lgr, "alice", []uint64{1, 2, 3}, nil)
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err = store.OpenBadger(context.Background(), dir)
	if err != nil {
		t.Fatalf("reopen badger: %v", err)
	}
	defer db.Close()
	lgr, err = ledger.OpenLedger(db, clock, nil)
	if err != nil {
		t.Fatalf("reopen ledger: %v", err)
	}
	supply, err := lgr.TotalSupply()
	if err != nil || supply != 3 {
		t.Fatalf("expected restored supply 3, got %d %v", supply, err)
	}
	c, err := lgr.CollectionMetadata()
	if err != nil || c.TxCount != 1 {
		t.Fatalf("expected restored tx count 1, got %+v %v", c, err)
	}
	mustMint(t, lgr, "alice", []uint64{4}, nil)
}
