package ledger

import (
	"github.com/MixinNetwork/mixin/crypto"
)

// AnonymousOwner is the no-identity sentinel. It is never accepted as a
// mint destination, transfer participant or approval spender.
const AnonymousOwner = "anonymous"

type SubAccount [32]byte

// DefaultSubAccount is the sentinel an absent sub-identifier normalizes
// to, so two accounts of the same owner never compare as distinct.
var DefaultSubAccount = SubAccount{}

type Account struct {
	Owner      string
	SubAccount SubAccount
}

// NormalizeAccount must be applied to every account before it is stored,
// compared or used as a key.
func NormalizeAccount(owner string, sub *SubAccount) Account {
	if sub == nil {
		return Account{Owner: owner, SubAccount: DefaultSubAccount}
	}
	return Account{Owner: owner, SubAccount: *sub}
}

func (a Account) Anonymous() bool {
	return a.Owner == "" || a.Owner == AnonymousOwner
}

// BurnAccountFor derives the unspendable sink account of a collection.
// No caller identity can collide with a hash-derived owner, so tokens
// moved there are permanently out of circulation.
func BurnAccountFor(symbol string) Account {
	h := crypto.NewHash([]byte("BURN:" + symbol))
	return Account{Owner: h.String(), SubAccount: DefaultSubAccount}
}
