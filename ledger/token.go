package ledger

import (
	"fmt"
)

// Approval delegates transfer rights over one token to a spender.
// ExpiresAt is in nanoseconds, zero means the approval never expires.
type Approval struct {
	Spender   Account
	ExpiresAt int64
}

func (a *Approval) Valid(now int64) bool {
	return a.ExpiresAt == 0 || a.ExpiresAt > now
}

type Token struct {
	ID          uint64
	Owner       Account
	Name        string
	Description string
	Logo        string
	Approvals   []Approval
}

// Approve replaces any existing approval for the spender, at most one
// active approval per spender per token.
func (t *Token) Approve(spender Account, expiresAt int64) {
	for i := range t.Approvals {
		if t.Approvals[i].Spender == spender {
			t.Approvals[i].ExpiresAt = expiresAt
			return
		}
	}
	t.Approvals = append(t.Approvals, Approval{Spender: spender, ExpiresAt: expiresAt})
}

// ApprovedFor reports whether spender holds a live approval on the token.
func (t *Token) ApprovedFor(spender Account, now int64) bool {
	for i := range t.Approvals {
		if t.Approvals[i].Spender == spender {
			return t.Approvals[i].Valid(now)
		}
	}
	return false
}

// Transfer reassigns ownership and clears every approval, stale
// delegations never outlive an ownership change.
func (t *Token) Transfer(to Account) {
	t.Owner = to
	t.Approvals = nil
}

func (t *Token) Metadata() map[string]string {
	meta := map[string]string{
		"Id":   fmt.Sprint(t.ID),
		"Name": t.Name,
	}
	if t.Description != "" {
		meta["Description"] = t.Description
	}
	if t.Logo != "" {
		meta["Logo"] = t.Logo
	}
	return meta
}
