package accounts

import (
	"time"

	"github.com/jrsteele09/wallet-oidc-bridge/identity"
)

// Status is the approval state of an account
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Decision is an administrator verdict on an account
type Decision = Status

// Account is a wallet identity known to the bridge. Accounts are never deleted.
type Account struct {
	ID          string     `json:"id" db:"id"`
	PublicKey   string     `json:"publicKey" db:"public_key"`
	DisplayName string     `json:"displayName,omitempty" db:"display_name"`
	Email       string     `json:"email,omitempty" db:"email"`
	Status      Status     `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	DecidedAt   *time.Time `json:"decidedAt,omitempty" db:"decided_at"`
	DecidedBy   string     `json:"decidedBy,omitempty" db:"decided_by"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty" db:"approved_at"`
	ApprovedBy  string     `json:"approvedBy,omitempty" db:"approved_by"`
}

// IsApproved reports whether the account passed the approval gate
func (a *Account) IsApproved() bool {
	return a != nil && a.Status == StatusApproved
}

// Claims is the identity snapshot handed to relying parties
type Claims map[string]any

// Subject returns the sub claim
func (c Claims) Subject() string {
	sub, _ := c["sub"].(string)
	return sub
}

// Clone returns a shallow copy so later mutation cannot leak into a snapshot
func (c Claims) Clone() Claims {
	out := make(Claims, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Claims builds the claims snapshot for the account
func (a *Account) Claims() Claims {
	name := a.DisplayName
	if name == "" {
		name = identity.ShortKey(a.PublicKey)
	}
	return Claims{
		"sub":                a.ID,
		"name":               name,
		"preferred_username": name,
		"email":              a.Email,
		"email_verified":     a.Email != "",
		"wallet_public_key":  a.PublicKey,
	}
}

func (a *Account) clone() *Account {
	c := *a
	if a.DecidedAt != nil {
		t := *a.DecidedAt
		c.DecidedAt = &t
	}
	if a.ApprovedAt != nil {
		t := *a.ApprovedAt
		c.ApprovedAt = &t
	}
	return &c
}
