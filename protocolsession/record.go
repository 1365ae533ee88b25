package protocolsession

import (
	"context"
	"time"
)

// Kind groups records of one protocol model (interaction, grant, ...)
type Kind string

const (
	KindInteraction Kind = "Interaction"
	KindGrant       Kind = "Grant"
)

// Record is an opaque persisted protocol entry. A record past its expiry is
// absent no matter what the backing store still holds.
type Record struct {
	Kind       Kind       `db:"kind"`
	UID        string     `db:"uid"`
	GrantID    string     `db:"grant_id"`
	Payload    []byte     `db:"payload"`
	ExpiresAt  time.Time  `db:"expires_at"`
	ConsumedAt *time.Time `db:"consumed_at"`
}

// Consumed reports whether the record has been marked as used
func (r *Record) Consumed() bool {
	return r.ConsumedAt != nil
}

func (r *Record) clone() *Record {
	c := *r
	c.Payload = append([]byte(nil), r.Payload...)
	if r.ConsumedAt != nil {
		t := *r.ConsumedAt
		c.ConsumedAt = &t
	}
	return &c
}

// Adapter is the persistence boundary for protocol bookkeeping. Find and
// FindByUserCode return (nil, nil) for absent or expired records.
type Adapter interface {
	Upsert(ctx context.Context, record *Record) error
	Find(ctx context.Context, kind Kind, uid string) (*Record, error)
	// FindByUserCode returns a live record of kind whose payload contains the
	// userCode fragment verbatim
	FindByUserCode(ctx context.Context, kind Kind, userCode string) (*Record, error)
	// Consume stamps ConsumedAt once; ErrNotFound when the record is absent
	// or already consumed
	Consume(ctx context.Context, kind Kind, uid string) error
	// Destroy is a no-op for absent records
	Destroy(ctx context.Context, kind Kind, uid string) error
	// RevokeByGrantID removes every record sharing grantID in one step
	RevokeByGrantID(ctx context.Context, grantID string) error
}

type settings struct {
	nowTime func() time.Time
}

// Option configures an Adapter implementation
type Option func(*settings)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *settings) {
		s.nowTime = nowFunc
	}
}

func newSettings(options []Option) settings {
	s := settings{nowTime: time.Now}
	for _, opt := range options {
		opt(&s)
	}
	return s
}
