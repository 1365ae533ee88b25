package protocolsession

import (
	"bytes"
	"context"
	"sync"

	"github.com/pkg/errors"

	bridgeerrors "github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
)

type recordKey struct {
	kind Kind
	uid  string
}

// MemoryAdapter holds records in process memory
type MemoryAdapter struct {
	settings
	mu      sync.RWMutex
	records map[recordKey]*Record
}

var _ Adapter = (*MemoryAdapter)(nil)

func NewMemoryAdapter(options ...Option) *MemoryAdapter {
	return &MemoryAdapter{settings: newSettings(options), records: make(map[recordKey]*Record)}
}

func (a *MemoryAdapter) Upsert(_ context.Context, record *Record) error {
	if err := validate(record); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records[recordKey{record.Kind, record.UID}] = record.clone()
	return nil
}

func (a *MemoryAdapter) Find(_ context.Context, kind Kind, uid string) (*Record, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	record, ok := a.records[recordKey{kind, uid}]
	if !ok || !a.live(record) {
		return nil, nil
	}
	return record.clone(), nil
}

func (a *MemoryAdapter) FindByUserCode(_ context.Context, kind Kind, userCode string) (*Record, error) {
	if userCode == "" {
		return nil, nil
	}
	needle := []byte(userCode)

	a.mu.RLock()
	defer a.mu.RUnlock()
	for key, record := range a.records {
		if key.kind == kind && a.live(record) && bytes.Contains(record.Payload, needle) {
			return record.clone(), nil
		}
	}
	return nil, nil
}

func (a *MemoryAdapter) Consume(_ context.Context, kind Kind, uid string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	record, ok := a.records[recordKey{kind, uid}]
	if !ok || !a.live(record) || record.Consumed() {
		return errors.Wrapf(bridgeerrors.ErrNotFound, "%s %s", kind, uid)
	}
	now := a.nowTime().UTC()
	record.ConsumedAt = &now
	return nil
}

func (a *MemoryAdapter) Destroy(_ context.Context, kind Kind, uid string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.records, recordKey{kind, uid})
	return nil
}

func (a *MemoryAdapter) RevokeByGrantID(_ context.Context, grantID string) error {
	if grantID == "" {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for key, record := range a.records {
		if record.GrantID == grantID {
			delete(a.records, key)
		}
	}
	return nil
}

func (a *MemoryAdapter) live(record *Record) bool {
	return a.nowTime().Before(record.ExpiresAt)
}

func validate(record *Record) error {
	if record == nil || record.Kind == "" || record.UID == "" {
		return errors.Wrap(bridgeerrors.ErrInvalidRequest, "protocol record requires kind and uid")
	}
	if record.ExpiresAt.IsZero() {
		return errors.Wrap(bridgeerrors.ErrInvalidRequest, "protocol record requires an expiry")
	}
	return nil
}
