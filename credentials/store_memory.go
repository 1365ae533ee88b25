package credentials

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/jrsteele09/wallet-oidc-bridge/internal/metrics"
	"github.com/jrsteele09/wallet-oidc-bridge/internal/utils"
)

// MemoryStore keeps codes and tokens in process memory. Nothing survives a
// restart; clients simply retry the flow.
type MemoryStore struct {
	settings
	mu     sync.Mutex
	codes  map[string]CodePayload
	tokens map[string]TokenPayload
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(options ...Option) *MemoryStore {
	return &MemoryStore{
		settings: newSettings(options),
		codes:    make(map[string]CodePayload),
		tokens:   make(map[string]TokenPayload),
	}
}

func (s *MemoryStore) IssueCode(_ context.Context, grant CodeGrant) (string, error) {
	code, err := utils.RandomToken(identifierBytes)
	if err != nil {
		return "", errors.Wrap(err, "[MemoryStore.IssueCode]")
	}
	grant.Claims = grant.Claims.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code] = CodePayload{CodeGrant: grant, ExpiresAt: s.nowTime().Add(s.codeTTL)}
	return code, nil
}

func (s *MemoryStore) ConsumeCode(_ context.Context, code string) (*CodePayload, error) {
	defer metrics.ObserveStore("memory", "consume_code", time.Now())

	s.mu.Lock()
	payload, ok := s.codes[code]
	delete(s.codes, code)
	s.mu.Unlock()

	if !ok || !live(s.nowTime(), payload.ExpiresAt) {
		return nil, nil
	}
	return &payload, nil
}

func (s *MemoryStore) IssueAccessToken(_ context.Context, grant TokenGrant) (string, error) {
	token, err := utils.RandomToken(identifierBytes)
	if err != nil {
		return "", errors.Wrap(err, "[MemoryStore.IssueAccessToken]")
	}
	grant.Claims = grant.Claims.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = TokenPayload{TokenGrant: grant, ExpiresAt: s.nowTime().Add(s.accessTokenTTL)}
	return token, nil
}

func (s *MemoryStore) ReadAccessToken(_ context.Context, token string) (*TokenPayload, error) {
	defer metrics.ObserveStore("memory", "read_access_token", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.tokens[token]
	if !ok {
		return nil, nil
	}
	if !live(s.nowTime(), payload.ExpiresAt) {
		delete(s.tokens, token)
		return nil, nil
	}
	payload.Claims = payload.Claims.Clone()
	return &payload, nil
}

// Len reports how many codes and tokens are physically held, expired ones included
func (s *MemoryStore) Len() (codes, tokens int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codes), len(s.tokens)
}
