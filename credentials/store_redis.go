package credentials

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/wallet-oidc-bridge/internal/metrics"
	"github.com/jrsteele09/wallet-oidc-bridge/internal/utils"
)

const (
	codeKeyPrefix  = "bridge:code:"
	tokenKeyPrefix = "bridge:access_token:"
)

// RedisStore shares codes and tokens between bridge instances. Redis TTLs do
// the eviction; the payload expiry is still checked on every read.
type RedisStore struct {
	settings
	client redis.UniversalClient
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client redis.UniversalClient, options ...Option) *RedisStore {
	return &RedisStore{settings: newSettings(options), client: client}
}

func (s *RedisStore) IssueCode(ctx context.Context, grant CodeGrant) (string, error) {
	code, err := utils.RandomToken(identifierBytes)
	if err != nil {
		return "", errors.Wrap(err, "[RedisStore.IssueCode]")
	}
	payload := CodePayload{CodeGrant: grant, ExpiresAt: s.nowTime().Add(s.codeTTL)}
	if err := s.put(ctx, codeKeyPrefix+code, payload, s.codeTTL); err != nil {
		return "", errors.Wrap(err, "[RedisStore.IssueCode]")
	}
	return code, nil
}

func (s *RedisStore) ConsumeCode(ctx context.Context, code string) (*CodePayload, error) {
	defer metrics.ObserveStore("redis", "consume_code", time.Now())

	raw, err := s.client.GetDel(ctx, codeKeyPrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[RedisStore.ConsumeCode] GETDEL")
	}

	var payload CodePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "[RedisStore.ConsumeCode] decode")
	}
	if !live(s.nowTime(), payload.ExpiresAt) {
		return nil, nil
	}
	return &payload, nil
}

func (s *RedisStore) IssueAccessToken(ctx context.Context, grant TokenGrant) (string, error) {
	token, err := utils.RandomToken(identifierBytes)
	if err != nil {
		return "", errors.Wrap(err, "[RedisStore.IssueAccessToken]")
	}
	payload := TokenPayload{TokenGrant: grant, ExpiresAt: s.nowTime().Add(s.accessTokenTTL)}
	if err := s.put(ctx, tokenKeyPrefix+token, payload, s.accessTokenTTL); err != nil {
		return "", errors.Wrap(err, "[RedisStore.IssueAccessToken]")
	}
	return token, nil
}

func (s *RedisStore) ReadAccessToken(ctx context.Context, token string) (*TokenPayload, error) {
	defer metrics.ObserveStore("redis", "read_access_token", time.Now())

	key := tokenKeyPrefix + token
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[RedisStore.ReadAccessToken] GET")
	}

	var payload TokenPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "[RedisStore.ReadAccessToken] decode")
	}
	if !live(s.nowTime(), payload.ExpiresAt) {
		if err := s.client.Del(ctx, key).Err(); err != nil {
			log.Debug().Err(err).Msg("expired access token cleanup failed")
		}
		return nil, nil
	}
	return &payload, nil
}

func (s *RedisStore) put(ctx context.Context, key string, payload any, ttl time.Duration) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "encode")
	}
	// NX: a live identifier is never overwritten
	ok, err := s.client.SetNX(ctx, key, raw, ttl).Result()
	if err != nil {
		return errors.Wrap(err, "SET")
	}
	if !ok {
		return errors.Errorf("identifier collision on %s", key)
	}
	return nil
}
