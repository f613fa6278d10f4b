package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/touristsafety/identity-access-service/internal/config"
	"github.com/touristsafety/identity-access-service/internal/core/domain"
	"github.com/touristsafety/identity-access-service/internal/core/ports"
)

// schemaVersion is embedded in every persisted record so the layout can be
// upgraded safely. Records with an unknown version load as absent.
const schemaVersion = 1

const keyPrefix = "session:"

// record is the persisted session layout: the identity plus a schema
// version. It never contains secret fields.
type record struct {
	Version  int              `json:"v"`
	Identity *domain.Identity `json:"identity"`
}

// Commands is the slice of the go-redis API the store uses. Any go-redis
// universal client satisfies it; tests substitute an in-memory fake.
type Commands interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

var _ Commands = (redis.UniversalClient)(nil)

// RedisStore persists one session record per client scope under a single
// well-known key. Redis operations run behind a circuit breaker so a dead
// Redis fails fast instead of stacking timeouts.
type RedisStore struct {
	client Commands
	key    string
	ttl    time.Duration
	cb     *gobreaker.CircuitBreaker
}

var _ ports.SessionStore = (*RedisStore)(nil)

// NewRedisStore scopes a store to one client ID. All stores created from the
// same client share the breaker, which callers arrange by passing the same
// *gobreaker.CircuitBreaker; pass nil to create a dedicated one.
func NewRedisStore(client Commands, clientID string, ttl time.Duration, cb *gobreaker.CircuitBreaker) *RedisStore {
	if cb == nil {
		cb = config.NewCircuitBreaker("Redis-Sessions")
	}
	return &RedisStore{
		client: client,
		key:    keyPrefix + clientID,
		ttl:    ttl,
		cb:     cb,
	}
}

func (s *RedisStore) Save(ctx context.Context, identity *domain.Identity) error {
	if identity == nil {
		return errors.New("nil identity")
	}

	data, err := json.Marshal(record{Version: schemaVersion, Identity: identity})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	_, err = s.cb.Execute(func() (interface{}, error) {
		return nil, s.client.Set(ctx, s.key, data, s.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context) (*domain.Identity, error) {
	res, err := s.cb.Execute(func() (interface{}, error) {
		data, err := s.client.Get(ctx, s.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil, domain.ErrNoSession
			}
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNoSession) {
			return nil, domain.ErrNoSession
		}
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}

	var rec record
	if err := json.Unmarshal([]byte(res.(string)), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if rec.Version != schemaVersion || rec.Identity == nil {
		// An unreadable or future-version record behaves like no session;
		// leave the cleanup to the next Save/Clear.
		log.Printf("sessionstore: discarding record with schema version %d at %s", rec.Version, s.key)
		return nil, domain.ErrNoSession
	}
	return rec.Identity, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.client.Del(ctx, s.key).Err()
	})
	if err != nil {
		return fmt.Errorf("redis del %s: %w", s.key, err)
	}
	return nil
}
