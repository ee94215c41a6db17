package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-agenda/internal/config"
	"github.com/BruksfildServices01/barber-agenda/internal/domain/booking"
	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
)

const (
	flowPrefix = "booking:flow:"
	lockPrefix = "booking:lock:"
)

// releaseLock deletes the lock only if we still own it.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewRedisClient pings the server before handing the client out.
func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

type RedisStore struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

func NewRedisStore(client *redis.Client, ttl, lockTTL time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, lockTTL: lockTTL}
}

func unavailable(err error) error {
	return httperr.ErrTransport("session_store_unavailable", err)
}

func (s *RedisStore) Get(ctx context.Context, id string) (*booking.Flow, error) {
	data, err := s.client.Get(ctx, flowPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, httperr.ErrNotFound("booking_not_found")
	}
	if err != nil {
		return nil, unavailable(err)
	}

	var f booking.Flow
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Save refreshes the TTL on every write.
func (s *RedisStore) Save(ctx context.Context, f *booking.Flow) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, flowPrefix+f.ID, b, s.ttl).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, flowPrefix+id).Result()
	if err != nil {
		return unavailable(err)
	}
	if n == 0 {
		return httperr.ErrNotFound("booking_not_found")
	}
	return nil
}

// Lock takes the per-flow mutation lock. A held lock is reported as a
// conflict rather than waited on.
func (s *RedisStore) Lock(ctx context.Context, id string) (func(), error) {
	key := lockPrefix + id
	token := uuid.NewString()

	ok, err := s.client.SetNX(ctx, key, token, s.lockTTL).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	if !ok {
		return nil, httperr.ErrConflict("booking_in_progress")
	}

	return func() {
		// o contexto da requisição pode já ter sido cancelado
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseLock.Run(ctx, s.client, []string{key}, token).Err()
	}, nil
}
