package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yadev/crm-system/internal/core/ports"
)

const (
	defaultTimeout = 5 * time.Second
	defaultTTL     = 24 * time.Hour
	keyPrefix      = "idem"

	// pendingTTL bounds how long a crashed request can hold a key.
	pendingTTL = time.Minute
	// reserveAttempts covers a pending key expiring between SETNX and GET.
	reserveAttempts = 3
)

// Config captures the settings for establishing a Redis connection.
type Config struct {
	Addr    string
	DB      int
	Timeout time.Duration
}

// Connect initialises a Redis client and validates connectivity with a ping.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// IdempotencyStore tracks Idempotency-Keys for create requests.
// Key format: idem:<scope>:<key>
// Value format: <fingerprint>:<id>, where id 0 marks a request still running.
type IdempotencyStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewIdempotencyStore(client redis.Cmdable, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Reserve claims (scope, key) with SETNX. When another request holds the key
// its record is returned instead.
func (s *IdempotencyStore) Reserve(ctx context.Context, scope, key, fingerprint string) (ports.IdempotencyRecord, bool, error) {
	k := s.key(scope, key)
	for attempt := 0; attempt < reserveAttempts; attempt++ {
		ok, err := s.client.SetNX(ctx, k, encodeRecord(fingerprint, 0), pendingTTL).Result()
		if err != nil {
			return ports.IdempotencyRecord{}, false, fmt.Errorf("idempotency reserve: %w", err)
		}
		if ok {
			return ports.IdempotencyRecord{Fingerprint: fingerprint}, true, nil
		}

		raw, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return ports.IdempotencyRecord{}, false, fmt.Errorf("idempotency reserve: %w", err)
		}
		rec, err := decodeRecord(raw)
		if err != nil {
			return ports.IdempotencyRecord{}, false, fmt.Errorf("idempotency reserve: %w", err)
		}
		return rec, false, nil
	}
	return ports.IdempotencyRecord{}, false, fmt.Errorf("idempotency reserve: key %q kept expiring", k)
}

// Complete stores the created id for the full TTL.
func (s *IdempotencyStore) Complete(ctx context.Context, scope, key, fingerprint string, id int64) error {
	if err := s.client.Set(ctx, s.key(scope, key), encodeRecord(fingerprint, id), s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release drops the key so the client can retry with it.
func (s *IdempotencyStore) Release(ctx context.Context, scope, key string) error {
	if err := s.client.Del(ctx, s.key(scope, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (s *IdempotencyStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *IdempotencyStore) key(scope, key string) string {
	return keyPrefix + ":" + scope + ":" + key
}

func encodeRecord(fingerprint string, id int64) string {
	return fingerprint + ":" + strconv.FormatInt(id, 10)
}

func decodeRecord(raw string) (ports.IdempotencyRecord, error) {
	i := strings.LastIndexByte(raw, ':')
	if i < 0 {
		return ports.IdempotencyRecord{}, fmt.Errorf("stored value %q: missing separator", raw)
	}
	id, err := strconv.ParseInt(raw[i+1:], 10, 64)
	if err != nil {
		return ports.IdempotencyRecord{}, fmt.Errorf("stored value %q: %w", raw, err)
	}
	return ports.IdempotencyRecord{Fingerprint: raw[:i], ID: id}, nil
}
