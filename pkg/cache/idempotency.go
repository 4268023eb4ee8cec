package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRequestInProgress is returned by Begin while another request holding the
// same key has not completed yet.
var ErrRequestInProgress = errors.New("request with this idempotency key is in progress")

const pendingMarker = "pending"

// StoredResponse is a response recorded for replay
type StoredResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// IdempotencyStore records responses by client-supplied key so a retried
// request replays the first response instead of running again.
type IdempotencyStore struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
}

// NewIdempotencyStore creates a store whose entries expire after ttl
func NewIdempotencyStore(rdb redis.Cmdable, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl, prefix: "idempotency:"}
}

func (s *IdempotencyStore) key(k string) string {
	return s.prefix + k
}

// Begin claims key for the caller. It returns (nil, nil) when the caller should
// process the request, the stored response when one was already recorded, or
// ErrRequestInProgress when another request holds the key.
func (s *IdempotencyStore) Begin(ctx context.Context, key string) (*StoredResponse, error) {
	acquired, err := s.rdb.SetNX(ctx, s.key(key), pendingMarker, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("claim idempotency key: %w", err)
	}
	if acquired {
		return nil, nil
	}

	raw, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; try once more
		return s.Begin(ctx, key)
	}
	if err != nil {
		return nil, fmt.Errorf("read idempotency key: %w", err)
	}
	if raw == pendingMarker {
		return nil, ErrRequestInProgress
	}

	var resp StoredResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("decode stored response: %w", err)
	}
	return &resp, nil
}

// Complete records the response for key
func (s *IdempotencyStore) Complete(ctx context.Context, key string, resp StoredResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode stored response: %w", err)
	}
	return s.rdb.Set(ctx, s.key(key), data, s.ttl).Err()
}

// Release drops the claim on key so the client may retry
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.key(key)).Err()
}
