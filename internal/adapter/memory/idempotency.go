package memory

import (
	"context"
	"time"

	portidem "github.com/alanyang/prodline/internal/port/idempotency"
)

var _ portidem.Store = (*IdempotencyStore)(nil)

// DefaultIdempotencyTTL bounds how long a replayable response is remembered.
const DefaultIdempotencyTTL = 24 * time.Hour

type IdempotencyStore struct {
	cache *Cache[portidem.Record]
	ttl   time.Duration
}

func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyStore{cache: NewCache[portidem.Record](), ttl: ttl}
}

func (s *IdempotencyStore) Check(_ context.Context, key string) (portidem.Record, bool, error) {
	rec, ok := s.cache.Get(key)
	return rec, ok, nil
}

// Store keeps the first response recorded for key.
func (s *IdempotencyStore) Store(_ context.Context, key, opType string, rec portidem.Record) error {
	rec.OpType = opType
	s.cache.SetIfAbsent(key, rec, s.ttl)
	return nil
}

// Sweep drops expired records; the server runs it periodically.
func (s *IdempotencyStore) Sweep() int { return s.cache.Sweep() }
