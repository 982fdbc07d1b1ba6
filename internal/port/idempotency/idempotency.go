package idempotency

import "context"

// Record is a stored response for a previously processed request.
type Record struct {
	// OpType is the method and route template the key was first used on.
	OpType     string
	StatusCode int
	Body       []byte
}

// Store remembers responses keyed by the client's Idempotency-Key header.
type Store interface {
	Check(ctx context.Context, key string) (Record, bool, error)
	Store(ctx context.Context, key, opType string, rec Record) error
}
