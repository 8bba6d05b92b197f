package shared

import (
	"context"
	"errors"
	"time"
)

// ErrIdempotencyKeyInFlight is returned when a request with the same key is still being processed
var ErrIdempotencyKeyInFlight = errors.New("request with this idempotency key is in progress")

// StoredResponse is a completed response kept for replay under an Idempotency-Key
type StoredResponse struct {
	StatusCode  int       `json:"status_code"`
	ContentType string    `json:"content_type"`
	Body        []byte    `json:"body"`
	RequestHash string    `json:"request_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// IdempotencyStore keeps responses of mutating requests so retries replay instead of re-executing
type IdempotencyStore interface {
	// Get returns the stored response for key, if any
	Get(ctx context.Context, key string) (*StoredResponse, bool, error)

	// Reserve marks key as in flight. It returns false when the key is already reserved or stored.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Save stores the response and clears the reservation
	Save(ctx context.Context, key string, resp *StoredResponse, ttl time.Duration) error

	// Release clears a reservation without storing a response
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a stored response is replayed
	TTL time.Duration

	// InFlightTTL bounds a reservation left behind by a crashed request
	InFlightTTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:         24 * time.Hour,
		InFlightTTL: time.Minute,
		Enabled:     true,
	}
}
