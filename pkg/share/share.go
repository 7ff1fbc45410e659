// Package share provides persistent storage for shared diagrams.
//
// A share is a stored snapshot addressable by id, so a diagram can be
// opened from a short link instead of a full URL-encoded token. The Store
// interface has implementations for different backends:
//   - memory: In-memory storage for development/testing
//   - file: File-based storage for CLI and single-host use
//   - redis: Redis-backed storage for multi-instance deployments
//   - mongo: MongoDB-backed storage when shares must outlive a cache
//
// # Architecture
//
// Shares expire: every share carries an expiry and backends treat expired
// entries as missing. A missing share reads back as (nil, nil), never an
// error, so callers distinguish "not found" from backend failure.
//
// # Usage
//
//	st := share.NewMemoryStore()
//	sh := share.New(snapshot, share.DefaultTTL)
//	if err := st.Set(ctx, sh); err != nil {
//	    return err
//	}
//	got, err := st.Get(ctx, sh.ID)
package share

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hwaldner/cloudcanvas/pkg/store"
)

// DefaultTTL is the default share lifetime.
const DefaultTTL = 30 * 24 * time.Hour

// Share is a stored snapshot with an addressable id.
type Share struct {
	ID        string         `json:"id"`
	Snapshot  store.Snapshot `json:"snapshot"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// IsExpired returns true if the share has expired. Shares with a zero
// expiry never expire.
func (s *Share) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// New creates a share with a generated id. A ttl of zero means no expiry.
func New(snap store.Snapshot, ttl time.Duration) *Share {
	now := time.Now().UTC()
	sh := &Share{
		ID:        uuid.NewString(),
		Snapshot:  snap,
		CreatedAt: now,
	}
	if ttl > 0 {
		sh.ExpiresAt = now.Add(ttl)
	}
	return sh
}

// Store is the interface for share storage backends.
type Store interface {
	// Get retrieves a share by id.
	// Returns nil, nil if the share doesn't exist or has expired.
	Get(ctx context.Context, id string) (*Share, error)

	// Set stores a share.
	Set(ctx context.Context, sh *Share) error

	// Delete removes a share. Deleting a missing share is not an error.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired shares (may be a no-op for backends with
	// native expiry).
	Cleanup(ctx context.Context) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}
