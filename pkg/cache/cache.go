// Package cache provides byte-level caching for export artifacts and layout
// results.
//
// Generating an artifact for an unchanged diagram is pure and deterministic,
// so results are cached under content-hash keys: the same snapshot and
// options always resolve to the same key. Backends share a small [Cache]
// interface with file, memory, and null implementations; [Keyer] builds the
// keys so every caller hashes options identically.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys with optional TTL.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts are the layout options that affect computed positions.
type LayoutKeyOpts struct {
	Direction string  `json:"direction"`
	Spacing   float64 `json:"spacing"`
	Padding   float64 `json:"padding"`
}

// Keyer generates cache keys. All keys embed a content hash of the source
// snapshot so stale entries are never served after an edit.
type Keyer interface {
	// ArtifactKey generates a key for a generated export artifact.
	ArtifactKey(snapshotHash, format string) string

	// LayoutKey generates a key for computed layout updates.
	LayoutKey(snapshotHash string, opts LayoutKeyOpts) string
}

// DefaultKeyer is the standard key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key generator.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ArtifactKey generates a key for a generated export artifact.
func (k *DefaultKeyer) ArtifactKey(snapshotHash, format string) string {
	return hashKey("artifact", snapshotHash, format)
}

// LayoutKey generates a key for computed layout updates.
func (k *DefaultKeyer) LayoutKey(snapshotHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", snapshotHash, opts)
}
