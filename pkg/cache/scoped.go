package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// The share server uses this to keep per-share artifact entries apart
// from entries produced by local CLI runs against the same content.
//
// Example usage:
//
//	// Share-specific keys
//	shareKeyer := NewScopedKeyer(NewDefaultKeyer(), "share:abc123:")
//
//	// Global keys
//	globalKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(snapshotHash, format string) string {
	return k.prefix + k.inner.ArtifactKey(snapshotHash, format)
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(snapshotHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(snapshotHash, opts)
}
