// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers can register
// hooks at startup to receive events about containment passes, layout runs,
// export generation, URL state synchronization, and cache operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetExportHooks(&myExportHooks{})
//	    observability.SetSyncHooks(&mySyncHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Export().OnGenerateStart(ctx, format, itemCount)
//	// ... generate ...
//	observability.Export().OnGenerateComplete(ctx, format, size, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Resolve Hooks
// =============================================================================

// ResolveHooks receives events from the containment resolver.
type ResolveHooks interface {
	// OnPassStart records the start of a reparenting pass with the number
	// of candidate shapes.
	OnPassStart(ctx context.Context, candidates int)

	// OnPassComplete records a finished pass: how many reparent ops were
	// applied and how many were dropped because their shape vanished.
	OnPassComplete(ctx context.Context, applied, dropped int, duration time.Duration)

	// OnPassSkipped records a drag signal ignored because a pass was
	// already processing.
	OnPassSkipped(ctx context.Context)
}

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives events from the hierarchical layout engine.
type LayoutHooks interface {
	OnLayoutStart(ctx context.Context, direction string, shapeCount int)
	OnLayoutComplete(ctx context.Context, direction string, updates int, duration time.Duration)
}

// =============================================================================
// Export Hooks
// =============================================================================

// ExportHooks receives events from canonicalization and format generation.
type ExportHooks interface {
	// OnCanonicalize records a canonicalization pass: item and connection
	// counts plus arrows dropped for unresolved endpoint bindings.
	OnCanonicalize(ctx context.Context, items, connections, detached int)

	OnGenerateStart(ctx context.Context, format string, items int)
	OnGenerateComplete(ctx context.Context, format string, size int, duration time.Duration, err error)
}

// =============================================================================
// Sync Hooks
// =============================================================================

// SyncHooks receives events from the URL state synchronizer.
type SyncHooks interface {
	// OnWrite records a debounced URL write with the encoded token size.
	OnWrite(ctx context.Context, tokenSize int)

	// OnWriteSkipped records a debounce fire that produced no write
	// because the token was unchanged.
	OnWriteSkipped(ctx context.Context)

	// OnRead records a successful token application.
	OnRead(ctx context.Context, shapeCount int)

	// OnDecodeError records a corrupt token that was discarded.
	OnDecodeError(ctx context.Context, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from artifact cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopResolveHooks is a no-op implementation of ResolveHooks.
type NoopResolveHooks struct{}

func (NoopResolveHooks) OnPassStart(context.Context, int)                        {}
func (NoopResolveHooks) OnPassComplete(context.Context, int, int, time.Duration) {}
func (NoopResolveHooks) OnPassSkipped(context.Context)                           {}

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnLayoutStart(context.Context, string, int)                   {}
func (NoopLayoutHooks) OnLayoutComplete(context.Context, string, int, time.Duration) {}

// NoopExportHooks is a no-op implementation of ExportHooks.
type NoopExportHooks struct{}

func (NoopExportHooks) OnCanonicalize(context.Context, int, int, int) {}
func (NoopExportHooks) OnGenerateStart(context.Context, string, int)  {}
func (NoopExportHooks) OnGenerateComplete(context.Context, string, int, time.Duration, error) {
}

// NoopSyncHooks is a no-op implementation of SyncHooks.
type NoopSyncHooks struct{}

func (NoopSyncHooks) OnWrite(context.Context, int)         {}
func (NoopSyncHooks) OnWriteSkipped(context.Context)       {}
func (NoopSyncHooks) OnRead(context.Context, int)          {}
func (NoopSyncHooks) OnDecodeError(context.Context, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	resolveHooks ResolveHooks = NoopResolveHooks{}
	layoutHooks  LayoutHooks  = NoopLayoutHooks{}
	exportHooks  ExportHooks  = NoopExportHooks{}
	syncHooks    SyncHooks    = NoopSyncHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	hooksMu      sync.RWMutex
)

// SetResolveHooks registers custom containment resolver hooks.
// This should be called once at application startup.
func SetResolveHooks(h ResolveHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		resolveHooks = h
	}
}

// SetLayoutHooks registers custom layout hooks.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
	}
}

// SetExportHooks registers custom export hooks.
func SetExportHooks(h ExportHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		exportHooks = h
	}
}

// SetSyncHooks registers custom URL sync hooks.
func SetSyncHooks(h SyncHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		syncHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Resolve returns the registered containment resolver hooks.
func Resolve() ResolveHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return resolveHooks
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Export returns the registered export hooks.
func Export() ExportHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return exportHooks
}

// Sync returns the registered URL sync hooks.
func Sync() SyncHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return syncHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	resolveHooks = NoopResolveHooks{}
	layoutHooks = NoopLayoutHooks{}
	exportHooks = NoopExportHooks{}
	syncHooks = NoopSyncHooks{}
	cacheHooks = NoopCacheHooks{}
}
