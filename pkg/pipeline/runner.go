package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hwaldner/cloudcanvas/pkg/cache"
	"github.com/hwaldner/cloudcanvas/pkg/canonical"
	"github.com/hwaldner/cloudcanvas/pkg/containment"
	"github.com/hwaldner/cloudcanvas/pkg/export"
	"github.com/hwaldner/cloudcanvas/pkg/layout"
	"github.com/hwaldner/cloudcanvas/pkg/observability"
	"github.com/hwaldner/cloudcanvas/pkg/shape"
	"github.com/hwaldner/cloudcanvas/pkg/store"
)

// Runner encapsulates pipeline execution with artifact caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options against different stores.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete resolve → layout → canonicalize → generate
// pipeline against the given store.
func (r *Runner) Execute(ctx context.Context, st *store.Store, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	logger := r.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	}

	result := &Result{
		Artifacts: make(map[string]export.Artifact),
		CacheInfo: CacheInfo{ArtifactHits: make(map[string]bool)},
	}

	// Stage 1: Resolve containment
	if opts.Resolve {
		start := time.Now()
		ops := containment.PassAll(st.Shapes(opts.PageID))
		st.ApplyReparents(ops)
		result.Stats.ResolveTime = time.Since(start)
		logger.Info("resolved containment",
			"reparented", len(ops),
			"duration", result.Stats.ResolveTime)
	}

	// Stage 2: Layout
	if opts.Layout {
		start := time.Now()
		applied, hit, err := r.applyLayout(ctx, logger, st, opts)
		if err != nil {
			return nil, err
		}
		result.CacheInfo.LayoutHit = hit
		result.Stats.LayoutTime = time.Since(start)
		logger.Info("applied layout",
			"updates", applied,
			"cached", hit,
			"duration", result.Stats.LayoutTime)
	}

	// Content hash over the post-mutation snapshot keys every artifact.
	snap := st.Snapshot()
	data, err := store.MarshalSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("hash snapshot: %w", err)
	}
	result.SnapshotHash = cache.Hash(data)

	// Stage 3 + 4: Canonicalize and generate per format
	start := time.Now()
	shapes := st.Shapes(opts.PageID)
	result.Stats.ShapeCount = len(shapes)

	for _, format := range opts.Formats {
		art, hit, err := r.generate(ctx, logger, shapes, result.SnapshotHash, format)
		if err != nil {
			return nil, err
		}
		result.Artifacts[format] = art
		result.CacheInfo.ArtifactHits[format] = hit
	}
	result.Stats.GenerateTime = time.Since(start)

	// Stats come from a canonical pass with the first requested format
	// stamped into the metadata.
	result.Diagram = canonical.Build(shapes, opts.Formats[0], logger)
	result.Stats.ItemCount = len(result.Diagram.Items)
	result.Stats.ConnectionCount = len(result.Diagram.Connections)

	logger.Info("generated artifacts",
		"formats", opts.Formats,
		"items", result.Stats.ItemCount,
		"connections", result.Stats.ConnectionCount,
		"duration", result.Stats.GenerateTime)

	return result, nil
}

// applyLayout positions the store's shapes, consulting the cache first.
// The key embeds a hash of the pre-layout snapshot plus the layout options,
// so a hit replays the exact updates a fresh Compute would produce.
func (r *Runner) applyLayout(ctx context.Context, logger *log.Logger, st *store.Store, opts Options) (int, bool, error) {
	data, err := store.MarshalSnapshot(st.Snapshot())
	if err != nil {
		return 0, false, fmt.Errorf("hash snapshot: %w", err)
	}
	key := r.Keyer.LayoutKey(cache.Hash(data), cache.LayoutKeyOpts{
		Direction: string(opts.Direction),
		Spacing:   opts.Spacing,
		Padding:   opts.Padding,
	})

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		var updates []layout.Update
		if err := json.Unmarshal(data, &updates); err == nil {
			observability.Cache().OnCacheHit(ctx, "layout")
			layout.Apply(st, updates)
			return len(updates), true, nil
		}
		// Corrupt entry; fall through and recompute.
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	updates := layout.Compute(st.Shapes(opts.PageID), opts.Direction, opts.Spacing,
		layout.Options{ContainerPadding: opts.Padding})
	layout.Apply(st, updates)

	if encoded, err := json.Marshal(updates); err == nil {
		if err := r.Cache.Set(ctx, key, encoded, 0); err != nil {
			logger.Warn("cache layout", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(encoded))
		}
	}
	return len(updates), false, nil
}

// generate produces one artifact, consulting the cache first. The key
// embeds the snapshot hash, so a hit is always current and skips
// canonicalization entirely.
func (r *Runner) generate(ctx context.Context, logger *log.Logger, shapes []shape.Shape, snapshotHash, format string) (export.Artifact, bool, error) {
	key := r.Keyer.ArtifactKey(snapshotHash, format)

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "artifact")
		ext, err := export.ExtensionFor(format)
		if err != nil {
			return export.Artifact{}, false, err
		}
		return export.Artifact{Content: data, Extension: ext}, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	d := canonical.Build(shapes, format, logger)
	art, err := export.Generate(ctx, d, format)
	if err != nil {
		return export.Artifact{}, false, err
	}

	if err := r.Cache.Set(ctx, key, art.Content, 0); err != nil {
		logger.Warn("cache artifact", "format", format, "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "artifact", len(art.Content))
	}
	return art, false, nil
}
