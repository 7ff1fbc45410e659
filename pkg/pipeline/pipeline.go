// Package pipeline provides the core export pipeline for cloudcanvas.
//
// This package implements the complete resolve → layout → canonicalize →
// generate pipeline that can be used by CLI and server components. By
// centralizing this logic, we ensure consistent behavior across all entry
// points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Resolve: re-derive parent/child containment from shape geometry
//  2. Layout: compute hierarchical positions for the containment tree
//  3. Canonicalize: project the shape graph into the canonical diagram model
//  4. Generate: produce one artifact per requested output format
//
// Resolve and layout are optional and mutate the store through its batched
// entry points; canonicalize and generate are pure. Generated artifacts are
// cached under content-hash keys so re-exporting an unchanged diagram is
// free.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Formats: []string{"mermaid-c4"},
//	    Layout:  true,
//	}
//	result, err := runner.Execute(ctx, st, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	text := result.Artifacts["mermaid-c4"].Content
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hwaldner/cloudcanvas/pkg/canonical"
	"github.com/hwaldner/cloudcanvas/pkg/errors"
	"github.com/hwaldner/cloudcanvas/pkg/export"
	"github.com/hwaldner/cloudcanvas/pkg/layout"
)

// Default values shared by CLI and server entry points.
const (
	// DefaultFormat is used when no formats are requested.
	DefaultFormat = export.FormatMermaidC4

	// DefaultDirection is the default layout direction.
	DefaultDirection = layout.DirectionTopDown
)

// Options contains all configuration for the export pipeline.
// This struct supports JSON serialization for server requests.
type Options struct {
	// Resolve re-derives containment from geometry before exporting.
	Resolve bool `json:"resolve,omitempty"`

	// Layout applies hierarchical auto-layout before exporting.
	Layout bool `json:"layout,omitempty"`

	// Layout options
	Direction layout.Direction `json:"direction,omitempty"`
	Spacing   float64          `json:"spacing,omitempty"`
	Padding   float64          `json:"padding,omitempty"`

	// Generate options
	PageID  string   `json:"page_id,omitempty"`
	Formats []string `json:"formats,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Diagram is the canonical projection the artifacts were generated from.
	Diagram canonical.Diagram

	// SnapshotHash is the content hash of the exported snapshot.
	SnapshotHash string

	// Artifacts contains generated outputs keyed by format id.
	Artifacts map[string]export.Artifact

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which artifacts came from the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ShapeCount      int
	ItemCount       int
	ConnectionCount int
	ResolveTime     time.Duration
	LayoutTime      time.Duration
	GenerateTime    time.Duration
}

// CacheInfo tracks cache hits per format.
type CacheInfo struct {
	// ArtifactHits maps format id to whether the artifact came from cache.
	ArtifactHits map[string]bool

	// LayoutHit reports whether the layout stage replayed cached updates.
	LayoutHit bool
}

// AllHit reports whether every requested artifact came from cache.
func (c CacheInfo) AllHit() bool {
	if len(c.ArtifactHits) == 0 {
		return false
	}
	for _, hit := range c.ArtifactHits {
		if !hit {
			return false
		}
	}
	return true
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	for _, f := range o.Formats {
		if err := export.ValidateFormat(f); err != nil {
			return err
		}
	}

	if o.Direction == "" {
		o.Direction = DefaultDirection
	}
	if o.Direction != layout.DirectionTopDown && o.Direction != layout.DirectionLeftRight {
		return errors.New(errors.ErrCodeInvalidDirection,
			"invalid direction: %q (must be %s or %s)", o.Direction, layout.DirectionTopDown, layout.DirectionLeftRight)
	}

	if o.Spacing <= 0 {
		o.Spacing = layout.DefaultSpacing
	}
	if o.Padding <= 0 {
		o.Padding = layout.DefaultContainerPadding
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}
