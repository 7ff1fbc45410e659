// Package pkg provides the core libraries for CloudCanvas diagram tooling.
//
// # Overview
//
// CloudCanvas turns 2-D infrastructure diagrams into code. The pkg directory
// is organized into four main areas:
//
//  1. Document model - [shape], [store], [catalog] (shapes, events, snapshots)
//  2. Geometry - [containment], [layout] (reparenting, hierarchical layout)
//  3. Generation - [canonical], [export], [pipeline] (diagram code output)
//  4. Infrastructure - [cache], [share], [urlstate], [errors], [observability]
//
// # Architecture
//
// The typical data flow through CloudCanvas:
//
//	Snapshot (file, URL token, or share)
//	         ↓
//	    [containment] package (resolve parents by geometry)
//	         ↓
//	    [layout] package (arrange children, grow containers)
//	         ↓
//	    [canonical] package (stable intermediate representation)
//	         ↓
//	    [export] package (mermaid / terraform / json / dot)
//
// # Quick Start
//
//	st := store.New()
//	st.LoadSnapshot(snap)
//
//	runner := pipeline.NewRunner(cache.NewMemoryCache(), nil, logger)
//	result, err := runner.Execute(ctx, st, pipeline.Options{
//		Resolve: true,
//		Layout:  true,
//		Formats: []string{export.FormatMermaidC4},
//	})
//
// Individual packages document their own details; this file only maps the
// territory.
package pkg
