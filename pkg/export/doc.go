// Package export generates textual diagram representations from the
// canonical model.
//
// # Architecture
//
// Every generator is a pure function from [canonical.Diagram] to text. The
// package keeps a registry keyed by format id; [Generate] looks up the
// generator, runs it, and wraps the output with its file extension:
//
//	mermaid-c4           → C4Context with nested boundary scopes
//	mermaid-architecture → architecture-beta with groups and services
//	mermaid-flowchart    → flowchart TD, containers flattened
//	json                 → the canonical diagram itself (lossless)
//	terraform            → best-effort HCL resource skeleton
//	dot                  → Graphviz digraph with container clusters
//	svg                  → the dot output rendered through Graphviz
//
// Generators never mutate the diagram, so a failed export is always safely
// retryable. An unknown format id is the only lookup error; generator
// failures surface as generation errors with the format id attached.
//
// # Usage
//
//	d := canonical.Build(st.Shapes(""), export.FormatMermaidC4, logger)
//	art, err := export.Generate(ctx, d, export.FormatMermaidC4)
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("diagram"+art.Extension, art.Content, 0o644)
package export
