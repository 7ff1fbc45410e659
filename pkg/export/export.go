package export

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/hwaldner/cloudcanvas/pkg/canonical"
	"github.com/hwaldner/cloudcanvas/pkg/errors"
	"github.com/hwaldner/cloudcanvas/pkg/observability"
)

// Format constants for output formats.
const (
	FormatMermaidC4           = "mermaid-c4"
	FormatMermaidArchitecture = "mermaid-architecture"
	FormatMermaidFlowchart    = "mermaid-flowchart"
	FormatJSON                = "json"
	FormatTerraform           = "terraform"
	FormatDOT                 = "dot"
	FormatSVG                 = "svg"
)

// Artifact is the output of one format generator.
type Artifact struct {
	// Content is the generated text.
	Content []byte

	// Extension is the suggested file extension, including the dot.
	Extension string
}

// generator produces output bytes from a canonical diagram. Generators
// never mutate the diagram and never touch the store; the context matters
// only to the svg generator, which runs Graphviz.
type generator struct {
	generate  func(ctx context.Context, d *canonical.Diagram) ([]byte, error)
	extension string
}

var generators = map[string]generator{
	FormatMermaidC4:           {generateMermaidC4, ".mmd"},
	FormatMermaidArchitecture: {generateMermaidArchitecture, ".mmd"},
	FormatMermaidFlowchart:    {generateMermaidFlowchart, ".mmd"},
	FormatJSON:                {generateJSON, ".json"},
	FormatTerraform:           {generateTerraform, ".tf"},
	FormatDOT:                 {generateDOT, ".dot"},
	FormatSVG:                 {generateSVG, ".svg"},
}

// Formats returns all registered format ids in sorted order.
func Formats() []string {
	out := make([]string, 0, len(generators))
	for id := range generators {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ExtensionFor returns the file extension for a format id, including the
// dot. Unknown ids fail with an unsupported-format error.
func ExtensionFor(format string) (string, error) {
	gen, ok := generators[format]
	if !ok {
		return "", errors.New(errors.ErrCodeUnsupportedFormat,
			"unsupported format: %q (must be one of: %s)", format, strings.Join(Formats(), ", "))
	}
	return gen.extension, nil
}

// ValidateFormat checks that a format id is registered.
func ValidateFormat(format string) error {
	if _, ok := generators[format]; !ok {
		return errors.New(errors.ErrCodeUnsupportedFormat,
			"unsupported format: %q (must be one of: %s)", format, strings.Join(Formats(), ", "))
	}
	return nil
}

// Generate runs the generator registered for the given format id.
// Unknown ids fail with an unsupported-format error naming the id; a
// failure inside a generator surfaces as a generation error and produces
// no partial artifact.
func Generate(ctx context.Context, d canonical.Diagram, format string) (Artifact, error) {
	gen, ok := generators[format]
	if !ok {
		return Artifact{}, errors.New(errors.ErrCodeUnsupportedFormat,
			"unsupported format: %q (must be one of: %s)", format, strings.Join(Formats(), ", "))
	}

	hooks := observability.Export()
	hooks.OnGenerateStart(ctx, format, len(d.Items))

	start := time.Now()
	content, err := gen.generate(ctx, &d)
	hooks.OnGenerateComplete(ctx, format, len(content), time.Since(start), err)
	if err != nil {
		return Artifact{}, errors.Wrap(errors.ErrCodeGeneration, err, "generate %s", format)
	}

	return Artifact{Content: content, Extension: gen.extension}, nil
}

// sanitizeID turns a shape id into an identifier safe for Mermaid, DOT, and
// HCL output. Non-alphanumeric runes become underscores and a leading digit
// gets an underscore prefix.
func sanitizeID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" {
		return "_"
	}
	if out[0] >= '0' && out[0] <= '9' {
		return "_" + out
	}
	return out
}

// escapeLabel strips characters that terminate quoted strings in the text
// formats we emit.
func escapeLabel(label string) string {
	label = strings.ReplaceAll(label, `"`, `'`)
	label = strings.ReplaceAll(label, "\n", " ")
	return label
}
