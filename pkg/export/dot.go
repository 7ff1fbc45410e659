package export

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/hwaldner/cloudcanvas/pkg/canonical"
)

// generateDOT converts the diagram to Graphviz DOT format. Containers
// become subgraph clusters so the containment tree survives into layouts
// rendered with [RenderSVG].
func generateDOT(_ context.Context, d *canonical.Diagram) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("\n")

	for _, id := range d.Roots() {
		writeDOTItem(&buf, d, id, 1)
	}

	buf.WriteString("\n")
	for _, c := range d.Connections {
		if c.Label != "" {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", sanitizeID(c.From), sanitizeID(c.To), c.Label)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", sanitizeID(c.From), sanitizeID(c.To))
	}

	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func writeDOTItem(buf *bytes.Buffer, d *canonical.Diagram, id string, depth int) {
	item := d.Item(id)
	if item == nil {
		return
	}
	indent := strings.Repeat("  ", depth)

	if !item.IsBoundingBox {
		fmt.Fprintf(buf, "%s%q [label=%q];\n", indent, sanitizeID(item.ID), item.Label)
		return
	}

	fmt.Fprintf(buf, "%ssubgraph cluster_%s {\n", indent, sanitizeID(item.ID))
	fmt.Fprintf(buf, "%s  label=%q;\n", indent, item.Label)
	fmt.Fprintf(buf, "%s  style=\"rounded,dashed\";\n", indent)
	for _, child := range item.Children {
		writeDOTItem(buf, d, child, depth+1)
	}
	fmt.Fprintf(buf, "%s}\n", indent)
}

// generateSVG renders the diagram's DOT form through Graphviz. It is the
// image counterpart of the text formats and shares their registry entry
// semantics.
func generateSVG(ctx context.Context, d *canonical.Diagram) ([]byte, error) {
	dot, err := generateDOT(ctx, d)
	if err != nil {
		return nil, err
	}
	return RenderSVG(ctx, dot)
}

// RenderSVG renders a DOT artifact to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot []byte) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes(dot)
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the outer svg tag so the viewBox starts at the
// origin and the pixel size matches it. Graphviz emits pt-based sizes that
// scale inconsistently across hosts.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
