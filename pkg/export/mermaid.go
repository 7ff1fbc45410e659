package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/hwaldner/cloudcanvas/pkg/canonical"
	"github.com/hwaldner/cloudcanvas/pkg/catalog"
)

// =============================================================================
// Mermaid C4
// =============================================================================

// generateMermaidC4 renders the diagram as a Mermaid C4Context block.
// Containers become boundary scopes picked by their boundary kind, leaves
// become System(...) declarations, and connections become Rel(...) lines.
func generateMermaidC4(_ context.Context, d *canonical.Diagram) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("C4Context\n")

	for _, id := range d.Roots() {
		writeC4Item(&buf, d, id, 1)
	}

	for _, c := range d.Connections {
		from := d.Item(c.From)
		to := d.Item(c.To)
		if from == nil || to == nil {
			continue
		}
		fmt.Fprintf(&buf, "    Rel(%s, %s, \"%s\")\n",
			sanitizeID(from.ID), sanitizeID(to.ID), escapeLabel(c.Label))
	}

	return buf.Bytes(), nil
}

func writeC4Item(buf *bytes.Buffer, d *canonical.Diagram, id string, depth int) {
	item := d.Item(id)
	if item == nil {
		return
	}
	indent := strings.Repeat("    ", depth)

	if !item.IsBoundingBox {
		fmt.Fprintf(buf, "%sSystem(%s, \"%s\", \"%s\")\n",
			indent, sanitizeID(item.ID), escapeLabel(item.Label), escapeLabel(item.Key))
		return
	}

	switch item.Props["boundary"] {
	case catalog.BoundaryEnterprise:
		fmt.Fprintf(buf, "%sEnterprise_Boundary(%s, \"%s\") {\n",
			indent, sanitizeID(item.ID), escapeLabel(item.Label))
	case catalog.BoundarySystem:
		fmt.Fprintf(buf, "%sSystem_Boundary(%s, \"%s\") {\n",
			indent, sanitizeID(item.ID), escapeLabel(item.Label))
	default:
		fmt.Fprintf(buf, "%sBoundary(%s, \"%s\", \"%s\") {\n",
			indent, sanitizeID(item.ID), escapeLabel(item.Label), escapeLabel(item.Key))
	}

	for _, child := range item.Children {
		writeC4Item(buf, d, child, depth+1)
	}

	fmt.Fprintf(buf, "%s}\n", indent)
}

// =============================================================================
// Mermaid architecture-beta
// =============================================================================

// architectureIcons maps component kinds to architecture-beta icon names.
// Unknown kinds fall back to "server".
var architectureIcons = map[string]string{
	"vpc":          "cloud",
	"subnet":       "cloud",
	"zone":         "cloud",
	"compute":      "server",
	"database":     "database",
	"storage":      "disk",
	"cache":        "database",
	"gateway":      "internet",
	"loadbalancer": "internet",
	"user":         "internet",
}

func architectureIcon(kind string) string {
	if icon, ok := architectureIcons[kind]; ok {
		return icon
	}
	return "server"
}

// generateMermaidArchitecture renders the diagram as a Mermaid
// architecture-beta block: one group per container, one service per leaf,
// edges as plain arrows.
func generateMermaidArchitecture(_ context.Context, d *canonical.Diagram) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("architecture-beta\n")

	for i := range d.Items {
		item := &d.Items[i]
		kw := "service"
		if item.IsBoundingBox {
			kw = "group"
		}
		fmt.Fprintf(&buf, "    %s %s(%s)[%s]", kw, sanitizeID(item.ID),
			architectureIcon(item.Key), escapeLabel(item.Label))
		if item.ParentID != "" {
			fmt.Fprintf(&buf, " in %s", sanitizeID(item.ParentID))
		}
		buf.WriteString("\n")
	}

	for _, c := range d.Connections {
		fmt.Fprintf(&buf, "    %s --> %s\n", sanitizeID(c.From), sanitizeID(c.To))
	}

	return buf.Bytes(), nil
}

// =============================================================================
// Mermaid flowchart
// =============================================================================

// generateMermaidFlowchart renders the diagram as a plain flowchart. This is
// the compatibility fallback: containers are flattened to ordinary nodes
// because flowcharts have no native nesting.
func generateMermaidFlowchart(_ context.Context, d *canonical.Diagram) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("flowchart TD\n")

	for i := range d.Items {
		item := &d.Items[i]
		fmt.Fprintf(&buf, "    %s[\"%s\"]\n", sanitizeID(item.ID), escapeLabel(item.Label))
	}

	for _, c := range d.Connections {
		if c.Label != "" {
			fmt.Fprintf(&buf, "    %s -->|%s| %s\n",
				sanitizeID(c.From), escapeLabel(c.Label), sanitizeID(c.To))
			continue
		}
		fmt.Fprintf(&buf, "    %s --> %s\n", sanitizeID(c.From), sanitizeID(c.To))
	}

	return buf.Bytes(), nil
}
