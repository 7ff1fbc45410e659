// Package canonical converts the live shape/arrow graph into a stable,
// serializable diagram model.
//
// The canonical diagram is the format-agnostic projection every format
// generator consumes: items plus connections plus export metadata, decoupled
// from the store's internal representation. Canonicalization trusts the
// store's current parentage (unlike layout, which recomputes containment
// from geometry) and never fails: missing or malformed shape properties
// degrade to defaults, and arrows with an unresolved endpoint are omitted
// with a logged count.
//
// Diagrams are value objects rebuilt fresh on every export from a
// point-in-time snapshot of the store.
package canonical

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hwaldner/cloudcanvas/pkg/observability"
	"github.com/hwaldner/cloudcanvas/pkg/shape"
)

// Version is stamped into every canonical diagram.
const Version = "1.0.0"

// Metadata records when, for which format, and under which model version a
// diagram was exported.
type Metadata struct {
	ExportedAt time.Time `json:"exported_at"`
	Format     string    `json:"format"`
	Version    string    `json:"version"`
}

// Item is the serializable projection of a non-arrow shape.
type Item struct {
	ID            string            `json:"id"`
	Key           string            `json:"key"` // component kind, e.g. "vpc"
	Label         string            `json:"label"`
	X             float64           `json:"x"`
	Y             float64           `json:"y"`
	W             float64           `json:"w"`
	H             float64           `json:"h"`
	Props         map[string]string `json:"props,omitempty"`
	IsBoundingBox bool              `json:"is_bounding_box"`
	ParentID      string            `json:"parent_id,omitempty"`
	Children      []string          `json:"children,omitempty"`
}

// Connection is a resolved arrow. Storage is undirected; From → To carries
// the semantic direction.
type Connection struct {
	ID    string            `json:"id"`
	From  string            `json:"from"`
	To    string            `json:"to"`
	Label string            `json:"label,omitempty"`
	Props map[string]string `json:"props,omitempty"`
}

// Diagram is the canonical, host-independent diagram model.
type Diagram struct {
	Items       []Item       `json:"items"`
	Connections []Connection `json:"connections"`
	Metadata    Metadata     `json:"metadata"`
}

// Item returns the item with the given ID, or nil.
func (d *Diagram) Item(id string) *Item {
	for i := range d.Items {
		if d.Items[i].ID == id {
			return &d.Items[i]
		}
	}
	return nil
}

// Roots returns the IDs of items parented to the page, in item order.
func (d *Diagram) Roots() []string {
	var out []string
	for i := range d.Items {
		if d.Items[i].ParentID == "" {
			out = append(out, d.Items[i].ID)
		}
	}
	return out
}

// Build canonicalizes a shape snapshot for the named format. Items keep the
// input z-order, so output is deterministic for a fixed snapshot. A nil
// logger falls back to the package default.
func Build(shapes []shape.Shape, format string, logger *log.Logger) Diagram {
	if logger == nil {
		logger = log.Default()
	}

	present := make(map[string]bool, len(shapes))
	for i := range shapes {
		if !shapes[i].IsArrow() {
			present[shapes[i].ID] = true
		}
	}

	d := Diagram{
		Metadata: Metadata{ExportedAt: time.Now().UTC(), Format: format, Version: Version},
	}

	children := make(map[string][]string)
	for i := range shapes {
		sh := &shapes[i]
		if sh.IsArrow() {
			continue
		}
		parent := sh.Parent
		if parent != shape.RootParent && !present[parent] {
			// Dangling parent pointer: degrade to the page root.
			parent = shape.RootParent
		}
		item := Item{
			ID:            sh.ID,
			Key:           sh.Kind,
			Label:         sh.DisplayLabel(),
			X:             sh.Rect.X,
			Y:             sh.Rect.Y,
			W:             sh.Rect.W,
			H:             sh.Rect.H,
			Props:         sh.Props,
			IsBoundingBox: sh.IsContainer(),
			ParentID:      parent,
		}
		d.Items = append(d.Items, item)
		if parent != shape.RootParent {
			children[parent] = append(children[parent], sh.ID)
		}
	}
	for i := range d.Items {
		d.Items[i].Children = children[d.Items[i].ID]
	}

	detached := 0
	for i := range shapes {
		sh := &shapes[i]
		if !sh.IsArrow() {
			continue
		}
		if !present[sh.From] || !present[sh.To] {
			detached++
			continue
		}
		d.Connections = append(d.Connections, Connection{
			ID:    sh.ID,
			From:  sh.From,
			To:    sh.To,
			Label: sh.Label,
			Props: sh.Props,
		})
	}
	if detached > 0 {
		logger.Info("omitted detached arrows", "count", detached)
	}

	observability.Export().OnCanonicalize(context.Background(), len(d.Items), len(d.Connections), detached)
	return d
}

// Marshal encodes the diagram as indented JSON. This is the only lossless
// round-trip representation of the model.
func Marshal(d Diagram) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Unmarshal decodes a diagram previously produced by Marshal.
func Unmarshal(data []byte) (Diagram, error) {
	var d Diagram
	err := json.Unmarshal(data, &d)
	return d, err
}
