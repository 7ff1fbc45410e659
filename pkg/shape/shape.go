// Package shape defines the canvas shape model shared by the store, the
// containment resolver, the layout engine and the export pipeline.
//
// A shape is one of three variants (see [Class]): a leaf component, a
// container boundary that can own children, or an arrow connecting two other
// shapes. The host canvas this model was designed against type-erases
// per-shape properties; here every variant carries only its own fields and
// conversion happens once at the store boundary.
//
// Geometry is axis-aligned. (X, Y) is the top-left corner in a single global
// page coordinate space.
package shape

// =============================================================================
// Constants
// =============================================================================

// RootParent is the parent ID sentinel for shapes parented directly to the
// page. ParentID chains always terminate at RootParent.
const RootParent = ""

// Class distinguishes the three shape variants.
type Class int

const (
	// ClassLeaf is a regular component shape (compute node, database, queue).
	ClassLeaf Class = iota
	// ClassContainer is a boundary shape (network, zone) that can own children.
	ClassContainer
	// ClassArrow is a connector between two other shapes. Arrows carry
	// endpoint bindings instead of meaningful geometry.
	ClassArrow
)

// String returns the lower-case variant name.
func (c Class) String() string {
	switch c {
	case ClassContainer:
		return "container"
	case ClassArrow:
		return "arrow"
	default:
		return "leaf"
	}
}

// =============================================================================
// Shape
// =============================================================================

// Shape is a single element on the canvas.
//
// The zero value is not usable: ID must be unique within a page and W, H must
// be positive for leaf and container shapes. The store assigns Seq on
// creation; it orders z-stacking and breaks equal-area containment ties.
type Shape struct {
	ID     string  `json:"id"`
	Class  Class   `json:"class"`
	Kind   string  `json:"kind,omitempty"` // catalog component kind, e.g. "vpc", "compute"
	Label  string  `json:"label,omitempty"`
	PageID string  `json:"page_id,omitempty"`
	Rect   Rect    `json:"rect"`
	Parent string  `json:"parent,omitempty"` // RootParent when parented to the page
	Opacity float64 `json:"opacity,omitempty"`

	// Props carries format-relevant component fields (CIDR block, instance
	// type, engine, ...). Missing keys degrade to defaults, never errors.
	Props map[string]string `json:"props,omitempty"`

	// From and To are endpoint bindings, set only for ClassArrow. An empty
	// binding means the endpoint is detached.
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	// Seq is the store-assigned creation sequence. Higher values stack in
	// front of lower ones within the same parent.
	Seq int64 `json:"seq,omitempty"`
}

// IsContainer reports whether the shape can own children.
func (s *Shape) IsContainer() bool { return s.Class == ClassContainer }

// IsArrow reports whether the shape is a connector.
func (s *Shape) IsArrow() bool { return s.Class == ClassArrow }

// DisplayLabel returns the label if set, otherwise the kind, otherwise the ID.
func (s *Shape) DisplayLabel() string {
	if s.Label != "" {
		return s.Label
	}
	if s.Kind != "" {
		return s.Kind
	}
	return s.ID
}

// Prop returns the property value for key, or fallback when absent.
func (s *Shape) Prop(key, fallback string) string {
	if v, ok := s.Props[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Clone returns a deep copy of the shape. Props are copied so callers can
// mutate the clone without aliasing store state.
func (s *Shape) Clone() Shape {
	out := *s
	if s.Props != nil {
		out.Props = make(map[string]string, len(s.Props))
		for k, v := range s.Props {
			out.Props[k] = v
		}
	}
	return out
}
