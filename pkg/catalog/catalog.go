// Package catalog resolves component keys to shape defaults.
//
// A drop event carries a single string key in the native drag payload under
// [DragMIME]. The catalog maps that key to a component definition: variant
// (container or leaf), default geometry, label and format-relevant property
// defaults. Defaults guarantee every created shape has positive size, large
// enough to host its icon label.
//
// The catalog is a plain value passed to whoever needs it; registration
// happens at construction time, never through ambient global state. The
// built-in set covers common infrastructure kinds and can be extended from a
// TOML manifest (see [LoadManifest]).
package catalog

import (
	"fmt"
	"sort"

	"github.com/hwaldner/cloudcanvas/pkg/shape"
	"github.com/hwaldner/cloudcanvas/pkg/store"
)

// DragMIME is the application-specific key the component id travels under in
// a native drag payload.
const DragMIME = "application/x-cloudcanvas-component"

// Boundary kinds used by the C4 generator to pick a scope macro.
const (
	BoundaryEnterprise = "enterprise"
	BoundarySystem     = "system"
	BoundaryGeneric    = "generic"
)

// Component is one entry in the catalog.
type Component struct {
	Key      string            // catalog id carried in the drag payload
	Label    string            // default display label
	Class    shape.Class       // container or leaf (arrows are not dropped)
	Width    float64           // default width, always positive
	Height   float64           // default height, always positive
	Opacity  float64           // container fill opacity, 0 means opaque
	Boundary string            // C4 boundary kind for containers
	Props    map[string]string // property defaults (cidr, instance_type, ...)
}

// Catalog maps component keys to definitions.
type Catalog struct {
	components map[string]Component
}

// Default returns a catalog seeded with the built-in component set.
func Default() *Catalog {
	c := &Catalog{components: make(map[string]Component)}
	for _, comp := range builtins {
		c.components[comp.Key] = comp
	}
	return c
}

// Default geometry shared by the built-in set.
const (
	defaultContainerW = 400
	defaultContainerH = 300
	defaultLeafW      = 120
	defaultLeafH      = 80
)

var builtins = []Component{
	{Key: "vpc", Label: "VPC", Class: shape.ClassContainer, Width: defaultContainerW, Height: defaultContainerH, Opacity: 0.15, Boundary: BoundaryEnterprise, Props: map[string]string{"cidr": "10.0.0.0/16"}},
	{Key: "subnet", Label: "Subnet", Class: shape.ClassContainer, Width: 300, Height: 200, Opacity: 0.2, Boundary: BoundarySystem, Props: map[string]string{"cidr": "10.0.1.0/24"}},
	{Key: "zone", Label: "Availability Zone", Class: shape.ClassContainer, Width: 350, Height: 250, Opacity: 0.1, Boundary: BoundaryGeneric},
	{Key: "compute", Label: "Compute", Class: shape.ClassLeaf, Width: defaultLeafW, Height: defaultLeafH, Props: map[string]string{"instance_type": "t3.micro"}},
	{Key: "database", Label: "Database", Class: shape.ClassLeaf, Width: defaultLeafW, Height: defaultLeafH, Props: map[string]string{"engine": "postgres"}},
	{Key: "storage", Label: "Object Storage", Class: shape.ClassLeaf, Width: defaultLeafW, Height: defaultLeafH},
	{Key: "queue", Label: "Queue", Class: shape.ClassLeaf, Width: defaultLeafW, Height: defaultLeafH},
	{Key: "function", Label: "Function", Class: shape.ClassLeaf, Width: defaultLeafW, Height: defaultLeafH, Props: map[string]string{"runtime": "go1.x"}},
	{Key: "loadbalancer", Label: "Load Balancer", Class: shape.ClassLeaf, Width: defaultLeafW, Height: defaultLeafH},
	{Key: "cache", Label: "Cache", Class: shape.ClassLeaf, Width: defaultLeafW, Height: defaultLeafH, Props: map[string]string{"engine": "redis"}},
	{Key: "gateway", Label: "API Gateway", Class: shape.ClassLeaf, Width: defaultLeafW, Height: defaultLeafH},
	{Key: "user", Label: "User", Class: shape.ClassLeaf, Width: 100, Height: 100},
}

// Resolve returns the component for key.
func (c *Catalog) Resolve(key string) (Component, bool) {
	comp, ok := c.components[key]
	return comp, ok
}

// Components returns all entries sorted by key for deterministic listings.
func (c *Catalog) Components() []Component {
	out := make([]Component, 0, len(c.components))
	for _, comp := range c.components {
		out = append(out, comp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// add registers or overrides a component after validating its geometry.
func (c *Catalog) add(comp Component) error {
	if comp.Key == "" {
		return fmt.Errorf("component with empty key")
	}
	if comp.Width <= 0 || comp.Height <= 0 {
		return fmt.Errorf("component %q: width and height must be positive", comp.Key)
	}
	if comp.Label == "" {
		comp.Label = comp.Key
	}
	c.components[comp.Key] = comp
	return nil
}

// Drop resolves key against the catalog, converts the screen point to page
// coordinates and creates the shape centered under the cursor. Unknown keys
// are the only error; geometry comes entirely from component defaults.
func (c *Catalog) Drop(s *store.Store, key, pageID string, screen shape.Point) (shape.Shape, error) {
	comp, ok := c.Resolve(key)
	if !ok {
		return shape.Shape{}, fmt.Errorf("unknown component %q", key)
	}
	props := cloneProps(comp.Props)
	if comp.Boundary != "" {
		if props == nil {
			props = make(map[string]string, 1)
		}
		props["boundary"] = comp.Boundary
	}
	at := s.ScreenToPage(screen)
	return s.CreateShape(store.ShapeInit{
		Class:  comp.Class,
		Kind:   comp.Key,
		Label:  comp.Label,
		PageID: pageID,
		Rect: shape.Rect{
			X: at.X - comp.Width/2,
			Y: at.Y - comp.Height/2,
			W: comp.Width,
			H: comp.Height,
		},
		Props: props,
	})
}

func cloneProps(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
