// Package layout implements deterministic hierarchical auto-layout for a
// shape set.
//
// The engine is a pure function over a snapshot of shapes: it never mutates
// the store, it returns position updates for the caller to apply as one
// batch. Parentage is rebuilt from geometry with the same
// smallest-enclosing-container rule the containment resolver uses, so a
// layout run is self-consistent even when stored parent pointers are stale.
//
// Nodes are assigned a level (depth from their forest root) and placed level
// by level: left to right for the top-down direction, top to bottom for
// left-right. Containers with children are then overwritten with the
// bounding box of all their descendants expanded by the container padding.
//
// Levels are placed deepest first. A container's final size is therefore
// known before its own level is walked, and the walk advances by final
// sizes: running the engine on its own output reproduces the same container
// bounding boxes. Dense inputs may still overlap after layout; the engine
// guarantees determinism, not aesthetics.
package layout

import (
	"context"
	"sort"
	"time"

	"github.com/hwaldner/cloudcanvas/pkg/observability"
	"github.com/hwaldner/cloudcanvas/pkg/shape"
)

// Direction selects the layout axis.
type Direction string

const (
	// DirectionTopDown stacks levels vertically, siblings left to right.
	DirectionTopDown Direction = "top-down"
	// DirectionLeftRight stacks levels horizontally, siblings top to bottom.
	DirectionLeftRight Direction = "left-right"
)

// DefaultSpacing is the gap between siblings within a level.
const DefaultSpacing = 40.0

// levelBand is the extra advance between consecutive levels, added to the
// sibling spacing.
const levelBand = 100.0

// Options tunes the layout origin and container padding.
// Zero ContainerPadding uses DefaultContainerPadding.
type Options struct {
	StartX           float64
	StartY           float64
	ContainerPadding float64
}

// DefaultContainerPadding is added on every side when a container is grown
// to enclose its descendants.
const DefaultContainerPadding = 30.0

// Update is one computed position. Resize is set only for containers grown
// to enclose their children; all other shapes keep their size.
type Update struct {
	ID     string
	Rect   shape.Rect
	Resize bool
}

// node is the transient hierarchy node used during a layout run.
type node struct {
	sh       *shape.Shape
	parent   *node
	children []*node
	level    int
	rect     shape.Rect
	grown    bool
}

// Compute lays out shapes and returns updates in level-major order
// (roots first). Arrows are ignored. The input slice is not modified.
func Compute(shapes []shape.Shape, dir Direction, spacing float64, opts Options) []Update {
	start := time.Now()
	ctx := context.Background()
	observability.Layout().OnLayoutStart(ctx, string(dir), len(shapes))

	if spacing <= 0 {
		spacing = DefaultSpacing
	}
	if opts.ContainerPadding <= 0 {
		opts.ContainerPadding = DefaultContainerPadding
	}
	if dir != DirectionLeftRight {
		dir = DirectionTopDown
	}

	forest := buildForest(shapes)
	levels := levelize(forest)

	// Deepest level first: descendants are placed before the containers
	// that will wrap them, so container sizes are final by the time their
	// own level is walked.
	for l := len(levels) - 1; l >= 0; l-- {
		cursor := 0.0
		for _, n := range levels[l] {
			if n.sh.IsContainer() && len(n.children) > 0 {
				// Final rect is the descendant bounding box plus padding.
				n.rect = descendantBounds(n).Expand(opts.ContainerPadding)
				n.grown = true
				cursor += advance(n.rect, dir) + spacing
				continue
			}
			n.rect = n.sh.Rect
			switch dir {
			case DirectionLeftRight:
				n.rect.X = opts.StartX + float64(l)*(spacing+levelBand)
				n.rect.Y = opts.StartY + cursor
			default:
				n.rect.X = opts.StartX + cursor
				n.rect.Y = opts.StartY + float64(l)*(spacing+levelBand)
			}
			cursor += advance(n.rect, dir) + spacing
		}
	}

	var updates []Update
	for _, level := range levels {
		for _, n := range level {
			updates = append(updates, Update{ID: n.sh.ID, Rect: n.rect, Resize: n.grown})
		}
	}

	observability.Layout().OnLayoutComplete(ctx, string(dir), len(updates), time.Since(start))
	return updates
}

// advance returns the extent a node consumes along the sibling axis.
func advance(r shape.Rect, dir Direction) float64 {
	if dir == DirectionLeftRight {
		return r.H
	}
	return r.W
}

// buildForest derives the containment forest from geometry alone.
func buildForest(shapes []shape.Shape) []*node {
	geometric := make([]shape.Shape, 0, len(shapes))
	for i := range shapes {
		if !shapes[i].IsArrow() {
			geometric = append(geometric, shapes[i])
		}
	}

	nodes := make(map[string]*node, len(geometric))
	for i := range geometric {
		nodes[geometric[i].ID] = &node{sh: &geometric[i]}
	}

	var roots []*node
	for i := range geometric {
		n := nodes[geometric[i].ID]
		parentID := shape.EnclosingContainer(&geometric[i], geometric)
		if p, ok := nodes[parentID]; ok && parentID != shape.RootParent {
			n.parent = p
			p.children = append(p.children, n)
		} else {
			roots = append(roots, n)
		}
	}

	sortSiblings(roots)
	for _, n := range nodes {
		sortSiblings(n.children)
	}
	return roots
}

// sortSiblings orders nodes by creation sequence, then ID, so a level walk
// never depends on map iteration order.
func sortSiblings(ns []*node) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].sh.Seq != ns[j].sh.Seq {
			return ns[i].sh.Seq < ns[j].sh.Seq
		}
		return ns[i].sh.ID < ns[j].sh.ID
	})
}

// levelize flattens the forest into per-level slices, roots at level 0.
func levelize(roots []*node) [][]*node {
	var levels [][]*node
	frontier := roots
	for depth := 0; len(frontier) > 0; depth++ {
		var next []*node
		for _, n := range frontier {
			n.level = depth
			next = append(next, n.children...)
		}
		levels = append(levels, frontier)
		frontier = next
	}
	return levels
}

// descendantBounds unions the placed rects of the whole subtree, not just
// direct children.
func descendantBounds(n *node) shape.Rect {
	var placed []shape.Shape
	var walk func(*node)
	walk = func(c *node) {
		for _, child := range c.children {
			placed = append(placed, shape.Shape{Rect: child.rect})
			walk(child)
		}
	}
	walk(n)
	out, _ := shape.BoundingRect(placed)
	return out
}
