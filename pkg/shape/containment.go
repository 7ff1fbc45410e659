package shape

// =============================================================================
// Geometric Containment
//
// The single containment primitive shared by the containment resolver and the
// hierarchical layout engine. Both derive parentage from geometry, never from
// z-order or stored parent pointers, so the two stay mutually consistent.
// =============================================================================

// EnclosingContainer returns the ID of the container that should own target,
// or RootParent if no container encloses it.
//
// The winner is the smallest-area container whose rectangle contains the
// target's center point. The target itself is never a candidate, so a
// container cannot become its own parent. When the target is itself a
// container, candidates with equal or smaller area are excluded as well:
// two overlapping equal-area containers would otherwise each claim the
// other and form a cycle.
//
// Ties between distinct candidates of equal area are broken by creation
// order: the most recently created container (highest Seq) wins. This keeps
// reparenting deterministic regardless of slice order.
func EnclosingContainer(target *Shape, shapes []Shape) string {
	center := target.Rect.Center()
	best := RootParent
	var bestArea float64
	var bestSeq int64

	for i := range shapes {
		c := &shapes[i]
		if !c.IsContainer() || c.ID == target.ID {
			continue
		}
		if c.PageID != target.PageID {
			continue
		}
		if !c.Rect.Contains(center) {
			continue
		}
		area := c.Rect.Area()
		if target.IsContainer() && area <= target.Rect.Area() {
			continue
		}
		switch {
		case best == RootParent, area < bestArea:
			best, bestArea, bestSeq = c.ID, area, c.Seq
		case area == bestArea && c.Seq > bestSeq:
			best, bestSeq = c.ID, c.Seq
		}
	}
	return best
}

// BoundingRect returns the union of all shape rectangles in shapes, skipping
// arrows. The second return is false when no geometric shapes are present.
func BoundingRect(shapes []Shape) (Rect, bool) {
	var out Rect
	found := false
	for i := range shapes {
		if shapes[i].IsArrow() {
			continue
		}
		if !found {
			out, found = shapes[i].Rect, true
			continue
		}
		out = out.Union(shapes[i].Rect)
	}
	return out, found
}
