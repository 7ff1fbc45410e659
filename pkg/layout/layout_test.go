package layout

import (
	"testing"

	"github.com/hwaldner/cloudcanvas/pkg/shape"
	"github.com/hwaldner/cloudcanvas/pkg/store"
)

func byID(updates []Update) map[string]Update {
	out := make(map[string]Update, len(updates))
	for _, u := range updates {
		out[u.ID] = u
	}
	return out
}

func TestComputeContainerGrowsAroundChildren(t *testing.T) {
	shapes := []shape.Shape{
		{ID: "vpc", Class: shape.ClassContainer, Rect: shape.Rect{X: 0, Y: 0, W: 400, H: 300}, Seq: 1},
		{ID: "a", Class: shape.ClassLeaf, Rect: shape.Rect{X: 10, Y: 10, W: 80, H: 60}, Seq: 2},
		{ID: "b", Class: shape.ClassLeaf, Rect: shape.Rect{X: 120, Y: 10, W: 80, H: 60}, Seq: 3},
	}

	updates := Compute(shapes, DirectionTopDown, 40, Options{ContainerPadding: 30})
	got := byID(updates)

	vpc, ok := got["vpc"]
	if !ok || !vpc.Resize {
		t.Fatalf("vpc update = %+v, want resized container", vpc)
	}

	a, b := got["a"], got["b"]
	// Children are at level 1; siblings advance by width plus spacing.
	if a.Rect.Y != b.Rect.Y {
		t.Errorf("siblings at different y: %v vs %v", a.Rect.Y, b.Rect.Y)
	}
	if want := a.Rect.X + a.Rect.W + 40; b.Rect.X != want {
		t.Errorf("b.X = %v, want %v", b.Rect.X, want)
	}

	// Container bounds = child bbox expanded by padding on every side.
	bbox := a.Rect.Union(b.Rect).Expand(30)
	if vpc.Rect != bbox {
		t.Errorf("vpc rect = %+v, want %+v", vpc.Rect, bbox)
	}
}

func TestComputeEmptyContainerKeepsSize(t *testing.T) {
	shapes := []shape.Shape{
		{ID: "zone", Class: shape.ClassContainer, Rect: shape.Rect{X: 77, Y: 88, W: 350, H: 250}, Seq: 1},
	}

	updates := Compute(shapes, DirectionTopDown, 40, Options{})
	if len(updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(updates))
	}
	u := updates[0]
	if u.Resize {
		t.Error("childless container was resized")
	}
	if u.Rect.W != 350 || u.Rect.H != 250 {
		t.Errorf("size = %vx%v, want 350x250", u.Rect.W, u.Rect.H)
	}
}

func TestComputeLevelMajorOrder(t *testing.T) {
	shapes := []shape.Shape{
		{ID: "vpc", Class: shape.ClassContainer, Rect: shape.Rect{X: 0, Y: 0, W: 400, H: 300}, Seq: 1},
		{ID: "leaf", Class: shape.ClassLeaf, Rect: shape.Rect{X: 10, Y: 10, W: 80, H: 60}, Seq: 2},
		{ID: "lone", Class: shape.ClassLeaf, Rect: shape.Rect{X: 900, Y: 900, W: 80, H: 60}, Seq: 3},
	}

	updates := Compute(shapes, DirectionTopDown, 40, Options{})
	if len(updates) != 3 {
		t.Fatalf("updates = %d, want 3", len(updates))
	}
	// Level 0 (vpc, lone) precedes level 1 (leaf).
	if updates[0].ID != "vpc" || updates[1].ID != "lone" || updates[2].ID != "leaf" {
		t.Errorf("order = [%s %s %s], want [vpc lone leaf]", updates[0].ID, updates[1].ID, updates[2].ID)
	}
}

func TestComputeIgnoresStoredParentage(t *testing.T) {
	// Stored parent says "vpc" but geometry says page root.
	shapes := []shape.Shape{
		{ID: "vpc", Class: shape.ClassContainer, Rect: shape.Rect{X: 0, Y: 0, W: 100, H: 100}, Seq: 1},
		{ID: "stray", Class: shape.ClassLeaf, Parent: "vpc", Rect: shape.Rect{X: 900, Y: 900, W: 80, H: 60}, Seq: 2},
	}

	updates := Compute(shapes, DirectionTopDown, 40, Options{})
	got := byID(updates)

	if got["vpc"].Resize {
		t.Error("vpc resized despite geometrically empty")
	}
	// Both are level-0 roots, so they share the level-0 row.
	if got["vpc"].Rect.Y != got["stray"].Rect.Y {
		t.Error("stray not laid out as a root")
	}
}

func TestComputeLeftRight(t *testing.T) {
	shapes := []shape.Shape{
		{ID: "a", Class: shape.ClassLeaf, Rect: shape.Rect{W: 80, H: 60}, Seq: 1},
		{ID: "b", Class: shape.ClassLeaf, Rect: shape.Rect{W: 80, H: 60}, Seq: 2},
	}

	updates := Compute(shapes, DirectionLeftRight, 40, Options{StartX: 10, StartY: 20})
	got := byID(updates)

	if got["a"].Rect.X != got["b"].Rect.X {
		t.Errorf("level-0 roots at different x: %v vs %v", got["a"].Rect.X, got["b"].Rect.X)
	}
	if want := got["a"].Rect.Y + 60 + 40; got["b"].Rect.Y != want {
		t.Errorf("b.Y = %v, want %v", got["b"].Rect.Y, want)
	}
}

func TestComputeIdempotentOnOwnOutput(t *testing.T) {
	shapes := []shape.Shape{
		{ID: "vpc", Class: shape.ClassContainer, Rect: shape.Rect{X: 0, Y: 0, W: 400, H: 300}, Seq: 1},
		{ID: "subnet", Class: shape.ClassContainer, Rect: shape.Rect{X: 10, Y: 10, W: 200, H: 150}, Seq: 2},
		{ID: "a", Class: shape.ClassLeaf, Rect: shape.Rect{X: 20, Y: 20, W: 80, H: 60}, Seq: 3},
		{ID: "b", Class: shape.ClassLeaf, Rect: shape.Rect{X: 15, Y: 160, W: 80, H: 60}, Seq: 4},
		{ID: "lone", Class: shape.ClassLeaf, Rect: shape.Rect{X: 900, Y: 900, W: 80, H: 60}, Seq: 5},
	}

	opts := Options{StartX: 50, StartY: 50, ContainerPadding: 30}
	first := Compute(shapes, DirectionTopDown, 40, opts)

	// Apply the first run, then lay out again.
	applied := make([]shape.Shape, len(shapes))
	copy(applied, shapes)
	for _, u := range first {
		for i := range applied {
			if applied[i].ID == u.ID {
				if u.Resize {
					applied[i].Rect = u.Rect
				} else {
					applied[i].Rect.X, applied[i].Rect.Y = u.Rect.X, u.Rect.Y
				}
			}
		}
	}
	second := Compute(applied, DirectionTopDown, 40, opts)

	firstByID, secondByID := byID(first), byID(second)
	for id, f := range firstByID {
		s := secondByID[id]
		if f.Resize {
			if s.Rect != f.Rect {
				t.Errorf("%s: container bounds changed between runs: %+v vs %+v", id, f.Rect, s.Rect)
			}
		}
	}
}

func TestApplyBatchesUpdates(t *testing.T) {
	st := store.New()
	st.CreateShape(store.ShapeInit{ID: "vpc", Class: shape.ClassContainer, Kind: "vpc", Rect: shape.Rect{W: 400, H: 300}})
	st.CreateShape(store.ShapeInit{ID: "a", Class: shape.ClassLeaf, Kind: "compute", Rect: shape.Rect{X: 10, Y: 10, W: 80, H: 60}})

	events := 0
	unsub := st.Listen(store.Filter{Source: store.SourceUser, Scope: store.ScopeDocument}, func(store.Event) { events++ })
	defer unsub()

	Apply(st, Compute(st.Shapes(""), DirectionTopDown, 40, Options{}))

	if events != 1 {
		t.Errorf("events = %d, want 1 batched apply", events)
	}
}
