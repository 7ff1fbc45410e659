package shape

import "testing"

func container(id string, r Rect, seq int64) Shape {
	return Shape{ID: id, Class: ClassContainer, Rect: r, Seq: seq}
}

func leaf(id string, r Rect) Shape {
	return Shape{ID: id, Class: ClassLeaf, Rect: r}
}

func TestEnclosingContainer(t *testing.T) {
	tests := []struct {
		name   string
		target Shape
		shapes []Shape
		want   string
	}{
		{
			name:   "NoContainers",
			target: leaf("a", Rect{X: 10, Y: 10, W: 20, H: 20}),
			shapes: []Shape{leaf("b", Rect{X: 0, Y: 0, W: 100, H: 100})},
			want:   RootParent,
		},
		{
			name:   "SingleEnclosing",
			target: leaf("compute-1", Rect{X: 50, Y: 50, W: 40, H: 40}),
			shapes: []Shape{container("vpc-1", Rect{X: 0, Y: 0, W: 400, H: 300}, 1)},
			want:   "vpc-1",
		},
		{
			name:   "OutsideAllContainers",
			target: leaf("compute-1", Rect{X: 500, Y: 500, W: 40, H: 40}),
			shapes: []Shape{container("vpc-1", Rect{X: 0, Y: 0, W: 400, H: 300}, 1)},
			want:   RootParent,
		},
		{
			name:   "SmallestAreaWins",
			target: leaf("p", Rect{X: 45, Y: 45, W: 10, H: 10}),
			shapes: []Shape{
				container("a", Rect{X: 0, Y: 0, W: 100, H: 100}, 1),
				container("b", Rect{X: 30, Y: 30, W: 40, H: 40}, 2),
			},
			want: "b",
		},
		{
			name:   "EqualAreaTieBreaksByNewest",
			target: leaf("p", Rect{X: 45, Y: 45, W: 10, H: 10}),
			shapes: []Shape{
				container("old", Rect{X: 0, Y: 0, W: 100, H: 100}, 1),
				container("new", Rect{X: 0, Y: 0, W: 100, H: 100}, 9),
			},
			want: "new",
		},
		{
			name:   "NeverSelfParent",
			target: container("zone", Rect{X: 0, Y: 0, W: 100, H: 100}, 1),
			shapes: []Shape{container("zone", Rect{X: 0, Y: 0, W: 100, H: 100}, 1)},
			want:   RootParent,
		},
		{
			name:   "ContainerNestsInLargerContainer",
			target: container("subnet", Rect{X: 20, Y: 20, W: 50, H: 50}, 2),
			shapes: []Shape{
				container("subnet", Rect{X: 20, Y: 20, W: 50, H: 50}, 2),
				container("vpc", Rect{X: 0, Y: 0, W: 400, H: 300}, 1),
			},
			want: "vpc",
		},
		{
			name:   "ContainerIgnoresEqualAreaPeer",
			target: container("a", Rect{X: 0, Y: 0, W: 100, H: 100}, 1),
			shapes: []Shape{
				container("a", Rect{X: 0, Y: 0, W: 100, H: 100}, 1),
				container("b", Rect{X: 0, Y: 0, W: 100, H: 100}, 2),
			},
			want: RootParent,
		},
		{
			name:   "EdgeCountsAsInside",
			target: leaf("p", Rect{X: -5, Y: -5, W: 10, H: 10}), // center exactly at (0,0)
			shapes: []Shape{container("c", Rect{X: 0, Y: 0, W: 50, H: 50}, 1)},
			want:   "c",
		},
		{
			name:   "DifferentPageExcluded",
			target: Shape{ID: "p", Class: ClassLeaf, PageID: "page-1", Rect: Rect{X: 10, Y: 10, W: 10, H: 10}},
			shapes: []Shape{{ID: "c", Class: ClassContainer, PageID: "page-2", Rect: Rect{X: 0, Y: 0, W: 100, H: 100}, Seq: 1}},
			want:   RootParent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EnclosingContainer(&tt.target, tt.shapes); got != tt.want {
				t.Errorf("EnclosingContainer() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEnclosingContainerDeterministic(t *testing.T) {
	target := leaf("p", Rect{X: 45, Y: 45, W: 10, H: 10})
	forward := []Shape{
		container("a", Rect{X: 0, Y: 0, W: 100, H: 100}, 1),
		container("b", Rect{X: 0, Y: 0, W: 100, H: 100}, 2),
	}
	reversed := []Shape{forward[1], forward[0]}

	for i := 0; i < 50; i++ {
		if got := EnclosingContainer(&target, forward); got != "b" {
			t.Fatalf("forward order run %d: got %q, want b", i, got)
		}
		if got := EnclosingContainer(&target, reversed); got != "b" {
			t.Fatalf("reversed order run %d: got %q, want b", i, got)
		}
	}
}

func TestBoundingRect(t *testing.T) {
	tests := []struct {
		name   string
		shapes []Shape
		want   Rect
		wantOK bool
	}{
		{
			name:   "Empty",
			shapes: nil,
			wantOK: false,
		},
		{
			name:   "ArrowsOnly",
			shapes: []Shape{{ID: "e", Class: ClassArrow}},
			wantOK: false,
		},
		{
			name: "TwoShapes",
			shapes: []Shape{
				leaf("a", Rect{X: 0, Y: 0, W: 10, H: 10}),
				leaf("b", Rect{X: 40, Y: 20, W: 10, H: 10}),
			},
			want:   Rect{X: 0, Y: 0, W: 50, H: 30},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BoundingRect(tt.shapes)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("BoundingRect() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRectHelpers(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 40, H: 60}

	if c := r.Center(); c.X != 30 || c.Y != 50 {
		t.Errorf("Center() = %+v, want (30, 50)", c)
	}
	if a := r.Area(); a != 2400 {
		t.Errorf("Area() = %v, want 2400", a)
	}
	if got := r.Expand(5); got != (Rect{X: 5, Y: 15, W: 50, H: 70}) {
		t.Errorf("Expand(5) = %+v", got)
	}
	if !r.Contains(Point{X: 10, Y: 20}) {
		t.Error("Contains(top-left corner) = false, want true")
	}
	if r.Contains(Point{X: 9.9, Y: 20}) {
		t.Error("Contains(outside) = true, want false")
	}
}
