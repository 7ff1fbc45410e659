package canonical

import (
	"reflect"
	"testing"

	"github.com/hwaldner/cloudcanvas/pkg/shape"
)

func sampleShapes() []shape.Shape {
	return []shape.Shape{
		{ID: "vpc", Class: shape.ClassContainer, Kind: "vpc", Label: "Prod VPC", Rect: shape.Rect{W: 400, H: 300}, Props: map[string]string{"cidr": "10.0.0.0/16"}, Seq: 1},
		{ID: "web", Class: shape.ClassLeaf, Kind: "compute", Label: "Web", Parent: "vpc", Rect: shape.Rect{X: 40, Y: 40, W: 80, H: 60}, Seq: 2},
		{ID: "db", Class: shape.ClassLeaf, Kind: "database", Label: "DB", Parent: "vpc", Rect: shape.Rect{X: 200, Y: 40, W: 80, H: 60}, Seq: 3},
		{ID: "edge", Class: shape.ClassArrow, Label: "queries", From: "web", To: "db", Seq: 4},
	}
}

func TestBuild(t *testing.T) {
	d := Build(sampleShapes(), "json", nil)

	if len(d.Items) != 3 {
		t.Fatalf("items = %d, want 3 (arrow excluded)", len(d.Items))
	}
	if len(d.Connections) != 1 {
		t.Fatalf("connections = %d, want 1", len(d.Connections))
	}

	vpc := d.Item("vpc")
	if vpc == nil || !vpc.IsBoundingBox {
		t.Fatalf("vpc item = %+v, want bounding box", vpc)
	}
	if !reflect.DeepEqual(vpc.Children, []string{"web", "db"}) {
		t.Errorf("vpc children = %v, want [web db]", vpc.Children)
	}

	web := d.Item("web")
	if web.ParentID != "vpc" {
		t.Errorf("web parent = %q, want vpc", web.ParentID)
	}

	conn := d.Connections[0]
	if conn.From != "web" || conn.To != "db" || conn.Label != "queries" {
		t.Errorf("connection = %+v", conn)
	}

	if d.Metadata.Format != "json" || d.Metadata.Version != Version {
		t.Errorf("metadata = %+v", d.Metadata)
	}
	if d.Metadata.ExportedAt.IsZero() {
		t.Error("ExportedAt not stamped")
	}
}

func TestBuildOmitsDetachedArrows(t *testing.T) {
	shapes := sampleShapes()
	shapes = append(shapes,
		shape.Shape{ID: "dangling1", Class: shape.ClassArrow, From: "web", To: "gone"},
		shape.Shape{ID: "dangling2", Class: shape.ClassArrow, From: "", To: "db"},
	)

	d := Build(shapes, "json", nil)

	if len(d.Connections) != 1 {
		t.Errorf("connections = %d, want 1 (detached omitted, not errored)", len(d.Connections))
	}
}

func TestBuildClearsDanglingParent(t *testing.T) {
	shapes := []shape.Shape{
		{ID: "orphan", Class: shape.ClassLeaf, Kind: "compute", Parent: "deleted-container", Rect: shape.Rect{W: 80, H: 60}},
	}

	d := Build(shapes, "json", nil)

	if got := d.Item("orphan").ParentID; got != "" {
		t.Errorf("parent = %q, want cleared", got)
	}
	if roots := d.Roots(); len(roots) != 1 || roots[0] != "orphan" {
		t.Errorf("roots = %v, want [orphan]", roots)
	}
}

func TestBuildTrustsStoredParentage(t *testing.T) {
	// Geometry says the leaf is outside, but canonicalization must mirror
	// the store, not recompute containment.
	shapes := []shape.Shape{
		{ID: "vpc", Class: shape.ClassContainer, Kind: "vpc", Rect: shape.Rect{W: 100, H: 100}},
		{ID: "far", Class: shape.ClassLeaf, Kind: "compute", Parent: "vpc", Rect: shape.Rect{X: 900, Y: 900, W: 80, H: 60}},
	}

	d := Build(shapes, "json", nil)

	if d.Item("far").ParentID != "vpc" {
		t.Error("canonicalization recomputed parentage instead of trusting the store")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	d := Build(sampleShapes(), "json", nil)

	data, err := Marshal(d)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if len(back.Items) != len(d.Items) || len(back.Connections) != len(d.Connections) {
		t.Errorf("round-trip counts: items %d/%d, connections %d/%d",
			len(back.Items), len(d.Items), len(back.Connections), len(d.Connections))
	}
	if !back.Metadata.ExportedAt.Equal(d.Metadata.ExportedAt) {
		t.Error("metadata timestamp lost in round-trip")
	}
}

func TestBuildEmptySnapshot(t *testing.T) {
	d := Build(nil, "terraform", nil)
	if len(d.Items) != 0 || len(d.Connections) != 0 {
		t.Errorf("empty snapshot produced %d items, %d connections", len(d.Items), len(d.Connections))
	}
	if d.Metadata.Format != "terraform" {
		t.Errorf("format = %q", d.Metadata.Format)
	}
}
