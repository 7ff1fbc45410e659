package store

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/hwaldner/cloudcanvas/pkg/shape"
)

// SnapshotVersion is stamped into every snapshot for forward compatibility.
const SnapshotVersion = "1"

// Snapshot is a complete, point-in-time serialization of the store. Shapes
// are ordered back to front (z-order). Snapshots are value objects: loading
// one replaces the entire document.
type Snapshot struct {
	Version string        `json:"version"`
	Shapes  []shape.Shape `json:"shapes"`
	Camera  Camera        `json:"camera"`
}

// Snapshot returns a complete copy of the store's current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Snapshot{
		Version: SnapshotVersion,
		Shapes:  make([]shape.Shape, 0, len(s.order)),
		Camera:  s.camera,
	}
	for _, id := range s.order {
		out.Shapes = append(out.Shapes, s.shapes[id].Clone())
	}
	return out
}

// LoadSnapshot replaces the store's entire state with snap and emits a
// single remote-sourced event. Selection is cleared; the highest shape Seq
// seeds the creation counter so new shapes keep stacking in front.
func (s *Store) LoadSnapshot(snap Snapshot) {
	s.mu.Lock()
	s.shapes = make(map[string]*shape.Shape, len(snap.Shapes))
	s.order = make([]string, 0, len(snap.Shapes))
	s.selected = make(map[string]bool)
	s.camera = snap.Camera
	if s.camera.Zoom == 0 {
		s.camera.Zoom = 1
	}
	s.seq = 0
	var changes []Change
	for i := range snap.Shapes {
		sh := snap.Shapes[i].Clone()
		if _, dup := s.shapes[sh.ID]; dup {
			continue
		}
		s.shapes[sh.ID] = &sh
		s.order = append(s.order, sh.ID)
		s.seq = max(s.seq, sh.Seq)
		changes = append(changes, Change{ShapeID: sh.ID, Kind: ChangeLoaded})
	}
	s.mu.Unlock()

	s.emit(Event{Source: SourceRemote, Scope: ScopeDocument, Changes: changes})
}

// ValidateSnapshot checks a decoded snapshot before it is loaded. A corrupt
// snapshot must never be half-applied, so validation runs up front and the
// load is all-or-nothing.
func ValidateSnapshot(snap Snapshot) error {
	seen := make(map[string]bool, len(snap.Shapes))
	for i := range snap.Shapes {
		sh := &snap.Shapes[i]
		if sh.ID == "" {
			return fmt.Errorf("shape %d: empty ID", i)
		}
		if seen[sh.ID] {
			return fmt.Errorf("shape %q: duplicate ID", sh.ID)
		}
		seen[sh.ID] = true
		if !sh.IsArrow() && (sh.Rect.W <= 0 || sh.Rect.H <= 0) {
			return fmt.Errorf("shape %q: %v", sh.ID, ErrInvalidGeometry)
		}
	}
	// Parent chains must form a forest rooted at the page.
	for i := range snap.Shapes {
		if err := checkAncestry(&snap.Shapes[i], snap.Shapes); err != nil {
			return err
		}
	}
	return nil
}

func checkAncestry(sh *shape.Shape, shapes []shape.Shape) error {
	byID := func(id string) *shape.Shape {
		for i := range shapes {
			if shapes[i].ID == id {
				return &shapes[i]
			}
		}
		return nil
	}
	seen := []string{sh.ID}
	for cur := sh.Parent; cur != shape.RootParent; {
		if slices.Contains(seen, cur) {
			return fmt.Errorf("shape %q: parent cycle through %q", sh.ID, cur)
		}
		seen = append(seen, cur)
		p := byID(cur)
		if p == nil {
			// Dangling parents degrade to the page root at load time.
			return nil
		}
		cur = p.Parent
	}
	return nil
}

// MarshalSnapshot encodes a snapshot as compact JSON.
func MarshalSnapshot(snap Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}

// UnmarshalSnapshot decodes and validates snapshot JSON.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := ValidateSnapshot(snap); err != nil {
		return Snapshot{}, fmt.Errorf("invalid snapshot: %w", err)
	}
	return snap, nil
}
