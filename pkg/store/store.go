// Package store implements the mutable shape store at the center of the
// canvas core.
//
// The store owns the live shape graph: creation, batched updates,
// reparenting, z-order and selection. Every batched mutation emits exactly
// one change event, which is what the containment resolver and the URL state
// synchronizer subscribe to. The store never derives parentage itself; that
// is the resolver's job.
//
// # Concurrency
//
// All methods are safe for concurrent use. Listeners are invoked after the
// internal lock is released, so a handler may call back into the store
// without deadlocking; re-entrant mutation loops are the caller's problem
// and are what the resolver's processing guard exists for.
package store

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/hwaldner/cloudcanvas/pkg/shape"
)

// Sentinel errors for store operations.
var (
	// ErrInvalidGeometry is returned by CreateShape when a non-arrow shape
	// has non-positive width or height.
	ErrInvalidGeometry = errors.New("shape width and height must be positive")

	// ErrUnknownShape is returned when an update names a shape that does
	// not exist. Batched entry points skip unknown IDs instead.
	ErrUnknownShape = errors.New("unknown shape")
)

// Camera maps screen coordinates to page coordinates.
type Camera struct {
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
	Zoom    float64 `json:"zoom"`
}

// ShapeInit describes a shape to create. ID is assigned when empty.
type ShapeInit struct {
	ID     string
	Class  shape.Class
	Kind   string
	Label  string
	PageID string
	Rect   shape.Rect
	Props  map[string]string
	From   string
	To     string
}

// ShapeUpdate is a partial update applied by [Store.UpdateShapes]. Nil
// fields are left untouched; Props entries are merged key by key.
type ShapeUpdate struct {
	ID      string
	X, Y    *float64
	W, H    *float64
	Label   *string
	Opacity *float64
	Props   map[string]string
}

// Move returns an update that repositions a shape.
func Move(id string, x, y float64) ShapeUpdate {
	return ShapeUpdate{ID: id, X: &x, Y: &y}
}

// Resize returns an update that moves and resizes a shape.
func Resize(id string, r shape.Rect) ShapeUpdate {
	return ShapeUpdate{ID: id, X: &r.X, Y: &r.Y, W: &r.W, H: &r.H}
}

type listener struct {
	filter  Filter
	handler Handler
}

// Store is the live shape graph. Create instances with New.
type Store struct {
	mu        sync.Mutex
	shapes    map[string]*shape.Shape
	order     []string // z-order, back to front; also creation order
	selected  map[string]bool
	camera    Camera
	seq       int64
	listeners map[int]listener
	nextID    int
}

// New creates an empty store with a unit camera.
func New() *Store {
	return &Store{
		shapes:    make(map[string]*shape.Shape),
		selected:  make(map[string]bool),
		camera:    Camera{Zoom: 1},
		listeners: make(map[int]listener),
	}
}

// =============================================================================
// Subscription
// =============================================================================

// Listen registers a handler for events matching filter. The returned
// Unsubscribe releases the registration; it must be called on teardown so a
// detached component can no longer be notified.
func (s *Store) Listen(filter Filter, handler Handler) Unsubscribe {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener{filter: filter, handler: handler}
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// emit invokes matching handlers. Must be called without the lock held.
func (s *Store) emit(ev Event) {
	if len(ev.Changes) == 0 {
		return
	}
	s.mu.Lock()
	handlers := make([]Handler, 0, len(s.listeners))
	for _, l := range s.listeners {
		if l.filter.Source == ev.Source && l.filter.Scope == ev.Scope {
			handlers = append(handlers, l.handler)
		}
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

// =============================================================================
// Reads
// =============================================================================

// Shapes returns clones of all shapes on pageID, in z-order back to front.
// An empty pageID returns every shape.
func (s *Store) Shapes(pageID string) []shape.Shape {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]shape.Shape, 0, len(s.order))
	for _, id := range s.order {
		sh := s.shapes[id]
		if pageID != "" && sh.PageID != pageID {
			continue
		}
		out = append(out, sh.Clone())
	}
	return out
}

// Shape returns a clone of the shape with the given ID.
func (s *Store) Shape(id string) (shape.Shape, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shapes[id]
	if !ok {
		return shape.Shape{}, false
	}
	return sh.Clone(), true
}

// SelectedShapes returns clones of the currently selected shapes in z-order.
func (s *Store) SelectedShapes() []shape.Shape {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]shape.Shape, 0, len(s.selected))
	for _, id := range s.order {
		if s.selected[id] {
			out = append(out, s.shapes[id].Clone())
		}
	}
	return out
}

// ScreenToPage converts a screen point to page coordinates under the
// current camera.
func (s *Store) ScreenToPage(p shape.Point) shape.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	zoom := s.camera.Zoom
	if zoom == 0 {
		zoom = 1
	}
	return shape.Point{
		X: (p.X - s.camera.OffsetX) / zoom,
		Y: (p.Y - s.camera.OffsetY) / zoom,
	}
}

// =============================================================================
// Mutations
// =============================================================================

// CreateShape adds a shape to the store and returns the stored copy.
// Non-arrow shapes must have positive width and height; catalog defaults
// guarantee this for shapes created through the drop path.
func (s *Store) CreateShape(init ShapeInit) (shape.Shape, error) {
	if init.Class != shape.ClassArrow && (init.Rect.W <= 0 || init.Rect.H <= 0) {
		return shape.Shape{}, fmt.Errorf("create %q: %w", init.Kind, ErrInvalidGeometry)
	}

	s.mu.Lock()
	id := init.ID
	if id == "" {
		id = uuid.NewString()
	}
	s.seq++
	sh := &shape.Shape{
		ID:     id,
		Class:  init.Class,
		Kind:   init.Kind,
		Label:  init.Label,
		PageID: init.PageID,
		Rect:   init.Rect,
		Props:  init.Props,
		From:   init.From,
		To:     init.To,
		Seq:    s.seq,
	}
	s.shapes[id] = sh
	s.order = append(s.order, id)
	out := sh.Clone()
	s.mu.Unlock()

	s.emit(Event{Source: SourceUser, Scope: ScopeDocument, Changes: []Change{{ShapeID: id, Kind: ChangeCreated}}})
	return out, nil
}

// UpdateShapes applies a batch of partial updates and emits one event.
// Updates naming unknown shapes are skipped.
func (s *Store) UpdateShapes(updates []ShapeUpdate) {
	s.mu.Lock()
	var changes []Change
	for _, u := range updates {
		sh, ok := s.shapes[u.ID]
		if !ok {
			continue
		}
		if u.X != nil || u.Y != nil {
			if u.X != nil {
				sh.Rect.X = *u.X
			}
			if u.Y != nil {
				sh.Rect.Y = *u.Y
			}
			changes = append(changes, Change{ShapeID: u.ID, Kind: ChangeMoved})
		}
		if u.W != nil || u.H != nil {
			if u.W != nil {
				sh.Rect.W = *u.W
			}
			if u.H != nil {
				sh.Rect.H = *u.H
			}
			changes = append(changes, Change{ShapeID: u.ID, Kind: ChangeResized})
		}
		if u.Label != nil {
			sh.Label = *u.Label
			changes = append(changes, Change{ShapeID: u.ID, Kind: ChangeProps})
		}
		if u.Opacity != nil {
			sh.Opacity = *u.Opacity
			changes = append(changes, Change{ShapeID: u.ID, Kind: ChangeProps})
		}
		if len(u.Props) > 0 {
			if sh.Props == nil {
				sh.Props = make(map[string]string, len(u.Props))
			}
			for k, v := range u.Props {
				sh.Props[k] = v
			}
			changes = append(changes, Change{ShapeID: u.ID, Kind: ChangeProps})
		}
	}
	s.mu.Unlock()

	s.emit(Event{Source: SourceUser, Scope: ScopeDocument, Changes: changes})
}

// ReparentOp assigns one shape a new parent. NewParent is the page root
// sentinel when the shape leaves all containers.
type ReparentOp struct {
	ShapeID   string
	NewParent string
}

// ApplyReparents applies a batch of reparent operations atomically and emits
// one event. Ops naming a shape that no longer exists are skipped silently; a
// concurrent delete must not fail the rest of the batch. An op whose new
// parent has vanished resolves to the page root.
func (s *Store) ApplyReparents(ops []ReparentOp) {
	s.mu.Lock()
	var changes []Change
	for _, op := range ops {
		sh, ok := s.shapes[op.ShapeID]
		if !ok {
			continue
		}
		parent := op.NewParent
		if parent != shape.RootParent {
			if _, ok := s.shapes[parent]; !ok {
				parent = shape.RootParent
			}
		}
		if sh.Parent == parent {
			continue
		}
		sh.Parent = parent
		changes = append(changes, Change{ShapeID: op.ShapeID, Kind: ChangeReparented})
	}
	s.mu.Unlock()

	s.emit(Event{Source: SourceUser, Scope: ScopeDocument, Changes: changes})
}

// ReparentShapes assigns newParent to every named shape as one batch.
func (s *Store) ReparentShapes(ids []string, newParent string) {
	ops := make([]ReparentOp, len(ids))
	for i, id := range ids {
		ops[i] = ReparentOp{ShapeID: id, NewParent: newParent}
	}
	s.ApplyReparents(ops)
}

// BringToFront moves the named shapes to the top of the z-order, preserving
// their relative order.
func (s *Store) BringToFront(ids []string) {
	s.mu.Lock()
	front := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := s.shapes[id]; ok {
			front[id] = true
		}
	}
	var changes []Change
	if len(front) > 0 {
		rest := make([]string, 0, len(s.order))
		moved := make([]string, 0, len(front))
		for _, id := range s.order {
			if front[id] {
				moved = append(moved, id)
			} else {
				rest = append(rest, id)
			}
		}
		s.order = append(rest, moved...)
		for _, id := range moved {
			changes = append(changes, Change{ShapeID: id, Kind: ChangeZOrder})
		}
	}
	s.mu.Unlock()

	s.emit(Event{Source: SourceUser, Scope: ScopeDocument, Changes: changes})
}

// DeleteShapes removes the named shapes. Children of a deleted container are
// reparented to the page root; arrows bound to a deleted shape keep their
// binding and are treated as detached at canonicalization time.
func (s *Store) DeleteShapes(ids []string) {
	s.mu.Lock()
	var changes []Change
	for _, id := range ids {
		if _, ok := s.shapes[id]; !ok {
			continue
		}
		delete(s.shapes, id)
		delete(s.selected, id)
		if i := slices.Index(s.order, id); i >= 0 {
			s.order = slices.Delete(s.order, i, i+1)
		}
		for _, sh := range s.shapes {
			if sh.Parent == id {
				sh.Parent = shape.RootParent
			}
		}
		changes = append(changes, Change{ShapeID: id, Kind: ChangeDeleted})
	}
	s.mu.Unlock()

	s.emit(Event{Source: SourceUser, Scope: ScopeDocument, Changes: changes})
}

// Select replaces the current selection.
func (s *Store) Select(ids ...string) {
	s.mu.Lock()
	s.selected = make(map[string]bool, len(ids))
	var changes []Change
	for _, id := range ids {
		if _, ok := s.shapes[id]; ok {
			s.selected[id] = true
			changes = append(changes, Change{ShapeID: id, Kind: ChangeProps})
		}
	}
	s.mu.Unlock()

	s.emit(Event{Source: SourceUser, Scope: ScopeSession, Changes: changes})
}

// SetCamera replaces the camera used by ScreenToPage.
func (s *Store) SetCamera(c Camera) {
	s.mu.Lock()
	s.camera = c
	s.mu.Unlock()
}
