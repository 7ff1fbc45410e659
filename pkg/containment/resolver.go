// Package containment derives parent/child relationships from shape
// geometry.
//
// The resolver listens for user-originated document mutations on the store.
// When a batch contains a position change (a drag signal, as opposed to
// property edits or arrow operations) it schedules a reparenting pass: every
// selected, movable shape is assigned the smallest-area container whose
// rectangle holds the shape's center, or the page root when none does. The
// queued operations are applied as one atomic batch, and reparented shapes
// are brought to the front of their new parent's z-order.
//
// Because the pass itself mutates the store, its side effects would
// immediately re-trigger the same listener. The resolver therefore runs a
// two-state machine (idle, processing): the processing state is entered
// before any mutation and released only by a cool-down timer after the pass
// completes. Drag signals arriving while processing are dropped; positions
// settle before the cool-down expires, so the next real drag produces a
// fresh, consistent pass.
package containment

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hwaldner/cloudcanvas/pkg/observability"
	"github.com/hwaldner/cloudcanvas/pkg/shape"
	"github.com/hwaldner/cloudcanvas/pkg/store"
)

// Default timer values. SettleDelay defers the pass off the mutation event;
// CoolDown keeps the guard up until the store has gone quiet again.
const (
	DefaultSettleDelay = 100 * time.Millisecond
	DefaultCoolDown    = 250 * time.Millisecond
)

// Config adjusts resolver timing. Zero values use the defaults.
type Config struct {
	SettleDelay time.Duration
	CoolDown    time.Duration

	// PageID scopes the pass to one page. Empty means all pages; the
	// geometric rule already never matches containers across pages.
	PageID string
}

// state is the resolver's explicit two-state machine.
type state int

const (
	stateIdle state = iota
	stateProcessing
)

// Resolver watches a store and keeps geometric containment consistent.
// Create with New, release with Close.
type Resolver struct {
	st     *store.Store
	logger *log.Logger
	cfg    Config

	mu      sync.Mutex
	state   state
	settle  *time.Timer
	release *time.Timer
	closed  bool
	passes  sync.WaitGroup
	unsub   store.Unsubscribe
}

// New creates a resolver subscribed to user document mutations on st.
// A nil logger falls back to the package default.
func New(st *store.Store, logger *log.Logger, cfg Config) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	if cfg.CoolDown <= 0 {
		cfg.CoolDown = DefaultCoolDown
	}
	r := &Resolver{st: st, logger: logger, cfg: cfg}
	r.unsub = st.Listen(store.Filter{Source: store.SourceUser, Scope: store.ScopeDocument}, r.onEvent)
	return r
}

// Close stops pending timers, detaches the store listener, and waits for an
// in-flight pass to finish. The resolver never mutates the store after Close
// returns.
func (r *Resolver) Close() {
	r.mu.Lock()
	r.closed = true
	if r.settle != nil {
		r.settle.Stop()
	}
	if r.release != nil {
		r.release.Stop()
	}
	r.mu.Unlock()
	r.unsub()
	r.passes.Wait()
}

// onEvent is the store listener. It only reacts to drag signals and never
// runs the pass synchronously: the settle timer is (re)armed so a burst of
// move events collapses into a single scheduled pass.
func (r *Resolver) onEvent(ev store.Event) {
	if !ev.HasKind(store.ChangeMoved) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if r.state == stateProcessing {
		observability.Resolve().OnPassSkipped(context.Background())
		return
	}
	if r.settle != nil {
		r.settle.Stop()
	}
	r.settle = time.AfterFunc(r.cfg.SettleDelay, r.runPass)
}

// transition is the single function owning state mutation.
// It reports whether the transition was legal from the current state.
func (r *Resolver) transition(to state) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	switch {
	case to == stateProcessing && r.state == stateIdle:
		r.state = stateProcessing
		return true
	case to == stateIdle && r.state == stateProcessing:
		r.state = stateIdle
		return true
	default:
		return false
	}
}

// runPass executes one reparenting pass. Fired by the settle timer.
func (r *Resolver) runPass() {
	// Register under the lock so Close either sees closed==true here or
	// waits for this pass to finish.
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.passes.Add(1)
	r.mu.Unlock()
	defer r.passes.Done()

	if !r.transition(stateProcessing) {
		return
	}

	start := time.Now()
	ctx := context.Background()

	selected := r.st.SelectedShapes()
	all := r.st.Shapes(r.cfg.PageID)
	observability.Resolve().OnPassStart(ctx, len(selected))

	ops := Pass(selected, all)
	applied := 0
	var moved []string
	if len(ops) > 0 {
		// One atomic batch; ops whose shape vanished are skipped inside
		// the store, never retried here.
		r.st.ApplyReparents(ops)
		for _, op := range ops {
			if sh, ok := r.st.Shape(op.ShapeID); ok && sh.Parent == op.NewParent {
				applied++
				moved = append(moved, op.ShapeID)
			}
		}
		if len(moved) > 0 {
			r.st.BringToFront(moved)
		}
	}

	observability.Resolve().OnPassComplete(ctx, applied, len(ops)-applied, time.Since(start))
	r.logger.Debug("containment pass", "candidates", len(selected), "reparented", applied)

	// Release the guard only after the store has gone quiet.
	r.mu.Lock()
	if !r.closed {
		if r.release != nil {
			r.release.Stop()
		}
		r.release = time.AfterFunc(r.cfg.CoolDown, func() { r.transition(stateIdle) })
	}
	r.mu.Unlock()
}

// Pass computes reparent operations for the candidate shapes against the
// full shape set. It is a pure function: candidates that are containers or
// arrows are skipped, and an op is produced only when the geometric parent
// differs from the stored one. Exposed for batch tooling that wants a
// containment pass without a live resolver.
func Pass(candidates, all []shape.Shape) []store.ReparentOp {
	var ops []store.ReparentOp
	for i := range candidates {
		c := &candidates[i]
		if c.IsContainer() || c.IsArrow() {
			continue
		}
		want := shape.EnclosingContainer(c, all)
		if want != c.Parent {
			ops = append(ops, store.ReparentOp{ShapeID: c.ID, NewParent: want})
		}
	}
	return ops
}

// PassAll runs Pass with every non-container shape as a candidate. Used by
// offline tooling to normalize a whole snapshot at once.
func PassAll(all []shape.Shape) []store.ReparentOp {
	return Pass(all, all)
}
