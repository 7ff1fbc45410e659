package store

// =============================================================================
// Change Events
// =============================================================================

// Source identifies who originated a mutation batch.
type Source int

const (
	// SourceUser marks mutations originating from user edits, including
	// edits applied on the user's behalf (containment, layout).
	SourceUser Source = iota
	// SourceRemote marks mutations applied from outside the session, such
	// as loading a snapshot decoded from a shared URL.
	SourceRemote
)

// String returns the lower-case source name.
func (s Source) String() string {
	if s == SourceRemote {
		return "remote"
	}
	return "user"
}

// Scope identifies which part of the store a mutation touched.
type Scope int

const (
	// ScopeDocument covers shape and arrow mutations.
	ScopeDocument Scope = iota
	// ScopeSession covers selection and camera changes.
	ScopeSession
)

// ChangeKind classifies a single shape mutation within an event batch.
type ChangeKind int

const (
	ChangeCreated ChangeKind = iota
	ChangeMoved
	ChangeResized
	ChangeProps
	ChangeReparented
	ChangeZOrder
	ChangeDeleted
	ChangeLoaded
)

// Change records one mutation to one shape.
type Change struct {
	ShapeID string
	Kind    ChangeKind
}

// Event is a batch of changes delivered to listeners as a single
// notification. All mutations applied through one batched entry point
// produce exactly one Event, so observers never see intermediate states.
type Event struct {
	Source  Source
	Scope   Scope
	Changes []Change
}

// HasKind reports whether any change in the batch has the given kind.
func (e Event) HasKind(k ChangeKind) bool {
	for _, c := range e.Changes {
		if c.Kind == k {
			return true
		}
	}
	return false
}

// Filter selects which events a listener receives.
type Filter struct {
	Source Source
	Scope  Scope
}

// Handler receives matching events. Handlers run synchronously on the
// mutating goroutine after the store lock is released; they may call back
// into the store but should defer heavy work.
type Handler func(Event)

// Unsubscribe detaches a listener registered with [Store.Listen].
// Calling it more than once is safe.
type Unsubscribe func()
