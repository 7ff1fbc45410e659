package urlstate

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hwaldner/cloudcanvas/pkg/errors"
	"github.com/hwaldner/cloudcanvas/pkg/observability"
	"github.com/hwaldner/cloudcanvas/pkg/store"
)

// DefaultParam is the query parameter holding the encoded diagram.
const DefaultParam = "canvas"

// DefaultDebounce is the inactivity window before a URL write.
const DefaultDebounce = 500 * time.Millisecond

// Location abstracts the host's URL bar. Implementations must replace, not
// push: synchronizer writes never add history entries.
type Location interface {
	// Param returns the current value of a query parameter and whether it
	// is present.
	Param(name string) (string, bool)

	// SetParam replaces the parameter value in place.
	SetParam(name, value string)

	// RemoveParam strips the parameter in place.
	RemoveParam(name string)
}

// Config tunes the synchronizer. The zero value uses defaults.
type Config struct {
	// Param is the query parameter name. Defaults to [DefaultParam].
	Param string

	// Debounce is the inactivity window before a write. Defaults to
	// [DefaultDebounce].
	Debounce time.Duration
}

// Synchronizer mirrors the store into a URL query parameter, debouncing
// bursts of mutations into a single write, and applies external URL changes
// back into the store.
type Synchronizer struct {
	st     *store.Store
	loc    Location
	logger *log.Logger
	cfg    Config

	mu          sync.Mutex
	timer       *time.Timer
	lastWritten string
	lastApplied string
	closed      bool

	unsubs []store.Unsubscribe
}

// New creates a synchronizer listening for store mutations. Call [Load] to
// apply a token already present in the URL, and [Synchronizer.Close] on
// teardown. A nil logger falls back to the package default.
func New(st *store.Store, loc Location, logger *log.Logger, cfg Config) *Synchronizer {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Param == "" {
		cfg.Param = DefaultParam
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	s := &Synchronizer{st: st, loc: loc, logger: logger, cfg: cfg}

	// Any mutation restarts the debounce window, including remote loads:
	// a snapshot loaded by another component still belongs in the URL.
	// The token comparison on fire drops writes of our own reads.
	filters := []store.Filter{
		{Source: store.SourceUser, Scope: store.ScopeDocument},
		{Source: store.SourceUser, Scope: store.ScopeSession},
		{Source: store.SourceRemote, Scope: store.ScopeDocument},
	}
	for _, f := range filters {
		s.unsubs = append(s.unsubs, st.Listen(f, s.onEvent))
	}
	return s
}

// Close stops the pending write timer and detaches all store listeners.
// No URL write happens after Close returns.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	for _, unsub := range s.unsubs {
		unsub()
	}
}

func (s *Synchronizer) onEvent(store.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.cfg.Debounce, s.write)
}

// write fires after a quiet debounce window. It snapshots the store,
// encodes it, and replaces the query parameter only when the token differs
// from both the last write and the last applied read.
func (s *Synchronizer) write() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	token, err := Encode(s.st.Snapshot())
	if err != nil {
		s.logger.Error("encode canvas state", "err", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if token == s.lastWritten || token == s.lastApplied {
		observability.Sync().OnWriteSkipped(context.Background())
		return
	}

	s.loc.SetParam(s.cfg.Param, token)
	s.lastWritten = token
	observability.Sync().OnWrite(context.Background(), len(token))
	s.logger.Debug("wrote canvas state", "bytes", len(token))
}

// Load reads the query parameter and applies it to the store. It is called
// on mount and again on every external URL change. A missing parameter is a
// no-op; a corrupt one is logged, stripped from the URL, and the store
// keeps its prior state. Load never returns an error to the caller.
func (s *Synchronizer) Load() {
	token, ok := s.loc.Param(s.cfg.Param)
	if !ok {
		return
	}

	s.mu.Lock()
	if s.closed || token == s.lastApplied {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	snap, err := Decode(token)
	if err != nil {
		observability.Sync().OnDecodeError(context.Background(), err)
		s.logger.Error("discarding corrupt canvas state", "err", errors.UserMessage(err))
		s.loc.RemoveParam(s.cfg.Param)
		return
	}

	s.st.LoadSnapshot(snap)

	s.mu.Lock()
	s.lastApplied = token
	s.mu.Unlock()
	observability.Sync().OnRead(context.Background(), len(snap.Shapes))
	s.logger.Debug("applied canvas state", "shapes", len(snap.Shapes))
}
