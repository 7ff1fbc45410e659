package urlstate

import (
	"io"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hwaldner/cloudcanvas/pkg/errors"
	"github.com/hwaldner/cloudcanvas/pkg/shape"
	"github.com/hwaldner/cloudcanvas/pkg/store"
)

// fakeLocation is an in-memory query string.
type fakeLocation struct {
	mu      sync.Mutex
	params  map[string]string
	writes  int
	removes int
}

func newFakeLocation() *fakeLocation {
	return &fakeLocation{params: map[string]string{}}
}

func (l *fakeLocation) Param(name string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.params[name]
	return v, ok
}

func (l *fakeLocation) SetParam(name, value string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.params[name] = value
	l.writes++
}

func (l *fakeLocation) RemoveParam(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.params, name)
	l.removes++
}

func (l *fakeLocation) writeCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writes
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func testConfig() Config {
	return Config{Debounce: 20 * time.Millisecond}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	if !cond() {
		t.Fatal("condition not met before timeout")
	}
}

func populatedStore(t *testing.T) *store.Store {
	t.Helper()
	st := store.New()
	mustCreate(t, st, store.ShapeInit{
		ID: "vpc-1", Class: shape.ClassContainer, Kind: "vpc", Label: "VPC",
		Rect: shape.Rect{X: 0, Y: 0, W: 400, H: 300},
	})
	mustCreate(t, st, store.ShapeInit{
		ID: "compute-1", Class: shape.ClassLeaf, Kind: "compute",
		Rect:  shape.Rect{X: 50, Y: 50, W: 120, H: 80},
		Props: map[string]string{"instance": "t3.micro"},
	})
	st.ReparentShapes([]string{"compute-1"}, "vpc-1")
	return st
}

func mustCreate(t *testing.T, st *store.Store, init store.ShapeInit) {
	t.Helper()
	if _, err := st.CreateShape(init); err != nil {
		t.Fatalf("CreateShape(%s) error = %v", init.ID, err)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	snapshots := map[string]store.Snapshot{
		"empty":     store.New().Snapshot(),
		"populated": populatedStore(t).Snapshot(),
	}

	for name, snap := range snapshots {
		t.Run(name, func(t *testing.T) {
			token, err := Encode(snap)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}

			got, err := Decode(token)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !reflect.DeepEqual(got, snap) {
				t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, snap)
			}
		})
	}
}

func TestCodecDeterminism(t *testing.T) {
	snap := populatedStore(t).Snapshot()
	first, err := Encode(snap)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		token, err := Encode(snap)
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		if token != first {
			t.Fatalf("Encode() not deterministic on run %d", i)
		}
	}
}

func TestDecodeCorruptToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"not base64", "not-valid!!"},
		{"not deflate", "aGVsbG8gd29ybGQ"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.token)
			if err == nil {
				t.Fatal("Decode() error = nil, want decode error")
			}
			if !errors.Is(err, errors.ErrCodeDecode) {
				t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeDecode)
			}
		})
	}
}

func TestDebounceCoalescing(t *testing.T) {
	st := populatedStore(t)
	loc := newFakeLocation()
	syn := New(st, loc, quietLogger(), testConfig())
	defer syn.Close()

	// Ten rapid mutations inside one debounce window.
	for i := 0; i < 10; i++ {
		st.UpdateShapes([]store.ShapeUpdate{store.Move("compute-1", float64(i), float64(i))})
	}

	waitFor(t, time.Second, func() bool { return loc.writeCount() >= 1 })
	time.Sleep(50 * time.Millisecond)

	if got := loc.writeCount(); got != 1 {
		t.Fatalf("writes = %d, want 1", got)
	}

	// The single write reflects the final state.
	token, ok := loc.Param(DefaultParam)
	if !ok {
		t.Fatal("canvas parameter missing after write")
	}
	snap, err := Decode(token)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	for _, sh := range snap.Shapes {
		if sh.ID == "compute-1" && (sh.Rect.X != 9 || sh.Rect.Y != 9) {
			t.Errorf("written state has compute-1 at (%v,%v), want (9,9)", sh.Rect.X, sh.Rect.Y)
		}
	}
}

func TestWriteSkippedWhenUnchanged(t *testing.T) {
	st := populatedStore(t)
	loc := newFakeLocation()
	syn := New(st, loc, quietLogger(), testConfig())
	defer syn.Close()

	st.UpdateShapes([]store.ShapeUpdate{store.Move("compute-1", 10, 10)})
	waitFor(t, time.Second, func() bool { return loc.writeCount() == 1 })

	// A no-op mutation burst re-fires the timer but produces the same token.
	st.Select("compute-1")
	time.Sleep(60 * time.Millisecond)

	if got := loc.writeCount(); got != 1 {
		t.Errorf("writes = %d, want 1 (unchanged token must not rewrite)", got)
	}
}

func TestLoadAppliesToken(t *testing.T) {
	src := populatedStore(t)
	token, err := Encode(src.Snapshot())
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	st := store.New()
	loc := newFakeLocation()
	loc.params[DefaultParam] = token
	syn := New(st, loc, quietLogger(), testConfig())
	defer syn.Close()

	syn.Load()

	if got := len(st.Shapes("")); got != 2 {
		t.Fatalf("shapes after load = %d, want 2", got)
	}

	// Applying a read must not re-trigger a write of the same content.
	time.Sleep(60 * time.Millisecond)
	if got := loc.writeCount(); got != 0 {
		t.Errorf("writes after load = %d, want 0", got)
	}
}

func TestLoadCorruptTokenStripsParam(t *testing.T) {
	st := populatedStore(t)
	before := len(st.Shapes(""))

	loc := newFakeLocation()
	loc.params[DefaultParam] = "not-valid"
	syn := New(st, loc, quietLogger(), testConfig())
	defer syn.Close()

	syn.Load()

	if _, ok := loc.Param(DefaultParam); ok {
		t.Error("corrupt canvas parameter was not stripped")
	}
	if got := len(st.Shapes("")); got != before {
		t.Errorf("shapes = %d, want %d (store must keep prior state)", got, before)
	}
}

func TestLoadMissingParamIsNoop(t *testing.T) {
	st := populatedStore(t)
	loc := newFakeLocation()
	syn := New(st, loc, quietLogger(), testConfig())
	defer syn.Close()

	syn.Load()

	if got := len(st.Shapes("")); got != 2 {
		t.Errorf("shapes = %d, want 2", got)
	}
}

func TestCloseStopsPendingWrite(t *testing.T) {
	st := populatedStore(t)
	loc := newFakeLocation()
	syn := New(st, loc, quietLogger(), testConfig())

	st.UpdateShapes([]store.ShapeUpdate{store.Move("compute-1", 10, 10)})
	syn.Close()

	time.Sleep(60 * time.Millisecond)
	if got := loc.writeCount(); got != 0 {
		t.Errorf("writes after Close = %d, want 0", got)
	}

	// Mutations after Close never reach the synchronizer.
	st.UpdateShapes([]store.ShapeUpdate{store.Move("compute-1", 20, 20)})
	time.Sleep(60 * time.Millisecond)
	if got := loc.writeCount(); got != 0 {
		t.Errorf("writes after detached mutation = %d, want 0", got)
	}
}
