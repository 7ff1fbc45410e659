package share

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/hwaldner/cloudcanvas/pkg/shape"
	"github.com/hwaldner/cloudcanvas/pkg/store"
)

func testSnapshot(t *testing.T) store.Snapshot {
	t.Helper()
	st := store.New()
	if _, err := st.CreateShape(store.ShapeInit{
		ID: "vpc-1", Class: shape.ClassContainer, Kind: "vpc", Label: "VPC",
		Rect: shape.Rect{W: 400, H: 300},
	}); err != nil {
		t.Fatalf("CreateShape error = %v", err)
	}
	return st.Snapshot()
}

// storeBackends returns every backend that needs no external service.
func storeBackends(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error = %v", err)
	}
	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	snap := testSnapshot(t)

	for name, backend := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			defer backend.Close(ctx)

			sh := New(snap, DefaultTTL)
			if err := backend.Set(ctx, sh); err != nil {
				t.Fatalf("Set error = %v", err)
			}

			got, err := backend.Get(ctx, sh.ID)
			if err != nil {
				t.Fatalf("Get error = %v", err)
			}
			if got == nil {
				t.Fatal("Get returned nil for stored share")
			}
			if got.ID != sh.ID {
				t.Errorf("ID = %q, want %q", got.ID, sh.ID)
			}
			if !reflect.DeepEqual(got.Snapshot, snap) {
				t.Errorf("snapshot mismatch:\ngot  %+v\nwant %+v", got.Snapshot, snap)
			}
		})
	}
}

func TestStoreMissingShare(t *testing.T) {
	ctx := context.Background()

	for name, backend := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			defer backend.Close(ctx)

			got, err := backend.Get(ctx, "does-not-exist")
			if err != nil {
				t.Fatalf("Get error = %v", err)
			}
			if got != nil {
				t.Errorf("Get(missing) = %+v, want nil", got)
			}
		})
	}
}

func TestStoreExpiry(t *testing.T) {
	ctx := context.Background()
	snap := testSnapshot(t)

	for name, backend := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			defer backend.Close(ctx)

			sh := New(snap, time.Millisecond)
			if err := backend.Set(ctx, sh); err != nil {
				t.Fatalf("Set error = %v", err)
			}
			time.Sleep(10 * time.Millisecond)

			got, err := backend.Get(ctx, sh.ID)
			if err != nil {
				t.Fatalf("Get error = %v", err)
			}
			if got != nil {
				t.Error("expired share still readable")
			}
		})
	}
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()
	snap := testSnapshot(t)

	for name, backend := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			defer backend.Close(ctx)

			sh := New(snap, DefaultTTL)
			if err := backend.Set(ctx, sh); err != nil {
				t.Fatalf("Set error = %v", err)
			}
			if err := backend.Delete(ctx, sh.ID); err != nil {
				t.Fatalf("Delete error = %v", err)
			}
			if got, _ := backend.Get(ctx, sh.ID); got != nil {
				t.Error("share readable after Delete")
			}

			// Deleting again is not an error.
			if err := backend.Delete(ctx, sh.ID); err != nil {
				t.Errorf("Delete(missing) error = %v", err)
			}
		})
	}
}

func TestStoreCleanup(t *testing.T) {
	ctx := context.Background()
	snap := testSnapshot(t)

	for name, backend := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			defer backend.Close(ctx)

			keep := New(snap, DefaultTTL)
			drop := New(snap, time.Millisecond)
			for _, sh := range []*Share{keep, drop} {
				if err := backend.Set(ctx, sh); err != nil {
					t.Fatalf("Set error = %v", err)
				}
			}
			time.Sleep(10 * time.Millisecond)

			if err := backend.Cleanup(ctx); err != nil {
				t.Fatalf("Cleanup error = %v", err)
			}

			if got, _ := backend.Get(ctx, keep.ID); got == nil {
				t.Error("Cleanup removed an unexpired share")
			}
			if got, _ := backend.Get(ctx, drop.ID); got != nil {
				t.Error("Cleanup kept an expired share")
			}
		})
	}
}

func TestFileStoreRejectsUnsafeID(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error = %v", err)
	}

	if _, err := fs.Get(ctx, "../escape"); err == nil {
		t.Error("Get with traversal id must fail")
	}
	if err := fs.Set(ctx, &Share{ID: "a/b"}); err == nil {
		t.Error("Set with path separator id must fail")
	}
}

func TestNewShare(t *testing.T) {
	snap := testSnapshot(t)

	sh := New(snap, DefaultTTL)
	if sh.ID == "" {
		t.Error("New did not assign an id")
	}
	if sh.IsExpired() {
		t.Error("fresh share reports expired")
	}

	forever := New(snap, 0)
	if !forever.ExpiresAt.IsZero() {
		t.Error("zero ttl should mean no expiry")
	}
	if forever.IsExpired() {
		t.Error("non-expiring share reports expired")
	}
}
