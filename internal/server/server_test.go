package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hwaldner/cloudcanvas/pkg/cache"
	"github.com/hwaldner/cloudcanvas/pkg/export"
	"github.com/hwaldner/cloudcanvas/pkg/pipeline"
	"github.com/hwaldner/cloudcanvas/pkg/shape"
	"github.com/hwaldner/cloudcanvas/pkg/share"
	"github.com/hwaldner/cloudcanvas/pkg/store"
	"github.com/hwaldner/cloudcanvas/pkg/urlstate"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func testServer(t *testing.T) (*Server, share.Store) {
	t.Helper()
	shares := share.NewMemoryStore()
	runner := pipeline.NewRunner(nil, nil, quietLogger())
	srv := New(shares, runner, quietLogger(), Config{ShareTTL: time.Hour})
	return srv, shares
}

// testSnapshot returns a snapshot with a container, a leaf inside it, an
// external leaf, and one arrow.
func testSnapshot(t *testing.T) store.Snapshot {
	t.Helper()
	st := store.New()

	inits := []store.ShapeInit{
		{ID: "vpc-1", Class: shape.ClassContainer, Kind: "vpc", Label: "Production VPC",
			Rect:  shape.Rect{X: 0, Y: 0, W: 400, H: 300},
			Props: map[string]string{"boundary": "enterprise"}},
		{ID: "compute-1", Class: shape.ClassLeaf, Kind: "compute", Label: "Web Server",
			Rect: shape.Rect{X: 50, Y: 50, W: 120, H: 80}},
		{ID: "db-1", Class: shape.ClassLeaf, Kind: "database", Label: "Orders DB",
			Rect: shape.Rect{X: 600, Y: 50, W: 120, H: 80}},
		{ID: "arrow-1", Class: shape.ClassArrow, From: "compute-1", To: "db-1", Label: "reads"},
	}
	for _, init := range inits {
		if _, err := st.CreateShape(init); err != nil {
			t.Fatalf("CreateShape(%s) error = %v", init.ID, err)
		}
	}
	st.ReparentShapes([]string{"compute-1"}, "vpc-1")
	return st.Snapshot()
}

func snapshotBody(t *testing.T) []byte {
	t.Helper()
	data, err := store.MarshalSnapshot(testSnapshot(t))
	if err != nil {
		t.Fatalf("MarshalSnapshot() error = %v", err)
	}
	return data
}

func createShare(t *testing.T, h http.Handler) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/c", bytes.NewReader(snapshotBody(t)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("PUT /c status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if resp.ID == "" {
		t.Fatal("create response missing id")
	}
	return resp.ID
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("body = %q, want ok", rec.Body)
	}
}

func TestCreateAndGetShare(t *testing.T) {
	srv, _ := testServer(t)
	h := srv.Handler()
	id := createShare(t, h)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/c/"+id, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /c/%s status = %d, body = %s", id, rec.Code, rec.Body)
	}
	snap, err := store.UnmarshalSnapshot(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("response is not a snapshot: %v", err)
	}
	if len(snap.Shapes) != 4 {
		t.Errorf("snapshot has %d shapes, want 4", len(snap.Shapes))
	}
}

func TestCreateShareFromToken(t *testing.T) {
	srv, _ := testServer(t)
	token, err := urlstate.Encode(testSnapshot(t))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/c?canvas="+token, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
}

func TestCreateShareRejectsGarbage(t *testing.T) {
	srv, _ := testServer(t)
	req := httptest.NewRequest(http.MethodPut, "/c", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "INVALID_SNAPSHOT") {
		t.Errorf("body = %q, want INVALID_SNAPSHOT code", rec.Body)
	}
}

func TestGetMissingShare(t *testing.T) {
	srv, _ := testServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/c/does-not-exist", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteShare(t *testing.T) {
	srv, _ := testServer(t)
	h := srv.Handler()
	id := createShare(t, h)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/c/"+id, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/c/"+id, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET after delete status = %d, want 404", rec.Code)
	}
}

func TestExportShare(t *testing.T) {
	srv, _ := testServer(t)
	h := srv.Handler()
	id := createShare(t, h)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/c/"+id+"/export/"+export.FormatMermaidC4, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "C4Context") {
		t.Errorf("artifact missing C4Context header:\n%s", body)
	}
	if !strings.Contains(body, "Enterprise_Boundary(vpc_1") {
		t.Errorf("artifact missing boundary:\n%s", body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
}

func TestExportShareJSONContentType(t *testing.T) {
	srv, _ := testServer(t)
	h := srv.Handler()
	id := createShare(t, h)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/c/"+id+"/export/json", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

// recordingCache wraps a real cache and remembers every key looked up, so
// tests can inspect the keys the export path generates.
type recordingCache struct {
	cache.Cache
	keys []string
}

func (c *recordingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.keys = append(c.keys, key)
	return c.Cache.Get(ctx, key)
}

func TestExportShareScopesCacheKeys(t *testing.T) {
	rc := &recordingCache{Cache: cache.NewMemoryCache()}
	shares := share.NewMemoryStore()
	runner := pipeline.NewRunner(rc, nil, quietLogger())
	srv := New(shares, runner, quietLogger(), Config{ShareTTL: time.Hour})
	h := srv.Handler()

	idA := createShare(t, h)
	idB := createShare(t, h)
	if idA == idB {
		t.Fatalf("share ids collide: %s", idA)
	}

	for _, id := range []string{idA, idB} {
		rc.keys = nil
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/c/"+id+"/export/"+export.FormatMermaidC4, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("export %s status = %d, body = %s", id, rec.Code, rec.Body)
		}
		if len(rc.keys) == 0 {
			t.Fatal("export never consulted the cache")
		}
		for _, key := range rc.keys {
			if !strings.HasPrefix(key, "share:"+id+":") {
				t.Errorf("key %q not scoped to share %s", key, id)
			}
		}
	}

	// Token exports share no id, so their keys stay unscoped.
	token, err := urlstate.Encode(testSnapshot(t))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	rc.keys = nil
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/export/"+export.FormatMermaidC4+"?canvas="+token, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("token export status = %d, body = %s", rec.Code, rec.Body)
	}
	for _, key := range rc.keys {
		if strings.HasPrefix(key, "share:") {
			t.Errorf("token export key %q carries a share scope", key)
		}
	}
}

func TestExportShareUnsupportedFormat(t *testing.T) {
	srv, _ := testServer(t)
	h := srv.Handler()
	id := createShare(t, h)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/c/"+id+"/export/docx", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "UNSUPPORTED_FORMAT") {
		t.Errorf("body = %q, want UNSUPPORTED_FORMAT code", rec.Body)
	}
}

func TestExportToken(t *testing.T) {
	srv, _ := testServer(t)
	token, err := urlstate.Encode(testSnapshot(t))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/export/"+export.FormatMermaidFlowchart+"?canvas="+token, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "flowchart TD") {
		t.Errorf("artifact missing flowchart header:\n%s", rec.Body)
	}
}

func TestExportTokenCorrupt(t *testing.T) {
	srv, _ := testServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/export/json?canvas=%21%21not-a-token", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "DECODE_ERROR") {
		t.Errorf("body = %q, want DECODE_ERROR code", rec.Body)
	}
}

func TestExportTokenMissingParam(t *testing.T) {
	srv, _ := testServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export/json", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
