package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hwaldner/cloudcanvas/pkg/cache"
	"github.com/hwaldner/cloudcanvas/pkg/errors"
	"github.com/hwaldner/cloudcanvas/pkg/export"
	"github.com/hwaldner/cloudcanvas/pkg/pipeline"
	"github.com/hwaldner/cloudcanvas/pkg/share"
	"github.com/hwaldner/cloudcanvas/pkg/store"
	"github.com/hwaldner/cloudcanvas/pkg/urlstate"
)

// maxSnapshotBytes bounds PUT bodies. Diagrams are small; anything larger
// is a mistake or abuse.
const maxSnapshotBytes = 4 << 20

// contentTypes maps format ids to response content types.
var contentTypes = map[string]string{
	export.FormatJSON: "application/json; charset=utf-8",
	export.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	export.FormatSVG:  "image/svg+xml",
}

func contentType(format string) string {
	if ct, ok := contentTypes[format]; ok {
		return ct
	}
	return "text/plain; charset=utf-8"
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	resp := errorResponse{Error: errors.UserMessage(err), Code: string(errors.GetCode(err))}
	if encodeErr := json.NewEncoder(w).Encode(resp); encodeErr != nil {
		s.logger.Error("write error response", "err", encodeErr)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response", "err", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createShareResponse struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// handleCreateShare stores a snapshot. The body is either snapshot JSON or,
// with ?canvas=, empty with the snapshot carried as a compressed token.
func (s *Server) handleCreateShare(w http.ResponseWriter, r *http.Request) {
	var snap store.Snapshot

	if token := r.URL.Query().Get(urlstate.DefaultParam); token != "" {
		var err error
		snap, err = urlstate.Decode(token)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
	} else {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxSnapshotBytes))
		if err != nil {
			s.writeError(w, http.StatusBadRequest,
				errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
			return
		}
		snap, err = store.UnmarshalSnapshot(body)
		if err != nil {
			s.writeError(w, http.StatusBadRequest,
				errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "parse snapshot"))
			return
		}
	}

	sh := share.New(snap, s.cfg.ShareTTL)
	if err := s.shares.Set(r.Context(), sh); err != nil {
		s.logger.Error("store share", "err", err)
		s.writeError(w, http.StatusInternalServerError,
			errors.New(errors.ErrCodeInternal, "store share"))
		return
	}

	s.logger.Info("stored share", "id", sh.ID, "shapes", len(snap.Shapes))
	s.writeJSON(w, http.StatusCreated, createShareResponse{ID: sh.ID, ExpiresAt: sh.ExpiresAt})
}

// loadShare fetches a share or writes the appropriate error response.
func (s *Server) loadShare(w http.ResponseWriter, r *http.Request) (*share.Share, bool) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateShareID(id); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return nil, false
	}

	sh, err := s.shares.Get(r.Context(), id)
	if err != nil {
		s.logger.Error("load share", "id", id, "err", err)
		s.writeError(w, http.StatusInternalServerError,
			errors.New(errors.ErrCodeInternal, "load share"))
		return nil, false
	}
	if sh == nil {
		s.writeError(w, http.StatusNotFound,
			errors.New(errors.ErrCodeShareNotFound, "share not found: %s", id))
		return nil, false
	}
	return sh, true
}

func (s *Server) handleGetShare(w http.ResponseWriter, r *http.Request) {
	sh, ok := s.loadShare(w, r)
	if !ok {
		return
	}

	data, err := store.MarshalSnapshot(sh.Snapshot)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError,
			errors.Wrap(errors.ErrCodeInternal, err, "marshal snapshot"))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Error("write snapshot", "err", err)
	}
}

func (s *Server) handleDeleteShare(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateShareID(id); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.shares.Delete(r.Context(), id); err != nil {
		s.logger.Error("delete share", "id", id, "err", err)
		s.writeError(w, http.StatusInternalServerError,
			errors.New(errors.ErrCodeInternal, "delete share"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportShare(w http.ResponseWriter, r *http.Request) {
	sh, ok := s.loadShare(w, r)
	if !ok {
		return
	}
	// Cache keys are scoped per share so entries can be purged with the
	// share and never collide with token exports of the same content.
	s.export(w, r, sh.Snapshot, "share:"+sh.ID+":")
}

// handleExportToken exports directly from a ?canvas= token without storing
// a share.
func (s *Server) handleExportToken(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get(urlstate.DefaultParam)
	if token == "" {
		s.writeError(w, http.StatusBadRequest,
			errors.New(errors.ErrCodeInvalidInput, "missing %s parameter", urlstate.DefaultParam))
		return
	}

	snap, err := urlstate.Decode(token)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.export(w, r, snap, "")
}

// export runs the pipeline over a snapshot and writes one artifact. A
// non-empty keyScope prefixes every cache key the run produces.
func (s *Server) export(w http.ResponseWriter, r *http.Request, snap store.Snapshot, keyScope string) {
	format := chi.URLParam(r, "format")
	if err := export.ValidateFormat(format); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	runner := s.runner
	if keyScope != "" {
		scoped := *s.runner
		scoped.Keyer = cache.NewScopedKeyer(s.runner.Keyer, keyScope)
		runner = &scoped
	}

	st := store.New()
	st.LoadSnapshot(snap)

	opts := pipeline.Options{
		Formats: []string{format},
		Logger:  s.logger,
	}
	if q := r.URL.Query(); q.Get("layout") == "true" {
		opts.Layout = true
		opts.Resolve = true
	}

	result, err := runner.Execute(r.Context(), st, opts)
	if err != nil {
		s.logger.Error("export", "format", format, "err", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	art := result.Artifacts[format]
	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(art.Content); err != nil {
		s.logger.Error("write artifact", "err", err)
	}
}
