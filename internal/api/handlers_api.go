package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docnav/internal/catalog"
	naverrors "github.com/dgallion1/docnav/internal/errors"
	"github.com/dgallion1/docnav/internal/logfields"
	"github.com/dgallion1/docnav/internal/navigation"
	"github.com/dgallion1/docnav/internal/routes"
	"github.com/dgallion1/docnav/internal/session"
	"github.com/dgallion1/docnav/internal/topics"
)

type selectionResponse struct {
	URL       string               `json:"url"`
	Title     string               `json:"title"`
	Selection navigation.Selection `json:"selection"`
	Topics    []topics.Node        `json:"topics"`
}

func newSelectionResponse(coord *navigation.Coordinator) selectionResponse {
	sel := coord.Selection()
	visible := coord.VisibleTopics()
	return selectionResponse{
		URL:       sel.URL(),
		Title:     childLabel(visible, sel.Topic, sel.SubTopic),
		Selection: sel,
		Topics:    visible,
	}
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(w, r)
	if err != nil {
		jsonError(w, err.Error(), naverrors.HTTPStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, newSelectionResponse(sess.Coordinator))
}

type navigateRequest struct {
	Kind     string `json:"kind"`
	Value    string `json:"value"`
	SubValue string `json:"sub_value"`
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	kind, err := navigation.ParseKind(req.Kind)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Value == "" {
		jsonError(w, "value is required", http.StatusBadRequest)
		return
	}

	sess, err := s.session(w, r)
	if err != nil {
		jsonError(w, err.Error(), naverrors.HTTPStatus(err))
		return
	}
	if _, err := sess.Coordinator.NavigateTo(r.Context(), kind, req.Value, req.SubValue); err != nil {
		jsonError(w, err.Error(), naverrors.HTTPStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, newSelectionResponse(sess.Coordinator))
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	kind, err := navigation.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	sess, err := s.session(w, r)
	if err != nil {
		jsonError(w, err.Error(), naverrors.HTTPStatus(err))
		return
	}
	entries := sess.Coordinator.Catalog(kind)
	if entries == nil {
		entries = []catalog.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "entries": entries})
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	table := s.Routes()
	writeJSON(w, http.StatusOK, map[string]any{
		"routes": table,
		"paths":  routes.Paths(table),
		"count":  routes.Count(table),
	})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	s.reloadMu.Lock()
	reloader := s.reloader
	s.reloadMu.Unlock()
	if reloader == nil {
		jsonError(w, "manifest reload unavailable", http.StatusServiceUnavailable)
		return
	}

	if err := reloader.Reload(r.Context()); err != nil {
		status := naverrors.HTTPStatus(err)
		var ne *naverrors.NavError
		if !errors.As(err, &ne) {
			// Load failures such as a missing file are the operator's input.
			status = http.StatusBadRequest
		}
		jsonError(w, err.Error(), status)
		return
	}
	s.log.Info("manifest reloaded via api", logfields.Routes(routes.Count(s.Routes())))
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "reloaded",
		"routes": routes.Count(s.Routes()),
	})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	list := []session.Snapshot{}
	s.sessions.Range(func(sess *session.Session) bool {
		list = append(list, sess.Snapshot())
		return true
	})
	writeJSON(w, http.StatusOK, map[string]any{"sessions": list})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
