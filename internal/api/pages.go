package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	naverrors "github.com/dgallion1/docnav/internal/errors"
	"github.com/dgallion1/docnav/internal/logfields"
	"github.com/dgallion1/docnav/internal/navigation"
	"github.com/dgallion1/docnav/internal/routes"
	"github.com/dgallion1/docnav/internal/session"
	"github.com/dgallion1/docnav/internal/topics"
)

const sessionCookie = "docnav_session"

// pageRouter registers one GET route per path in table. Section-level paths
// redirect to their first topic; paths nested below the sub-topic level
// resolve to their sub-topic page.
func (s *Server) pageRouter(m *topics.Manifest, table []routes.Spec) (h http.Handler, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = naverrors.InvalidManifest(fmt.Sprintf("route table: %v", r))
		}
	}()

	r := chi.NewRouter()
	r.Use(middleware.StripSlashes)
	for _, p := range routes.Paths(table) {
		segs := strings.Split(p, "/")
		switch {
		case len(segs) == 2:
			r.Get("/"+p, s.sectionRedirect(m, segs[0], segs[1]))
		case len(segs) > 4:
			r.Get("/"+p, s.page(strings.Join(segs[:4], "/")))
		default:
			r.Get("/"+p, s.page(p))
		}
	}
	r.NotFound(s.handleNotFound)
	return r, nil
}

// session returns the caller's session, starting one when the cookie is
// missing or stale.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, error) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if sess := s.sessions.Get(c.Value); sess != nil {
			return sess, nil
		}
	}
	sess, err := s.sessions.Create("")
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

func (s *Server) page(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.session(w, r)
		if err != nil {
			s.serverError(w, err)
			return
		}
		coord := sess.Coordinator
		canonical, err := coord.RestoreURL(r.Context(), path)
		if err != nil {
			s.log.Debug("page restore failed", logfields.URL(path), logfields.SessionID(sess.ID), logfields.Error(err))
			s.writePage(w, r, coord, err.Error(), naverrors.HTTPStatus(err))
			return
		}
		if "/"+canonical != strings.TrimRight(r.URL.Path, "/") {
			target := "/" + canonical
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		s.writePage(w, r, coord, r.URL.Query().Get("error"), http.StatusOK)
	}
}

func (s *Server) sectionRedirect(m *topics.Manifest, version, section string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		first, ok := topics.First(m.Topics.Roots(version, section))
		if !ok {
			err := naverrors.NoContentForSelection(version, section)
			s.writeError(w, r, err)
			return
		}
		sel := navigation.Selection{Version: version, Section: section, Topic: first.Topic, SubTopic: first.SubTopic}
		http.Redirect(w, r, "/"+sel.URL(), http.StatusFound)
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(w, r)
	if err != nil {
		s.serverError(w, err)
		return
	}
	http.Redirect(w, r, "/"+sess.Coordinator.Selection().URL(), http.StatusFound)
}

// handleNav navigates the session and redirects to the resulting page. A
// rejected navigation redirects back to the current page with the reason.
func (s *Server) handleNav(w http.ResponseWriter, r *http.Request) {
	kind, err := navigation.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		s.handleNotFound(w, r)
		return
	}
	sess, err := s.session(w, r)
	if err != nil {
		s.serverError(w, err)
		return
	}
	coord := sess.Coordinator

	dest, err := coord.NavigateTo(r.Context(), kind, chi.URLParam(r, "value"), r.URL.Query().Get("sub"))
	if err != nil {
		q := url.Values{"error": {err.Error()}}
		http.Redirect(w, r, "/"+coord.Selection().URL()+"?"+q.Encode(), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/"+dest, http.StatusSeeOther)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, naverrors.MalformedURL(r.URL.Path))
}

// writeError shows err on the caller's current page, or as plain text when
// no session can be started.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	sess, serr := s.session(w, r)
	if serr != nil {
		http.Error(w, err.Error(), naverrors.HTTPStatus(err))
		return
	}
	s.writePage(w, r, sess.Coordinator, err.Error(), naverrors.HTTPStatus(err))
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.log.Error("request failed", logfields.Error(err))
	http.Error(w, err.Error(), naverrors.HTTPStatus(err))
}
