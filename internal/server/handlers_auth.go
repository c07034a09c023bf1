package server

import (
	"errors"
	"net/http"

	"github.com/edumoraes/blingsync/internal/clients/bling"
	"github.com/edumoraes/blingsync/internal/services/auth"
)

// handleAuthStart redirects the operator to the Bling authorization page.
func (s *Server) handleAuthStart(w http.ResponseWriter, r *http.Request) {
	authURL, err := s.app.AuthService.BeginAuthorization()
	if err != nil {
		if errors.Is(err, bling.ErrNotConfigured) {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to start authorization")
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// handleAuthCallback consumes the state and code from the provider. On
// success a session cookie is issued (when a session secret is configured)
// and the operator is sent back to the frontend.
func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'code' is required")
		return
	}

	err := s.app.AuthService.CompleteAuthorization(r.Context(), code, state)
	switch {
	case errors.Is(err, auth.ErrInvalidState):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, auth.ErrTokenExchangeFailed):
		writeError(w, http.StatusBadGateway, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.issueSession(w)

	if target := s.app.Config.Server.FrontendURL; target != "" {
		http.Redirect(w, r, target, http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.AuthService.Status())
}

func (s *Server) handleAuthLogout(w http.ResponseWriter, r *http.Request) {
	s.app.AuthService.Logout()
	s.clearSession(w)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
