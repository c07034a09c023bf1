package server

import "net/http"

// registerRoutes mounts all API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/version", s.handleVersion)

	mux.HandleFunc("GET /api/auth/start", s.handleAuthStart)
	mux.HandleFunc("GET /api/auth/callback", s.handleAuthCallback)
	mux.HandleFunc("GET /api/auth/status", s.handleAuthStatus)
	mux.HandleFunc("POST /api/auth/logout", s.handleAuthLogout)

	mux.HandleFunc("POST /api/bn/preview", s.handlePreview)
	mux.Handle("POST /api/bn/patch", s.requireSession(http.HandlerFunc(s.handlePatch)))
}
