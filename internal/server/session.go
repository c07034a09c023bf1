package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// sessionCookie carries the operator session JWT. The session only proves
// the operator completed the OAuth flow on this instance; the Bling token
// set itself never leaves the server.
const sessionCookie = "blingsync_session"

// signSession creates a signed HMAC-SHA256 session JWT.
func signSession(secret []byte, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": "operator",
		"iss": "blingsync",
		"iat": now.Unix(),
		"exp": now.Add(expiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// validateSession parses and validates a session JWT.
func validateSession(tokenString string, secret []byte) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return fmt.Errorf("invalid session token")
	}
	return nil
}

// issueSession sets the session cookie when a session secret is configured.
func (s *Server) issueSession(w http.ResponseWriter) {
	secret := s.app.Config.Session.Secret
	if secret == "" {
		return
	}

	expiry := s.app.Config.Session.GetExpiry()
	signed, err := signSession([]byte(secret), expiry)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to sign session token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(expiry.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.app.Config.IsProduction(),
	})
}

// clearSession expires the session cookie.
func (s *Server) clearSession(w http.ResponseWriter) {
	if s.app.Config.Session.Secret == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// requireSession guards a route with the session cookie. With no secret
// configured the guard is a no-op (single-tenant dev mode).
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret := s.app.Config.Session.Secret
		if secret == "" {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(sessionCookie)
		if err != nil || validateSession(cookie.Value, []byte(secret)) != nil {
			writeError(w, http.StatusUnauthorized, "valid session required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
