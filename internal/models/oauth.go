package models

import "time"

// TokenResponse is the raw payload returned by the Bling token endpoint
// for both authorization_code and refresh_token grants.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"` // seconds
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// TokenSet is the single active token set held for the process. ExpiresAt
// already carries the safety skew, so a set reported fresh has genuine
// remaining lifetime for the call about to be made.
type TokenSet struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type"`
	Scope        string    `json:"scope,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Fresh reports whether the token still has remaining lifetime at now.
func (t *TokenSet) Fresh(now time.Time) bool {
	return now.Before(t.ExpiresAt)
}

// AuthStatus is the read-only authentication snapshot exposed to callers.
type AuthStatus struct {
	Authenticated bool   `json:"authenticated"`
	ExpiresIn     int    `json:"expires_in,omitempty"` // seconds, floored at 0
	HasRefresh    bool   `json:"has_refresh,omitempty"`
	Scope         string `json:"scope,omitempty"`
}
