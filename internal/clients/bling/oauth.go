package bling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/edumoraes/blingsync/internal/common"
	"github.com/edumoraes/blingsync/internal/interfaces"
	"github.com/edumoraes/blingsync/internal/models"
)

// ErrNotConfigured is returned when the OAuth client id or redirect URI is
// missing. This is a fatal configuration problem, never retried.
var ErrNotConfigured = errors.New("bling oauth client id and redirect uri are required")

// OAuthClient implements the OAuthClient interface against the Bling v3
// OAuth provider using HTTP Basic client credentials.
type OAuthClient struct {
	authorizeURL string
	tokenURL     string
	clientID     string
	clientSecret string
	redirectURI  string
	scope        string
	httpClient   *http.Client
	logger       *common.Logger
}

// OAuthOption configures the OAuth client.
type OAuthOption func(*OAuthClient)

// WithEndpoints overrides the authorize and token URLs.
func WithEndpoints(authorizeURL, tokenURL string) OAuthOption {
	return func(c *OAuthClient) {
		c.authorizeURL = authorizeURL
		c.tokenURL = tokenURL
	}
}

// WithOAuthLogger sets the logger.
func WithOAuthLogger(logger *common.Logger) OAuthOption {
	return func(c *OAuthClient) {
		c.logger = logger
	}
}

// WithOAuthTimeout sets the HTTP timeout for token exchanges.
func WithOAuthTimeout(timeout time.Duration) OAuthOption {
	return func(c *OAuthClient) {
		c.httpClient.Timeout = timeout
	}
}

// NewOAuthClient creates a new Bling OAuth client.
func NewOAuthClient(clientID, clientSecret, redirectURI, scope string, opts ...OAuthOption) *OAuthClient {
	c := &OAuthClient{
		authorizeURL: common.DefaultAuthorizeURL,
		tokenURL:     common.DefaultTokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		scope:        scope,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// AuthorizeURL builds the authorization redirect URL embedding the given
// single-use state nonce.
func (c *OAuthClient) AuthorizeURL(state string) (string, error) {
	if c.clientID == "" || c.redirectURI == "" {
		return "", ErrNotConfigured
	}

	u, err := url.Parse(c.authorizeURL)
	if err != nil {
		return "", fmt.Errorf("invalid authorize url: %w", err)
	}

	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", c.redirectURI)
	if c.scope != "" {
		q.Set("scope", c.scope)
	}
	q.Set("state", state)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// ExchangeCode trades an authorization code for a token response.
func (c *OAuthClient) ExchangeCode(ctx context.Context, code string) (*models.TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.redirectURI)

	return c.postToken(ctx, form)
}

// RefreshToken trades a refresh token for a new token response.
func (c *OAuthClient) RefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	return c.postToken(ctx, form)
}

// postToken performs a Basic-authenticated form POST against the token
// endpoint. A response without an access token is an error carrying the
// upstream payload for diagnostics.
func (c *OAuthClient) postToken(ctx context.Context, form url.Values) (*models.TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.clientID, c.clientSecret)

	c.logger.Debug().Str("grant_type", form.Get("grant_type")).Msg("Bling token request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var tr models.TokenResponse
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &tr)
	}

	if tr.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint returned no access token (status %d): %s", resp.StatusCode, string(raw))
	}

	return &tr, nil
}

// Ensure OAuthClient implements the interface
var _ interfaces.OAuthClient = (*OAuthClient)(nil)
