// Home Assistant OAuth2 login
//
// Flow based on https://developers.home-assistant.io/docs/auth_api/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/desertthunder/webradio/internal/shared"
	"golang.org/x/oauth2"
)

// TokenKey is the storage key for the token obtained by the login flow.
const TokenKey = "hassOAuthToken"

// KeyValue is a single-value-per-key store, as implemented by the repositories.
type KeyValue interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// HassOAuthConfig describes the authorization code flow of the instance at baseURL.
//
// Home Assistant identifies clients by URL rather than by registered id: the client id is the callback origin and
// there is no secret.
func HassOAuthConfig(baseURL, redirectURL string) (*oauth2.Config, error) {
	if baseURL == "" {
		baseURL = defaultHassURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	clientID, _, ok := strings.Cut(strings.TrimPrefix(strings.TrimPrefix(redirectURL, "http://"), "https://"), "/")
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: redirect url %q has no path", shared.ErrInvalidConfig, redirectURL)
	}
	scheme := "http://"
	if strings.HasPrefix(redirectURL, "https://") {
		scheme = "https://"
	}

	return &oauth2.Config{
		ClientID:    scheme + clientID + "/",
		RedirectURL: redirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:   baseURL + "/auth/authorize",
			TokenURL:  baseURL + "/auth/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}, nil
}

// LoadToken reads a stored token. A missing token returns [shared.ErrNotAuthenticated].
func LoadToken(store KeyValue) (*oauth2.Token, error) {
	raw, ok, err := store.Get(TokenKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	if !ok {
		return nil, shared.ErrNotAuthenticated
	}

	var tok oauth2.Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return nil, fmt.Errorf("%w: stored token is corrupt: %v", shared.ErrNotAuthenticated, err)
	}
	return &tok, nil
}

// SaveToken stores tok, replacing any previous one.
func SaveToken(store KeyValue, tok *oauth2.Token) error {
	raw, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return store.Set(TokenKey, string(raw))
}

// refreshableTokenSource reports every token that differs from the last one it handed out, so refreshed tokens can
// be persisted.
type refreshableTokenSource struct {
	mu       sync.Mutex
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	last     string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	tok, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := tok.AccessToken != r.last
	r.last = tok.AccessToken
	r.mu.Unlock()

	if changed && r.callback != nil {
		r.callback(tok)
	}
	return tok, nil
}

// ResolveTokenSource picks the credentials for cfg: the configured long-lived token when set, otherwise the token
// stored by the login flow, refreshed on expiry and written back to store.
func ResolveTokenSource(cfg shared.HomeAssistantConfig, redirectURL string, store KeyValue) (oauth2.TokenSource, error) {
	if strings.TrimSpace(cfg.Token) != "" {
		return StaticToken(cfg.Token), nil
	}
	if store == nil {
		return nil, fmt.Errorf("%w: set home_assistant.token or %s", shared.ErrMissingCredentials, shared.TokenEnv)
	}

	tok, err := LoadToken(store)
	if err != nil {
		return nil, fmt.Errorf("%w: set home_assistant.token or run 'webradio auth login' (%v)", shared.ErrMissingCredentials, err)
	}

	conf, err := HassOAuthConfig(cfg.URL, redirectURL)
	if err != nil {
		return nil, err
	}

	source := &refreshableTokenSource{
		source: conf.TokenSource(context.Background(), tok),
		last:   tok.AccessToken,
		callback: func(t *oauth2.Token) {
			_ = SaveToken(store, t)
		},
	}
	return source, nil
}
