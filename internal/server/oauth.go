package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// CallbackPath is where Home Assistant redirects after the user approves the login.
const CallbackPath = "/callback"

var (
	ErrInvalidState     = errors.New("invalid state parameter")
	ErrCallbackRepeated = errors.New("callback already processed")
)

// Exchanger trades an authorization code for a token. [oauth2.Config] satisfies it.
type Exchanger interface {
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// OAuthResult is the outcome of one login.
type OAuthResult struct {
	Token *oauth2.Token
	Err   error
}

// OAuthHandler receives the single authorization code callback of a login.
type OAuthHandler struct {
	exchanger Exchanger
	state     string

	mu      sync.Mutex
	handled bool
	once    sync.Once
	result  chan OAuthResult
}

// NewOAuthHandler creates a callback handler that accepts only the given state token.
func NewOAuthHandler(exchanger Exchanger, state string) *OAuthHandler {
	return &OAuthHandler{
		exchanger: exchanger,
		state:     state,
		result:    make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"GET " + CallbackPath}
}

// ServeHTTP validates the state, exchanges the code and publishes the result. Repeated callbacks are rejected.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.handled {
		h.mu.Unlock()
		http.Error(w, ErrCallbackRepeated.Error(), http.StatusBadRequest)
		return
	}
	h.handled = true
	h.mu.Unlock()

	q := r.URL.Query()
	if q.Get("state") != h.state {
		h.Send(OAuthResult{Err: ErrInvalidState})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.Send(OAuthResult{Err: fmt.Errorf("authorization denied: %s", q.Get("error"))})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	token, err := h.exchanger.Exchange(ctx, code)
	if err != nil {
		h.Send(OAuthResult{Err: fmt.Errorf("token exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusBadGateway)
		return
	}

	h.Send(OAuthResult{Token: token})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>webradio</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4rem;">
  <h1>Signed in to Home Assistant</h1>
  <p>You can close this window and return to the terminal.</p>
</body>
</html>
`)
}

// Send publishes result once. Later calls are ignored.
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.result <- result
		close(h.result)
	})
}

// Result receives exactly one result and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.result
}
