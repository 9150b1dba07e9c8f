// Home Assistant REST API client
//
// Endpoints based on https://developers.home-assistant.io/docs/api/rest/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/webradio/internal/models"
	"github.com/desertthunder/webradio/internal/shared"
	"golang.org/x/oauth2"
)

const defaultHassURL = "http://homeassistant.local:8123"

// HassService calls the Home Assistant REST API.
type HassService struct {
	baseURL    string
	httpClient *http.Client
}

// NewHassService creates a client for the instance at baseURL with a long-lived access token.
//
// The token is sent as a bearer token through an [oauth2.StaticTokenSource]. base supplies the underlying transport
// and defaults to [http.DefaultClient].
func NewHassService(baseURL, token string, timeout time.Duration, base *http.Client) (*HassService, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: home assistant access token", shared.ErrMissingCredentials)
	}
	return NewHassServiceWithTokenSource(baseURL, StaticToken(token), timeout, base), nil
}

// NewHassServiceWithTokenSource creates a client that authorizes every request with a token from ts, as obtained by
// the OAuth login flow.
func NewHassServiceWithTokenSource(baseURL string, ts oauth2.TokenSource, timeout time.Duration, base *http.Client) *HassService {
	if baseURL == "" {
		baseURL = defaultHassURL
	}
	if base == nil {
		base = http.DefaultClient
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	client := oauth2.NewClient(ctx, ts)
	client.Timeout = timeout

	return &HassService{baseURL: strings.TrimSuffix(baseURL, "/"), httpClient: client}
}

// StaticToken wraps a long-lived access token.
func StaticToken(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
}

func (h *HassService) BaseURL() string { return h.baseURL }

// Ping checks that the API is reachable and the token is accepted.
func (h *HassService) Ping(ctx context.Context) error {
	var body struct {
		Message string `json:"message"`
	}
	return h.do(ctx, http.MethodGet, "/api/", nil, &body)
}

// States returns every entity state.
func (h *HassService) States(ctx context.Context) ([]models.EntityState, error) {
	var states []models.EntityState
	if err := h.do(ctx, http.MethodGet, "/api/states", nil, &states); err != nil {
		return nil, err
	}
	return states, nil
}

// Snapshot returns the current states indexed by entity id.
func (h *HassService) Snapshot(ctx context.Context) (models.Snapshot, error) {
	states, err := h.States(ctx)
	if err != nil {
		return nil, err
	}
	return models.NewSnapshot(states), nil
}

// State returns one entity's state.
func (h *HassService) State(ctx context.Context, entityID string) (models.EntityState, error) {
	var st models.EntityState
	err := h.do(ctx, http.MethodGet, "/api/states/"+url.PathEscape(entityID), nil, &st)
	return st, err
}

// MediaPlayers returns the states of every media_player entity.
func (h *HassService) MediaPlayers(ctx context.Context) ([]models.EntityState, error) {
	states, err := h.States(ctx)
	if err != nil {
		return nil, err
	}

	players := make([]models.EntityState, 0)
	for _, st := range states {
		if strings.HasPrefix(st.EntityID, "media_player.") {
			players = append(players, st)
		}
	}
	return players, nil
}

// CallService invokes a service. The response, a list of changed states, is discarded.
func (h *HassService) CallService(ctx context.Context, call models.ServiceCall) error {
	if call.Domain == "" || call.Service == "" {
		return fmt.Errorf("%w: service call needs a domain and a service", shared.ErrInvalidInput)
	}

	data := call.Data
	if data == nil {
		data = map[string]any{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode service data: %w", err)
	}

	path := fmt.Sprintf("/api/services/%s/%s", url.PathEscape(call.Domain), url.PathEscape(call.Service))
	return h.do(ctx, http.MethodPost, path, payload, nil)
}

// do sends a request and decodes a JSON response into out when out is non-nil.
func (h *HassService) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s %s returned %d", shared.ErrAuthFailed, method, path, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrEntityNotFound, path)
	case resp.StatusCode >= 300:
		return fmt.Errorf("%w: %s %s returned %d: %s", shared.ErrAPIRequest, method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
