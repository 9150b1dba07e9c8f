package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/webradio/internal/models"
	"github.com/desertthunder/webradio/internal/shared"
	tu "github.com/desertthunder/webradio/internal/testing"
)

const statesJSON = `[
	{"entity_id":"media_player.kitchen","state":"playing","attributes":{"friendly_name":"Kitchen","volume_level":0.5}},
	{"entity_id":"light.hall","state":"on","attributes":{}},
	{"entity_id":"media_player.den","state":"unavailable","attributes":{}}
]`

func newTestHass(t *testing.T, handler http.HandlerFunc) *HassService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewHassService(server.URL+"/", "secret", time.Second, nil)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc
}

func TestHassService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("MissingToken", func(t *testing.T) {
			_, err := NewHassService("http://example.com", " ", time.Second, nil)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("DefaultURL", func(t *testing.T) {
			svc, err := NewHassService("", "secret", time.Second, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if svc.BaseURL() != defaultHassURL {
				t.Errorf("expected default URL, got %s", svc.BaseURL())
			}
		})

	})

	t.Run("BearerToken", func(t *testing.T) {
		svc := newTestHass(t, func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer secret" {
				t.Errorf("expected bearer token, got %q", got)
			}
			if r.URL.Path != "/api/" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Write([]byte(`{"message":"API running."}`))
		})

		if err := svc.Ping(context.Background()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Snapshot", func(t *testing.T) {
		svc := newTestHass(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(statesJSON))
		})

		snap, err := svc.Snapshot(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		kitchen, ok := snap.Lookup("media_player.kitchen")
		if !ok || kitchen.State != models.StatePlaying || kitchen.Attributes.FriendlyName != "Kitchen" {
			t.Errorf("unexpected kitchen state %+v", kitchen)
		}
		if len(snap) != 3 {
			t.Errorf("expected 3 entities, got %d", len(snap))
		}
	})

	t.Run("MediaPlayers", func(t *testing.T) {
		svc := newTestHass(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(statesJSON))
		})

		players, err := svc.MediaPlayers(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(players) != 2 {
			t.Errorf("expected 2 media players, got %d", len(players))
		}
	})

	t.Run("State", func(t *testing.T) {
		svc := newTestHass(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/states/media_player.kitchen" {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"message":"Entity not found."}`))
				return
			}
			w.Write([]byte(`{"entity_id":"media_player.kitchen","state":"idle","attributes":{}}`))
		})

		st, err := svc.State(context.Background(), "media_player.kitchen")
		if err != nil || st.State != models.StateIdle {
			t.Errorf("unexpected result %+v, %v", st, err)
		}

		_, err = svc.State(context.Background(), "media_player.attic")
		if !errors.Is(err, shared.ErrEntityNotFound) {
			t.Errorf("expected ErrEntityNotFound, got %v", err)
		}
	})

	t.Run("CallService", func(t *testing.T) {
		var gotPath string
		var gotBody map[string]any
		svc := newTestHass(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected JSON content type, got %q", ct)
			}
			gotPath = r.URL.Path
			body, _ := io.ReadAll(r.Body)
			json.Unmarshal(body, &gotBody)
			w.Write([]byte(`[]`))
		})

		call := models.ServiceCall{
			Domain:  "media_player",
			Service: "play_media",
			Data:    map[string]any{"entity_id": "media_player.kitchen", "media_content_id": "u1", "media_content_type": "music"},
		}
		if err := svc.CallService(context.Background(), call); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotPath != "/api/services/media_player/play_media" {
			t.Errorf("unexpected path %s", gotPath)
		}
		if gotBody["media_content_id"] != "u1" || gotBody["media_content_type"] != "music" {
			t.Errorf("unexpected body %v", gotBody)
		}
	})

	t.Run("CallServiceValidation", func(t *testing.T) {
		svc, _ := NewHassService("http://example.com", "secret", time.Second, nil)
		err := svc.CallService(context.Background(), models.ServiceCall{Service: "media_play"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Errors", func(t *testing.T) {
		tests := []struct {
			name   string
			status int
			want   error
		}{
			{"Unauthorized", http.StatusUnauthorized, shared.ErrAuthFailed},
			{"Forbidden", http.StatusForbidden, shared.ErrAuthFailed},
			{"BadRequest", http.StatusBadRequest, shared.ErrAPIRequest},
			{"ServerError", http.StatusInternalServerError, shared.ErrAPIRequest},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc := newTestHass(t, func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
				})
				if err := svc.Ping(context.Background()); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})

	t.Run("TransportFailure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		svc, _ := NewHassService("http://example.com", "secret", time.Second, client)

		if _, err := svc.States(context.Background()); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("ReadFailure", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}
		client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}
		svc, _ := NewHassService("http://example.com", "secret", time.Second, client)

		if _, err := svc.States(context.Background()); err == nil {
			t.Error("expected read error")
		}
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		svc := newTestHass(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{not json`))
		})
		if _, err := svc.States(context.Background()); err == nil {
			t.Error("expected decode error")
		}
	})
}
