// Home Assistant WebSocket API client
//
// Protocol based on https://developers.home-assistant.io/docs/api/websocket/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/webradio/internal/models"
	"github.com/desertthunder/webradio/internal/shared"
	"github.com/gorilla/websocket"
	"golang.org/x/oauth2"
)

const (
	msgAuthRequired = "auth_required"
	msgAuth         = "auth"
	msgAuthOK       = "auth_ok"
	msgAuthInvalid  = "auth_invalid"
	msgResult       = "result"
	msgEvent        = "event"

	eventStateChanged = "state_changed"
)

type wsMessage struct {
	ID          int             `json:"id,omitempty"`
	Type        string          `json:"type"`
	AccessToken string          `json:"access_token,omitempty"`
	EventType   string          `json:"event_type,omitempty"`
	Success     *bool           `json:"success,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Event       *wsEvent        `json:"event,omitempty"`
	Message     string          `json:"message,omitempty"`
	Error       *wsError        `json:"error,omitempty"`
}

type wsError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type wsEvent struct {
	EventType string `json:"event_type"`
	Data      struct {
		EntityID string              `json:"entity_id"`
		NewState *models.EntityState `json:"new_state"`
	} `json:"data"`
}

// StateStream keeps a live [models.Snapshot] from the Home Assistant WebSocket API.
//
// Each snapshot is immutable: updates replace it with a copy. Subscribers receive the latest snapshot and may miss
// intermediate ones.
type StateStream struct {
	url    string
	tokens oauth2.TokenSource
	dialer *websocket.Dialer
	logger *log.Logger

	mu       sync.RWMutex
	snapshot models.Snapshot
	subs     map[int]chan models.Snapshot
	nextSub  int

	// MaxBackoff caps the delay between reconnects.
	MaxBackoff time.Duration
}

// NewStateStream creates a stream for the websocket endpoint wsURL. tokens is asked for a fresh access token on every
// connection attempt.
func NewStateStream(wsURL string, tokens oauth2.TokenSource, logger *log.Logger) *StateStream {
	if logger == nil {
		logger = log.Default()
	}
	return &StateStream{
		url:        wsURL,
		tokens:     tokens,
		dialer:     &websocket.Dialer{HandshakeTimeout: 10 * time.Second, Proxy: http.ProxyFromEnvironment},
		logger:     logger.With("component", "stream"),
		snapshot:   models.Snapshot{},
		subs:       make(map[int]chan models.Snapshot),
		MaxBackoff: 30 * time.Second,
	}
}

// Snapshot returns the latest snapshot.
func (s *StateStream) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Subscribe returns a channel of snapshots and a function that ends the subscription.
func (s *StateStream) Subscribe() (<-chan models.Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan models.Snapshot, 1)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// Run connects and follows state changes until ctx is cancelled, reconnecting with exponential backoff.
// A rejected token ends Run with [shared.ErrAuthFailed].
func (s *StateStream) Run(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 0
	b.MaxInterval = s.MaxBackoff
	if b.InitialInterval > b.MaxInterval {
		b.InitialInterval = b.MaxInterval
	}
	b.Reset()

	for {
		err := s.session(ctx, b.Reset)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, shared.ErrAuthFailed) {
			return err
		}

		wait := b.NextBackOff()
		s.logger.Warn("state stream disconnected", "error", err, "retry_in", wait)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

// session runs one connection. connected is called once the initial states are loaded.
func (s *StateStream) session(ctx context.Context, connected func()) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		conn.Close()
	})
	defer stop()

	if err := s.authenticate(conn); err != nil {
		return err
	}

	if err := conn.WriteJSON(wsMessage{ID: 1, Type: "get_states"}); err != nil {
		return fmt.Errorf("failed to request states: %w", err)
	}
	if err := conn.WriteJSON(wsMessage{ID: 2, Type: "subscribe_events", EventType: eventStateChanged}); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrStreamClosed, err)
		}

		switch msg.Type {
		case msgResult:
			if msg.Success != nil && !*msg.Success {
				reason := "unknown error"
				if msg.Error != nil {
					reason = msg.Error.Message
				}
				return fmt.Errorf("%w: request %d failed: %s", shared.ErrAPIRequest, msg.ID, reason)
			}
			if msg.ID == 1 {
				var states []models.EntityState
				if err := json.Unmarshal(msg.Result, &states); err != nil {
					return fmt.Errorf("failed to decode states: %w", err)
				}
				s.publish(models.NewSnapshot(states))
				s.logger.Info("state stream connected", "entities", len(states))
				connected()
			}
		case msgEvent:
			if msg.Event == nil || msg.Event.EventType != eventStateChanged {
				continue
			}
			s.apply(msg.Event.Data.EntityID, msg.Event.Data.NewState)
		}
	}
}

func (s *StateStream) authenticate(conn *websocket.Conn) error {
	var hello wsMessage
	if err := conn.ReadJSON(&hello); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStreamClosed, err)
	}
	if hello.Type != msgAuthRequired {
		return fmt.Errorf("%w: unexpected greeting %q", shared.ErrAPIRequest, hello.Type)
	}

	tok, err := s.tokens.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	if err := conn.WriteJSON(wsMessage{Type: msgAuth, AccessToken: tok.AccessToken}); err != nil {
		return fmt.Errorf("failed to send auth: %w", err)
	}

	var reply wsMessage
	if err := conn.ReadJSON(&reply); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStreamClosed, err)
	}
	switch reply.Type {
	case msgAuthOK:
		return nil
	case msgAuthInvalid:
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, reply.Message)
	default:
		return fmt.Errorf("%w: unexpected auth reply %q", shared.ErrAPIRequest, reply.Type)
	}
}

// apply replaces one entity. A nil state means the entity was removed.
func (s *StateStream) apply(entityID string, st *models.EntityState) {
	s.mu.RLock()
	current := s.snapshot
	s.mu.RUnlock()

	if st == nil {
		s.publish(current.Without(entityID))
		return
	}
	if st.EntityID == "" {
		st.EntityID = entityID
	}
	s.publish(current.With(*st))
}

func (s *StateStream) publish(next models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = next
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- next
	}
}
