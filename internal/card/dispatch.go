package card

import (
	"fmt"

	"github.com/desertthunder/webradio/internal/models"
)

// MediaPlayerDomain is the Home Assistant domain every card command targets.
const MediaPlayerDomain = "media_player"

// ContentTypeMusic is the media_content_type sent with every stream.
const ContentTypeMusic = "music"

// Dispatcher sends service calls to the host. Dispatch must not block and reports nothing back:
// the next live status snapshot shows the outcome.
type Dispatcher interface {
	Dispatch(call models.ServiceCall)
}

// DispatcherFunc adapts a function to [Dispatcher].
type DispatcherFunc func(models.ServiceCall)

func (f DispatcherFunc) Dispatch(call models.ServiceCall) { f(call) }

// Action is a named transport control.
type Action string

const (
	ActionPlay      Action = "play"
	ActionPause     Action = "pause"
	ActionStop      Action = "stop"
	ActionPlayPause Action = "play_pause"
	ActionNext      Action = "next"
	ActionPrevious  Action = "previous"
)

var transportServices = map[Action]string{
	ActionPlay:      "media_play",
	ActionPause:     "media_pause",
	ActionStop:      "media_stop",
	ActionPlayPause: "media_play_pause",
	ActionNext:      "media_next_track",
	ActionPrevious:  "media_previous_track",
}

// ParseAction accepts both the short action name and the Home Assistant service name.
func ParseAction(name string) (Action, error) {
	for action, service := range transportServices {
		if name == string(action) || name == service {
			return action, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

// Service returns the media_player service for a.
func (a Action) Service() (string, bool) {
	s, ok := transportServices[a]
	return s, ok
}

// Play streams url on playerID.
func (c *Card) Play(snapshot models.Snapshot, playerID, url string) error {
	if err := c.checkControl(snapshot, playerID); err != nil {
		return err
	}
	c.dispatch(playMedia(playerID, url))
	return nil
}

// SetVolume sets playerID's volume. level is clamped to [0, 1].
func (c *Card) SetVolume(snapshot models.Snapshot, playerID string, level float64) error {
	if err := c.checkControl(snapshot, playerID); err != nil {
		return err
	}
	level = min(max(level, 0), 1)
	c.dispatch(models.ServiceCall{
		Domain:  MediaPlayerDomain,
		Service: "volume_set",
		Data:    map[string]any{"entity_id": playerID, "volume_level": level},
	})
	return nil
}

// ToggleMute dispatches the inverse of the mute flag in snapshot. A missing flag reads as unmuted.
func (c *Card) ToggleMute(snapshot models.Snapshot, playerID string) error {
	if err := c.checkControl(snapshot, playerID); err != nil {
		return err
	}
	st, _ := snapshot.Lookup(playerID)
	c.dispatch(models.ServiceCall{
		Domain:  MediaPlayerDomain,
		Service: "volume_mute",
		Data:    map[string]any{"entity_id": playerID, "is_volume_muted": !st.Muted()},
	})
	return nil
}

// Transport dispatches a transport action with no payload beyond the entity id.
func (c *Card) Transport(snapshot models.Snapshot, playerID string, action Action) error {
	service, ok := action.Service()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if err := c.checkControl(snapshot, playerID); err != nil {
		return err
	}
	c.dispatch(models.ServiceCall{
		Domain:  MediaPlayerDomain,
		Service: service,
		Data:    map[string]any{"entity_id": playerID},
	})
	return nil
}

// Select records a tap on playerID. Taps on unavailable players are ignored.
func (c *Card) Select(snapshot models.Snapshot, playerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.eligible(snapshot, playerID); err != nil {
		return err
	}
	c.selected = playerID
	return nil
}

func (c *Card) checkControl(snapshot models.Snapshot, playerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eligible(snapshot, playerID)
}

func (c *Card) dispatch(call models.ServiceCall) {
	if c.dispatcher == nil {
		c.logger.Warn("no dispatcher, dropping call", "call", call.String())
		return
	}
	c.logger.Debug("dispatch", "call", call.String())
	c.dispatcher.Dispatch(call)
}

func playMedia(playerID, url string) models.ServiceCall {
	return models.ServiceCall{
		Domain:  MediaPlayerDomain,
		Service: "play_media",
		Data: map[string]any{
			"entity_id":          playerID,
			"media_content_id":   url,
			"media_content_type": ContentTypeMusic,
		},
	}
}
