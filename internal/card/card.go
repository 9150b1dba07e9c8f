package card

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/webradio/internal/models"
	"github.com/desertthunder/webradio/internal/shared"
)

var (
	ErrNoConfig      = errors.New("card has no valid configuration")
	ErrNoDrag        = errors.New("no drag in progress")
	ErrUnknownPlayer = errors.New("player is not configured on this card")
	ErrUnavailable   = errors.New("player is unavailable")
	ErrUnknownAction = errors.New("unknown transport action")
)

// DefaultLongPressDelay is how long a press must be held to open the detail view.
const DefaultLongPressDelay = 500 * time.Millisecond

// Store persists a single string value per key.
type Store interface {
	// Get returns the stored value and whether one exists.
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// DragState is the card's position in the drag and drop state machine.
type DragState int

const (
	Idle DragState = iota
	Dragging
	HoveringTarget
)

func (s DragState) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case HoveringTarget:
		return "hovering"
	default:
		return "idle"
	}
}

// Events are the card's outbound signals.
type Events struct {
	// ShowDetails fires when a player tile is long-pressed.
	ShowDetails func(entityID string)
}

// Option configures a [Card].
type Option func(*Card)

// WithStorageKey overrides the key the connection map is stored under.
func WithStorageKey(key string) Option {
	return func(c *Card) {
		if strings.TrimSpace(key) != "" {
			c.key = key
		}
	}
}

// WithLogger sets the logger; the card logs through a child tagged with its id.
func WithLogger(logger *log.Logger) Option {
	return func(c *Card) { c.logger = logger }
}

// WithLongPressDelay overrides how long a press must be held to open the details view. Non-positive values are ignored.
func WithLongPressDelay(d time.Duration) Option {
	return func(c *Card) {
		if d > 0 {
			c.longPressDelay = d
		}
	}
}

// WithEvents sets the handlers notified of outbound card events.
func WithEvents(events Events) Option {
	return func(c *Card) { c.events = events }
}

// Card holds the connection map, the current drag and the active long-press timers.
//
// All methods are safe for concurrent use.
type Card struct {
	mu sync.Mutex

	id             string
	key            string
	store          Store
	dispatcher     Dispatcher
	logger         *log.Logger
	events         Events
	longPressDelay time.Duration

	config      *models.CardConfig
	connections models.Connections
	dragged     *models.Station
	hover       string
	selected    string

	presses map[string]*press
	seq     uint64
}

// New creates a card and loads the persisted connection map. Missing or corrupt data yields an empty map.
func New(store Store, dispatcher Dispatcher, opts ...Option) *Card {
	c := &Card{
		id:             shared.ShortID(),
		key:            models.DefaultStorageKey,
		store:          store,
		dispatcher:     dispatcher,
		longPressDelay: DefaultLongPressDelay,
		connections:    models.Connections{},
		presses:        make(map[string]*press),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	c.logger = shared.WithLogger(c.logger, "component", "card", "card", c.id)
	c.connections = c.load()
	return c
}

func (c *Card) load() models.Connections {
	if c.store == nil {
		return models.Connections{}
	}

	raw, ok, err := c.store.Get(c.key)
	if err != nil {
		c.logger.Debug("could not read stored connections", "key", c.key, "error", err)
		return models.Connections{}
	}
	if !ok {
		return models.Connections{}
	}

	conns, err := models.ParseConnections(raw)
	if err != nil {
		c.logger.Debug("ignoring corrupt stored connections", "key", c.key, "error", err)
		return models.Connections{}
	}

	c.logger.Debug("loaded connections", "count", len(conns))
	return conns
}

// ID identifies this card instance in logs.
func (c *Card) ID() string { return c.id }

// StorageKey returns the key the connection map is persisted under.
func (c *Card) StorageKey() string { return c.key }

// SetConfig validates and adopts cfg. An invalid configuration clears the current one.
func (c *Card) SetConfig(cfg models.CardConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := cfg.Validate(); err != nil {
		c.config = nil
		c.resetDrag()
		return err
	}

	clone := cfg.Clone()
	c.config = &clone
	if _, ok := clone.Player(c.selected); !ok {
		c.selected = ""
	}
	c.logger.Debug("configuration set", "stations", len(clone.Stations), "players", len(clone.MediaPlayers))
	return nil
}

// Config returns a copy of the current configuration.
func (c *Card) Config() (models.CardConfig, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.config == nil {
		return models.CardConfig{}, false
	}
	return c.config.Clone(), true
}

// BeginDrag records station as the drag source.
func (c *Card) BeginDrag(station models.Station) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := station
	c.dragged = &s
	c.hover = ""
}

// HoverTarget marks playerID as the drop target while a drag is active.
func (c *Card) HoverTarget(playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dragged == nil {
		return
	}
	c.hover = playerID
}

// ClearHover removes the drop target highlight.
func (c *Card) ClearHover() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hover = ""
}

// CancelDrag abandons the current drag without committing.
func (c *Card) CancelDrag() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetDrag()
}

// Drop commits the dragged station to playerID.
//
// The drop commits only when a drag is active and the player is configured and available in snapshot. A commit writes
// the connection, persists the whole map and dispatches one play_media call. Drag and hover state are cleared either way.
func (c *Card) Drop(snapshot models.Snapshot, playerID string) error {
	c.mu.Lock()
	station := c.dragged
	c.resetDrag()

	if station == nil {
		c.mu.Unlock()
		return ErrNoDrag
	}
	if err := c.eligible(snapshot, playerID); err != nil {
		c.mu.Unlock()
		c.logger.Debug("drop rejected", "player", playerID, "station", station.Name, "reason", err)
		return err
	}

	next := c.connections.Clone()
	next[playerID] = *station
	if err := c.persist(next); err != nil {
		c.mu.Unlock()
		c.logger.Error("drop not committed", "player", playerID, "error", err)
		return err
	}
	c.connections = next
	c.mu.Unlock()

	c.logger.Info("connected", "player", playerID, "station", station.Name)
	c.dispatch(playMedia(playerID, station.URL))
	return nil
}

// Connections returns a copy of the connection map.
func (c *Card) Connections() models.Connections {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connections.Clone()
}

// State reports where the card is in the drag and drop cycle.
func (c *Card) State() DragState {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.dragged == nil:
		return Idle
	case c.hover != "":
		return HoveringTarget
	default:
		return Dragging
	}
}

// Selected returns the last tapped player.
func (c *Card) Selected() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

func (c *Card) resetDrag() {
	c.dragged = nil
	c.hover = ""
}

func (c *Card) persist(next models.Connections) error {
	if c.store == nil {
		return nil
	}
	raw, err := next.Encode()
	if err != nil {
		return fmt.Errorf("encode connections: %w", err)
	}
	if err := c.store.Set(c.key, raw); err != nil {
		return fmt.Errorf("persist connections: %w", err)
	}
	return nil
}

// eligible reports why playerID cannot be acted on. Callers hold c.mu.
func (c *Card) eligible(snapshot models.Snapshot, playerID string) error {
	if c.config == nil {
		return fmt.Errorf("%w: %w", ErrUnknownPlayer, ErrNoConfig)
	}
	if _, ok := c.config.Player(playerID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	if Unavailable(snapshot, playerID) {
		return fmt.Errorf("%w: %s", ErrUnavailable, playerID)
	}
	return nil
}

// Unavailable reports whether playerID has no live status or reports unavailable or unknown.
func Unavailable(snapshot models.Snapshot, playerID string) bool {
	st, ok := snapshot.Lookup(playerID)
	if !ok {
		return true
	}
	return st.State == models.StateUnavailable || st.State == models.StateUnknown
}
