package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/webradio/internal/card"
	"github.com/desertthunder/webradio/internal/editor"
	"github.com/desertthunder/webradio/internal/models"
	"github.com/desertthunder/webradio/internal/repositories"
	"github.com/desertthunder/webradio/internal/shared"
)

const maxBodyBytes = 1 << 20

// StatusSource supplies the live status snapshot each request renders against.
type StatusSource interface {
	Snapshot() models.Snapshot
}

// ConfigSaver persists an accepted card configuration. [repositories.CardConfigFile] satisfies it.
type ConfigSaver interface {
	Save(cfg models.CardConfig) error
}

var _ ConfigSaver = (*repositories.CardConfigFile)(nil)

// API exposes the card and its editor over JSON.
type API struct {
	card   *card.Card
	status StatusSource
	saver  ConfigSaver
	logger *log.Logger

	mu     sync.Mutex
	editor *editor.Editor
	draft  error
}

// NewAPI creates the handlers. saver may be nil, in which case edits are not persisted.
func NewAPI(c *card.Card, status StatusSource, saver ConfigSaver, logger *log.Logger) *API {
	if logger == nil {
		logger = log.Default()
	}
	a := &API{card: c, status: status, saver: saver, logger: logger.With("component", "api")}
	cfg, _ := c.Config()
	a.editor = editor.New(cfg, a.applyDraft)
	return a
}

// Register adds every route to router.
func (a *API) Register(router *BasicRouter) {
	router.HandleFunc(http.MethodGet, "/api/health", a.health)
	router.HandleFunc(http.MethodGet, "/api/card", a.render)
	router.HandleFunc(http.MethodGet, "/api/config", a.getConfig)
	router.HandleFunc(http.MethodPut, "/api/config", a.putConfig)
	router.HandleFunc(http.MethodGet, "/api/config/stub", a.stubConfig)
	router.HandleFunc(http.MethodGet, "/api/connections", a.connections)

	router.HandleFunc(http.MethodPost, "/api/drag/start", a.dragStart)
	router.HandleFunc(http.MethodPost, "/api/drag/hover", a.dragHover)
	router.HandleFunc(http.MethodPost, "/api/drag/leave", a.dragLeave)
	router.HandleFunc(http.MethodPost, "/api/drag/cancel", a.dragCancel)
	router.HandleFunc(http.MethodPost, "/api/drop", a.drop)

	router.HandleFunc(http.MethodPost, "/api/players/{entity}/select", a.selectPlayer)
	router.HandleFunc(http.MethodPost, "/api/players/{entity}/volume", a.volume)
	router.HandleFunc(http.MethodPost, "/api/players/{entity}/mute", a.mute)
	router.HandleFunc(http.MethodPost, "/api/players/{entity}/transport", a.transport)

	router.HandleFunc(http.MethodPost, "/api/editor/stations", a.addStation)
	router.HandleFunc(http.MethodPatch, "/api/editor/stations/{index}", a.updateStation)
	router.HandleFunc(http.MethodDelete, "/api/editor/stations/{index}", a.removeStation)
	router.HandleFunc(http.MethodPost, "/api/editor/players", a.addPlayer)
	router.HandleFunc(http.MethodPatch, "/api/editor/players/{index}", a.updatePlayer)
	router.HandleFunc(http.MethodDelete, "/api/editor/players/{index}", a.removePlayer)
}

// applyDraft receives every editor emission. Valid drafts go live and are saved; invalid ones are kept as the
// editor's working copy and leave the card empty until fixed.
func (a *API) applyDraft(cfg models.CardConfig) {
	if err := a.card.SetConfig(cfg); err != nil {
		a.draft = err
		a.logger.Warn("editor draft rejected", "error", err)
		return
	}
	a.draft = nil
	if a.saver != nil {
		if err := a.saver.Save(cfg); err != nil {
			a.draft = err
			a.logger.Error("failed to save card config", "error", err)
		}
	}
}

type configResponse struct {
	Config models.CardConfig `json:"config"`
	Valid  bool              `json:"valid"`
	Error  string            `json:"error,omitempty"`
}

func (a *API) configState() configResponse {
	resp := configResponse{Config: a.editor.Config(), Valid: a.draft == nil}
	if a.draft != nil {
		resp.Error = a.draft.Error()
	}
	return resp
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	_, configured := a.card.Config()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"card":       a.card.ID(),
		"configured": configured,
		"entities":   len(a.status.Snapshot()),
	})
}

func (a *API) render(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.card.Render(a.status.Snapshot()))
}

func (a *API) getConfig(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	writeJSON(w, http.StatusOK, a.configState())
}

func (a *API) putConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}

	cfg, err := repositories.ParseCardConfig(body)
	if err != nil {
		writeError(w, err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.card.SetConfig(cfg); err != nil {
		writeError(w, err)
		return
	}
	if a.saver != nil {
		if err := a.saver.Save(cfg); err != nil {
			writeError(w, err)
			return
		}
	}
	a.editor = editor.New(cfg, a.applyDraft)
	a.draft = nil
	writeJSON(w, http.StatusOK, a.configState())
}

func (a *API) stubConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.StubConfig())
}

func (a *API) connections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.card.Connections())
}

type stationRequest struct {
	Station string `json:"station"`
	Index   *int   `json:"index,omitempty"`
}

type playerRequest struct {
	Player string `json:"player"`
}

func (a *API) dragStart(w http.ResponseWriter, r *http.Request) {
	var req stationRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	cfg, ok := a.card.Config()
	if !ok {
		writeError(w, card.ErrNoConfig)
		return
	}

	var station models.Station
	switch {
	case req.Index != nil:
		if *req.Index < 0 || *req.Index >= len(cfg.Stations) {
			writeError(w, fmt.Errorf("%w: station index %d", shared.ErrInvalidArgument, *req.Index))
			return
		}
		station = cfg.Stations[*req.Index]
	default:
		if station, ok = cfg.Station(req.Station); !ok {
			writeError(w, fmt.Errorf("%w: no station named %q", shared.ErrInvalidArgument, req.Station))
			return
		}
	}

	a.card.BeginDrag(station)
	writeJSON(w, http.StatusOK, a.card.Render(a.status.Snapshot()))
}

func (a *API) dragHover(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	a.card.HoverTarget(req.Player)
	writeJSON(w, http.StatusOK, a.card.Render(a.status.Snapshot()))
}

func (a *API) dragLeave(w http.ResponseWriter, r *http.Request) {
	a.card.ClearHover()
	writeJSON(w, http.StatusOK, a.card.Render(a.status.Snapshot()))
}

func (a *API) dragCancel(w http.ResponseWriter, r *http.Request) {
	a.card.CancelDrag()
	writeJSON(w, http.StatusOK, a.card.Render(a.status.Snapshot()))
}

func (a *API) drop(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := readJSON(w, r, &req); err != nil {
		a.card.CancelDrag()
		writeError(w, err)
		return
	}

	snapshot := a.status.Snapshot()
	if err := a.card.Drop(snapshot, req.Player); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.card.Render(snapshot))
}

func (a *API) selectPlayer(w http.ResponseWriter, r *http.Request) {
	snapshot := a.status.Snapshot()
	a.respond(w, snapshot, a.card.Select(snapshot, r.PathValue("entity")))
}

func (a *API) volume(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Level *float64 `json:"level"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Level == nil {
		writeError(w, fmt.Errorf("%w: level", shared.ErrMissingArgument))
		return
	}
	snapshot := a.status.Snapshot()
	a.respond(w, snapshot, a.card.SetVolume(snapshot, r.PathValue("entity"), *req.Level))
}

func (a *API) mute(w http.ResponseWriter, r *http.Request) {
	snapshot := a.status.Snapshot()
	a.respond(w, snapshot, a.card.ToggleMute(snapshot, r.PathValue("entity")))
}

func (a *API) transport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	action, err := card.ParseAction(req.Action)
	if err != nil {
		writeError(w, err)
		return
	}
	snapshot := a.status.Snapshot()
	a.respond(w, snapshot, a.card.Transport(snapshot, r.PathValue("entity"), action))
}

// respond writes the rendered card, or err.
func (a *API) respond(w http.ResponseWriter, snapshot models.Snapshot, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.card.Render(snapshot))
}

type fieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (a *API) edit(w http.ResponseWriter, fn func(*editor.Editor) error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := fn(a.editor); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.configState())
}

func (a *API) addStation(w http.ResponseWriter, r *http.Request) {
	a.edit(w, (*editor.Editor).AddStation)
}

func (a *API) addPlayer(w http.ResponseWriter, r *http.Request) {
	a.edit(w, (*editor.Editor).AddPlayer)
}

func (a *API) updateStation(w http.ResponseWriter, r *http.Request) {
	a.updateField(w, r, (*editor.Editor).UpdateStation)
}

func (a *API) updatePlayer(w http.ResponseWriter, r *http.Request) {
	a.updateField(w, r, (*editor.Editor).UpdatePlayer)
}

func (a *API) removeStation(w http.ResponseWriter, r *http.Request) {
	a.removeAt(w, r, (*editor.Editor).RemoveStation)
}

func (a *API) removePlayer(w http.ResponseWriter, r *http.Request) {
	a.removeAt(w, r, (*editor.Editor).RemovePlayer)
}

func (a *API) updateField(w http.ResponseWriter, r *http.Request, fn func(*editor.Editor, int, string, string) error) {
	i, err := pathIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req fieldRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	a.edit(w, func(e *editor.Editor) error { return fn(e, i, req.Field, req.Value) })
}

func (a *API) removeAt(w http.ResponseWriter, r *http.Request, fn func(*editor.Editor, int) error) {
	i, err := pathIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}
	a.edit(w, func(e *editor.Editor) error { return fn(e, i) })
}

func pathIndex(r *http.Request) (int, error) {
	i, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		return 0, fmt.Errorf("%w: index %q", shared.ErrInvalidArgument, r.PathValue("index"))
	}
	return i, nil
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StatusFor maps domain errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, card.ErrUnknownPlayer):
		return http.StatusNotFound
	case errors.Is(err, card.ErrNoDrag), errors.Is(err, card.ErrUnavailable), errors.Is(err, card.ErrNoConfig):
		return http.StatusConflict
	case errors.Is(err, shared.ErrInvalidConfig),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, card.ErrUnknownAction):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), map[string]string{"error": err.Error()})
}
