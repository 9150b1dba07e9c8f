package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/webradio/internal/card"
	"github.com/desertthunder/webradio/internal/models"
	"github.com/desertthunder/webradio/internal/repositories"
	"github.com/desertthunder/webradio/internal/shared"
	tu "github.com/desertthunder/webradio/internal/testing"
)

type staticStatus struct{ snapshot models.Snapshot }

func (s *staticStatus) Snapshot() models.Snapshot { return s.snapshot }

type recordingSaver struct {
	saved []models.CardConfig
	err   error
}

func (r *recordingSaver) Save(cfg models.CardConfig) error {
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, cfg)
	return nil
}

type fixture struct {
	server     *httptest.Server
	card       *card.Card
	dispatcher *tu.RecordingDispatcher
	status     *staticStatus
	saver      *recordingSaver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := log.New(io.Discard)
	d := &tu.RecordingDispatcher{}
	c := card.New(repositories.NewMemoryStore(), d, card.WithLogger(logger))
	t.Cleanup(c.Close)

	cfg := models.CardConfig{
		Stations:     []models.Station{{Name: "Willy", URL: "u1"}, {Name: "Studio Brussel", URL: "u2"}},
		MediaPlayers: []models.PlayerRef{{EntityID: "media_player.kitchen"}, {EntityID: "media_player.den"}},
	}
	if err := c.SetConfig(cfg); err != nil {
		t.Fatalf("failed to set config: %v", err)
	}

	status := &staticStatus{snapshot: tu.StaticStatus("media_player.kitchen", "idle", "media_player.den", "unavailable")}
	saver := &recordingSaver{}

	router := NewBasicRouter()
	router.Use(WithRequestID(), WithRecover(logger), WithLogging(logger))
	NewAPI(c, status, saver, logger).Register(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &fixture{server: server, card: c, dispatcher: d, status: status, saver: saver}
}

func (f *fixture) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("failed to decode %s: %v", data, err)
	}
	return v
}

func TestAPI(t *testing.T) {
	t.Run("Health", func(t *testing.T) {
		f := newFixture(t)
		resp, data := f.do(t, http.MethodGet, "/api/health", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		body := decode[map[string]any](t, data)
		if body["status"] != "ok" || body["configured"] != true {
			t.Errorf("unexpected body %v", body)
		}
		if resp.Header.Get(RequestIDHeader) == "" {
			t.Error("expected a request id header")
		}
	})

	t.Run("Card", func(t *testing.T) {
		f := newFixture(t)
		_, data := f.do(t, http.MethodGet, "/api/card", "")
		view := decode[card.View](t, data)

		den, _ := view.Player("media_player.den")
		if den.Class != card.ClassUnavailable {
			t.Errorf("expected den unavailable, got %q", den.Class)
		}
		if len(view.Stations) != 2 {
			t.Errorf("expected 2 stations, got %d", len(view.Stations))
		}
	})

	t.Run("DragAndDrop", func(t *testing.T) {
		f := newFixture(t)

		resp, data := f.do(t, http.MethodPost, "/api/drag/start", `{"station":"Willy"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("drag start: expected 200, got %d: %s", resp.StatusCode, data)
		}

		_, data = f.do(t, http.MethodPost, "/api/drag/hover", `{"player":"media_player.kitchen"}`)
		view := decode[card.View](t, data)
		if kitchen, _ := view.Player("media_player.kitchen"); kitchen.Class != card.ClassDragOver {
			t.Errorf("expected dragover, got %q", kitchen.Class)
		}

		resp, data = f.do(t, http.MethodPost, "/api/drop", `{"player":"media_player.kitchen"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("drop: expected 200, got %d: %s", resp.StatusCode, data)
		}

		_, data = f.do(t, http.MethodGet, "/api/connections", "")
		conns := decode[models.Connections](t, data)
		if conns["media_player.kitchen"].URL != "u1" {
			t.Errorf("unexpected connections %v", conns)
		}
		if call := f.dispatcher.Last(t); call.Service != "play_media" {
			t.Errorf("expected play_media, got %s", call.Service)
		}
	})

	t.Run("DragByIndex", func(t *testing.T) {
		f := newFixture(t)
		_, data := f.do(t, http.MethodPost, "/api/drag/start", `{"index":1}`)
		view := decode[card.View](t, data)
		if view.Dragging == nil || view.Dragging.Name != "Studio Brussel" {
			t.Errorf("unexpected dragging %+v", view.Dragging)
		}

		resp, _ := f.do(t, http.MethodPost, "/api/drag/start", `{"index":9}`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400 for bad index, got %d", resp.StatusCode)
		}
	})

	t.Run("DropErrors", func(t *testing.T) {
		f := newFixture(t)

		resp, _ := f.do(t, http.MethodPost, "/api/drop", `{"player":"media_player.kitchen"}`)
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("drop without drag: expected 409, got %d", resp.StatusCode)
		}

		f.do(t, http.MethodPost, "/api/drag/start", `{"station":"Willy"}`)
		resp, _ = f.do(t, http.MethodPost, "/api/drop", `{"player":"media_player.den"}`)
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("drop on unavailable: expected 409, got %d", resp.StatusCode)
		}

		f.do(t, http.MethodPost, "/api/drag/start", `{"station":"Willy"}`)
		resp, _ = f.do(t, http.MethodPost, "/api/drop", `{"player":"media_player.attic"}`)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("drop on unknown player: expected 404, got %d", resp.StatusCode)
		}

		resp, _ = f.do(t, http.MethodPost, "/api/drag/start", `{"station":"Nope"}`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("unknown station: expected 400, got %d", resp.StatusCode)
		}

		if len(f.dispatcher.Calls()) != 0 || len(f.card.Connections()) != 0 {
			t.Error("failed drops must not commit")
		}
	})

	t.Run("LeaveAndCancel", func(t *testing.T) {
		f := newFixture(t)
		f.do(t, http.MethodPost, "/api/drag/start", `{"station":"Willy"}`)
		f.do(t, http.MethodPost, "/api/drag/hover", `{"player":"media_player.kitchen"}`)
		f.do(t, http.MethodPost, "/api/drag/leave", "")
		if f.card.State() != card.Dragging {
			t.Errorf("expected dragging after leave, got %v", f.card.State())
		}
		f.do(t, http.MethodPost, "/api/drag/cancel", "")
		if f.card.State() != card.Idle {
			t.Errorf("expected idle after cancel, got %v", f.card.State())
		}
	})

	t.Run("Controls", func(t *testing.T) {
		f := newFixture(t)

		resp, _ := f.do(t, http.MethodPost, "/api/players/media_player.kitchen/volume", `{"level":0.25}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("volume: expected 200, got %d", resp.StatusCode)
		}
		if call := f.dispatcher.Last(t); call.Service != "volume_set" || call.Data["volume_level"] != 0.25 {
			t.Errorf("unexpected call %v", call)
		}

		f.do(t, http.MethodPost, "/api/players/media_player.kitchen/mute", "")
		if call := f.dispatcher.Last(t); call.Service != "volume_mute" || call.Data["is_volume_muted"] != true {
			t.Errorf("unexpected call %v", call)
		}

		f.do(t, http.MethodPost, "/api/players/media_player.kitchen/transport", `{"action":"media_stop"}`)
		if call := f.dispatcher.Last(t); call.Service != "media_stop" {
			t.Errorf("unexpected call %v", call)
		}

		_, data := f.do(t, http.MethodPost, "/api/players/media_player.kitchen/select", "")
		view := decode[card.View](t, data)
		if kitchen, _ := view.Player("media_player.kitchen"); !kitchen.Selected {
			t.Error("expected kitchen selected")
		}
	})

	t.Run("ControlErrors", func(t *testing.T) {
		f := newFixture(t)

		tests := []struct {
			path   string
			body   string
			status int
		}{
			{"/api/players/media_player.den/mute", "", http.StatusConflict},
			{"/api/players/media_player.attic/mute", "", http.StatusNotFound},
			{"/api/players/media_player.kitchen/volume", `{}`, http.StatusBadRequest},
			{"/api/players/media_player.kitchen/volume", `{bad`, http.StatusBadRequest},
			{"/api/players/media_player.kitchen/transport", `{"action":"rewind"}`, http.StatusBadRequest},
		}
		for _, tt := range tests {
			resp, _ := f.do(t, http.MethodPost, tt.path, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("%s %s: expected %d, got %d", tt.path, tt.body, tt.status, resp.StatusCode)
			}
		}
		if len(f.dispatcher.Calls()) != 0 {
			t.Error("rejected controls must not dispatch")
		}
	})

	t.Run("Config", func(t *testing.T) {
		f := newFixture(t)

		resp, data := f.do(t, http.MethodPut, "/api/config", "stations: []\nmedia_players:\n  - media_player.office\n")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("put: expected 200, got %d: %s", resp.StatusCode, data)
		}
		if len(f.saver.saved) != 1 {
			t.Errorf("expected config to be saved once, got %d", len(f.saver.saved))
		}

		_, data = f.do(t, http.MethodGet, "/api/config", "")
		got := decode[configResponse](t, data)
		if !got.Valid || len(got.Config.MediaPlayers) != 1 || got.Config.MediaPlayers[0].EntityID != "media_player.office" {
			t.Errorf("unexpected config %+v", got)
		}

		resp, _ = f.do(t, http.MethodPut, "/api/config", `{"stations":[]}`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("missing players: expected 400, got %d", resp.StatusCode)
		}

		resp, _ = f.do(t, http.MethodPut, "/api/config", `{"stations":[],"media_players":[null]}`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("null player: expected 400, got %d", resp.StatusCode)
		}
		if len(f.saver.saved) != 1 {
			t.Errorf("expected rejected configs not to be saved, got %d saves", len(f.saver.saved))
		}

		_, data = f.do(t, http.MethodGet, "/api/config/stub", "")
		stub := decode[models.CardConfig](t, data)
		if len(stub.Stations) != 1 || stub.Stations[0].Name != "Willy" {
			t.Errorf("unexpected stub %+v", stub)
		}
	})

	t.Run("SaveFailure", func(t *testing.T) {
		f := newFixture(t)
		f.saver.err = errors.New("read-only")
		resp, _ := f.do(t, http.MethodPut, "/api/config", `{"stations":[],"media_players":[]}`)
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", resp.StatusCode)
		}
	})

	t.Run("Editor", func(t *testing.T) {
		f := newFixture(t)

		_, data := f.do(t, http.MethodPost, "/api/editor/stations", "")
		got := decode[configResponse](t, data)
		if len(got.Config.Stations) != 3 || !got.Valid {
			t.Fatalf("unexpected config after add %+v", got)
		}

		f.do(t, http.MethodPatch, "/api/editor/stations/2", `{"field":"name","value":"Radio 1"}`)
		_, data = f.do(t, http.MethodPatch, "/api/editor/stations/2", `{"field":"url","value":"u3"}`)
		got = decode[configResponse](t, data)
		if got.Config.Stations[2] != (models.Station{Name: "Radio 1", URL: "u3"}) {
			t.Errorf("unexpected station %+v", got.Config.Stations[2])
		}
		if live, _ := f.card.Config(); len(live.Stations) != 3 {
			t.Error("valid edits should go live on the card")
		}

		_, data = f.do(t, http.MethodPost, "/api/editor/players", "")
		got = decode[configResponse](t, data)
		if got.Valid || got.Error == "" {
			t.Errorf("blank player should leave the draft invalid: %+v", got)
		}
		if _, ok := f.card.Config(); ok {
			t.Error("card should render nothing while the draft is invalid")
		}

		f.do(t, http.MethodPatch, "/api/editor/players/2", `{"field":"entity_id","value":"media_player.office"}`)
		_, data = f.do(t, http.MethodGet, "/api/config", "")
		got = decode[configResponse](t, data)
		if !got.Valid {
			t.Errorf("draft should be valid again: %+v", got)
		}

		_, data = f.do(t, http.MethodDelete, "/api/editor/players/2", "")
		got = decode[configResponse](t, data)
		if len(got.Config.MediaPlayers) != 2 {
			t.Errorf("expected 2 players after delete, got %d", len(got.Config.MediaPlayers))
		}

		resp, _ := f.do(t, http.MethodDelete, "/api/editor/stations/9", "")
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("out of range: expected 400, got %d", resp.StatusCode)
		}
		resp, _ = f.do(t, http.MethodDelete, "/api/editor/stations/abc", "")
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("bad index: expected 400, got %d", resp.StatusCode)
		}
		resp, _ = f.do(t, http.MethodPatch, "/api/editor/stations/0", `{"field":"genre","value":"x"}`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("bad field: expected 400, got %d", resp.StatusCode)
		}

		if len(f.saver.saved) == 0 {
			t.Error("valid edits should be saved")
		}
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		f := newFixture(t)
		resp, _ := f.do(t, http.MethodDelete, "/api/card", "")
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", resp.StatusCode)
		}
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{card.ErrNoDrag, http.StatusConflict},
		{card.ErrUnavailable, http.StatusConflict},
		{card.ErrUnknownPlayer, http.StatusNotFound},
		{shared.ErrInvalidConfig, http.StatusBadRequest},
		{shared.ErrInvalidArgument, http.StatusBadRequest},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.want, got)
		}
	}
}
