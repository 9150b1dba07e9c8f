package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/webradio/internal/card"
	"github.com/desertthunder/webradio/internal/models"
	"github.com/desertthunder/webradio/internal/repositories"
	"github.com/desertthunder/webradio/internal/server"
	"github.com/desertthunder/webradio/internal/services"
	"github.com/desertthunder/webradio/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	hass       services.HomeAssistant
	store      card.Store
	browser    services.Browser
}

// RunnerOpts contains configuration options for creating a Runner.
//
// HomeAssistant, Store and Browser replace the clients built from Config; tests use them to run commands offline.
type RunnerOpts struct {
	Config        *shared.Config
	ConfigPath    string
	HTTPClient    *http.Client
	Logger        *log.Logger
	Output        io.Writer
	HomeAssistant services.HomeAssistant
	Store         card.Store
	Browser       services.Browser
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		hass:       opts.HomeAssistant,
		store:      opts.Store,
		browser:    opts.Browser,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, serveCommand, tuiCommand, statusCommand, dropCommand, connectionsCommand,
		stationsCommand, playersCommand, discoverCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// openStore returns the key-value store and a function releasing it.
func (r *Runner) openStore() (card.Store, func(), error) {
	if r.store != nil {
		return r.store, func() {}, nil
	}

	db, err := shared.OpenMigrated(r.config.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return repositories.NewKVRepository(db), func() { db.Close() }, nil
}

// redirectURL is where the login flow's callback server listens.
func (r *Runner) redirectURL() string {
	return "http://" + r.config.Server.Addr() + server.CallbackPath
}

func (r *Runner) tokens(store card.Store) (oauth2.TokenSource, error) {
	return services.ResolveTokenSource(r.config.HomeAssistant, r.redirectURL(), store)
}

// homeAssistant returns the REST client, authenticated with the configured token or the stored login.
func (r *Runner) homeAssistant(store card.Store) (services.HomeAssistant, error) {
	if r.hass != nil {
		return r.hass, nil
	}
	ts, err := r.tokens(store)
	if err != nil {
		return nil, err
	}
	hc := r.config.HomeAssistant
	return services.NewHassServiceWithTokenSource(hc.URL, ts, hc.Timeout(), r.httpClient), nil
}

func (r *Runner) cardFile() *repositories.CardConfigFile {
	return repositories.NewCardConfigFile(r.config.Card.ConfigPath)
}

// newCard builds a card on store and applies the YAML card config. A missing or invalid file is returned as an
// error alongside the (empty) card so callers can choose to continue.
func (r *Runner) newCard(store card.Store, dispatcher card.Dispatcher, opts ...card.Option) (*card.Card, error) {
	opts = append([]card.Option{
		card.WithStorageKey(r.config.Card.StorageKey),
		card.WithLogger(r.logger),
		card.WithLongPressDelay(r.config.Card.LongPressDelay()),
	}, opts...)
	c := card.New(store, dispatcher, opts...)

	cfg, err := r.cardFile().Load()
	if err != nil {
		return c, err
	}
	if err := c.SetConfig(cfg); err != nil {
		return c, err
	}
	return c, nil
}

// snapshot fetches every entity state once over REST.
func (r *Runner) snapshot(ctx context.Context, hass services.HomeAssistant) (models.Snapshot, error) {
	snapshot, err := hass.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch states: %w", err)
	}
	return snapshot, nil
}

func marshalJSON(data any, pretty bool) ([]byte, error) {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(output, '\n'), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := marshalJSON(data, pretty)
	if err != nil {
		return err
	}
	return r.writeBytes(output)
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
