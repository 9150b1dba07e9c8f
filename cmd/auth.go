package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/webradio/internal/server"
	"github.com/desertthunder/webradio/internal/services"
	"github.com/desertthunder/webradio/internal/shared"
	"github.com/desertthunder/webradio/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthLogin runs the authorization code flow against Home Assistant and stores the token.
//
// Starts a local callback server, opens the browser at the instance's authorize page and waits for the code.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	store, release, err := r.openStore()
	if err != nil {
		return err
	}
	defer release()

	conf, err := services.HassOAuthConfig(r.config.HomeAssistant.URL, r.redirectURL())
	if err != nil {
		return err
	}

	token, err := r.doOAuth(ctx, conf, cmd.Duration("timeout"), !cmd.Bool("no-browser"))
	if err != nil {
		return err
	}

	if err := services.SaveToken(store, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	r.writePlainln("✓ Signed in to %s", conf.Endpoint.AuthURL)
	return r.writePlain("✓ Token stored in %s\n", r.config.Database.Path)
}

// doOAuth serves the callback until a result arrives, ctx ends or timeout passes.
func (r *Runner) doOAuth(ctx context.Context, conf *oauth2.Config, timeout time.Duration, openBrowser bool) (*oauth2.Token, error) {
	state := shared.GenerateID()
	handler := server.NewOAuthHandler(conf, state)
	router := server.NewBasicRouter()
	router.Handler(handler)
	srv := server.NewHTTPServer(r.config.Server.Addr(), router)

	ctx, cancel := context.WithCancel(ctx)
	serverErrors := make(chan error, 1)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		serverErrors <- tasks.HTTPJob(srv, r.logger).Run(ctx)
	}()
	defer func() {
		cancel()
		<-stopped
	}()

	authURL := conf.AuthCodeURL(state)
	if openBrowser {
		r.writePlain("→ Opening browser for Home Assistant login...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlainln("⚠ Could not open browser automatically.")
		}
	}
	r.writePlain("Login URL:\n%s\n\n", authURL)
	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result server.OAuthResult
	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		if err == nil {
			err = errors.New("callback server stopped")
		}
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, result.Err)
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}

// AuthStatus reports which credentials are in use and whether the API accepts them.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	store, release, err := r.openStore()
	if err != nil {
		return err
	}
	defer release()

	r.writePlain("Home Assistant: %s\n", r.config.HomeAssistant.URL)
	switch {
	case r.config.HomeAssistant.Token != "":
		r.writePlain("Credentials: long-lived token\n")
	default:
		tok, err := services.LoadToken(store)
		if err != nil {
			r.writePlain("Credentials: ✗ none (set home_assistant.token or run 'webradio auth login')\n")
			return err
		}
		r.writePlain("Credentials: stored login")
		if !tok.Expiry.IsZero() {
			r.writePlain(" (access token expires %s)", tok.Expiry.Format(time.RFC3339))
		}
		r.writePlain("\n")
	}

	hass, err := r.homeAssistant(store)
	if err != nil {
		return err
	}
	if err := hass.Ping(ctx); err != nil {
		r.writePlain("API: ✗ %v\n", err)
		return err
	}
	return r.writePlain("API: ✓ reachable and authorized\n")
}
