package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/webradio/internal/card"
	"github.com/desertthunder/webradio/internal/server"
	"github.com/desertthunder/webradio/internal/services"
	"github.com/desertthunder/webradio/internal/shared"
	"github.com/desertthunder/webradio/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API, the state stream and the command queue until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, release, err := r.openStore()
	if err != nil {
		return err
	}
	defer release()

	live, err := r.startLive(store)
	if err != nil {
		return err
	}

	c, err := r.newCard(store, live.queue)
	if err != nil {
		if !errors.Is(err, shared.ErrMissingConfig) && !errors.Is(err, shared.ErrInvalidConfig) {
			return err
		}
		r.logger.Warn("card starts empty until a config is PUT", "path", r.cardFile().Path(), "error", err)
	}
	defer c.Close()

	router := server.NewBasicRouter()
	router.Use(server.WithRequestID(), server.WithRecover(r.logger), server.WithLogging(r.logger))
	server.NewAPI(c, live.stream, r.cardFile(), r.logger).Register(router)

	srv := server.NewHTTPServer(r.config.Server.Addr(), router)
	r.logger.Info("serving card", "card", c.ID(), "addr", srv.Addr, "hass", r.config.HomeAssistant.URL)

	return tasks.Run(ctx, r.logger, append(live.jobs(), tasks.HTTPJob(srv, r.logger))...)
}

// live bundles the websocket status feed and the outbound call queue.
type live struct {
	stream *services.StateStream
	queue  *services.CommandQueue
}

func (l live) jobs() []tasks.Job {
	return []tasks.Job{
		tasks.Func("stream", l.stream.Run),
		tasks.Func("queue", l.queue.Run),
	}
}

func (r *Runner) startLive(store card.Store) (live, error) {
	hass, err := r.homeAssistant(store)
	if err != nil {
		return live{}, err
	}
	ts, err := r.tokens(store)
	if err != nil {
		return live{}, err
	}
	wsURL, err := r.config.HomeAssistant.WebSocketURL()
	if err != nil {
		return live{}, err
	}

	d := r.config.Dispatch
	return live{
		stream: services.NewStateStream(wsURL, ts, r.logger),
		queue:  services.NewCommandQueue(hass, d.RatePerSecond, d.Burst, d.QueueSize, r.config.HomeAssistant.Timeout(), r.logger),
	}, nil
}
