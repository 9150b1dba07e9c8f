package main

import (
	"context"

	"github.com/desertthunder/webradio/internal/formatter"
	"github.com/desertthunder/webradio/internal/services"
	"github.com/urfave/cli/v3"
)

// Discover browses mDNS for Home Assistant servers.
func (r *Runner) Discover(ctx context.Context, cmd *cli.Command) error {
	ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	r.logger.Info("browsing for Home Assistant", "service", services.HassServiceType, "timeout", cmd.Duration("timeout"))
	instances, err := services.Discover(ctx, r.browser)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(instances, true)
	}
	return r.writeBytes(formatter.InstancesToText(instances))
}
