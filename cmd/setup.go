package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/webradio/internal/models"
	"github.com/desertthunder/webradio/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes config.toml from the embedded template.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set home_assistant.url and a token (or run 'webradio auth login')\n")
	r.writePlain("2. Run 'webradio setup database' and 'webradio setup card'\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config := r.config
	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", config.Database.Path)
}

// SetupCard writes the starter card config.
func (r *Runner) SetupCard(ctx context.Context, cmd *cli.Command) error {
	file := r.cardFile()
	if file.Exists() && !cmd.Bool("force") {
		return fmt.Errorf("%w: %s already exists (use --force to overwrite)", shared.ErrInvalidArgument, file.Path())
	}

	if err := file.Save(models.StubConfig()); err != nil {
		return fmt.Errorf("failed to write card config: %w", err)
	}

	r.logger.Info("card config created", "path", file.Path())
	r.writePlain("✓ Card config written to %s\n", file.Path())
	return r.writePlain("Edit it, or use 'webradio stations' and 'webradio players'.\n")
}
