package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/webradio/internal/card"
	"github.com/desertthunder/webradio/internal/models"
	"github.com/desertthunder/webradio/internal/services"
	"github.com/desertthunder/webradio/internal/shared"
	"github.com/desertthunder/webradio/internal/tasks"
	"github.com/desertthunder/webradio/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive card.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/webradio-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	store, release, err := r.openStore()
	if err != nil {
		return err
	}
	defer release()

	live, err := r.startLive(store)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		status  ui.StatusSource
		updates <-chan models.Snapshot
	)
	jobs := []tasks.Job{tasks.Func("queue", live.queue.Run)}

	if cmd.Bool("live") {
		ch, unsubscribe := live.stream.Subscribe()
		defer unsubscribe()
		status, updates = live.stream, ch
		jobs = append(jobs, tasks.Func("stream", live.stream.Run))
	} else {
		hass, err := r.homeAssistant(store)
		if err != nil {
			return err
		}
		snapshot, err := r.snapshot(ctx, hass)
		if err != nil {
			return err
		}
		status = services.NewStaticSource(snapshot)
	}

	background := make(chan error, 1)
	go func() { background <- tasks.Run(ctx, r.logger, jobs...) }()

	notifier := ui.NewNotifier()
	c, err := r.newCard(store, live.queue, card.WithEvents(notifier.Events()))
	if err != nil {
		r.logger.Warn("card config not loaded", "error", err)
	}
	defer c.Close()

	model := ui.NewModel(ctx, c, status, updates, notifier)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	_, runErr := p.Run()
	cancel()
	bgErr := <-background

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("error running TUI: %w", runErr)
	}
	return bgErr
}
