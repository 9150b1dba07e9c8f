package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds the graceful shutdown of an [HTTPJob].
const ShutdownTimeout = 5 * time.Second

// Job is a named unit of work that runs until ctx is done.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Run starts jobs and waits for all of them. A job returning nil stops on its own without affecting the others.
func Run(ctx context.Context, logger *log.Logger, jobs ...Job) error {
	if logger == nil {
		logger = log.Default()
	}
	g, ctx := errgroup.WithContext(ctx)

	for _, job := range jobs {
		g.Go(func() error {
			logger.Debug("job started", "job", job.Name)
			err := job.Run(ctx)
			switch {
			case err == nil, errors.Is(err, context.Canceled):
				logger.Debug("job stopped", "job", job.Name)
				return nil
			default:
				logger.Error("job failed", "job", job.Name, "error", err)
				return fmt.Errorf("%s: %w", job.Name, err)
			}
		})
	}
	return g.Wait()
}

// HTTPJob serves srv until ctx is done, then shuts it down.
func HTTPJob(srv *http.Server, logger *log.Logger) Job {
	return Job{
		Name: "http",
		Run: func(ctx context.Context) error {
			errs := make(chan error, 1)
			go func() {
				logger.Info("listening", "addr", srv.Addr)
				errs <- srv.ListenAndServe()
			}()

			select {
			case err := <-errs:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			<-errs
			return nil
		},
	}
}

// Func wraps fn as a job.
func Func(name string, fn func(ctx context.Context) error) Job {
	return Job{Name: name, Run: fn}
}
