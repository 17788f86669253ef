package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dontpanicw/ClinicMedia/config"
	"github.com/dontpanicw/ClinicMedia/internal/adapter/repository/admins"
	httpin "github.com/dontpanicw/ClinicMedia/internal/input/http"
	"github.com/dontpanicw/ClinicMedia/internal/port"
	"github.com/dontpanicw/ClinicMedia/pkg/log"
)

const shutdownTimeout = 30 * time.Second

type App struct {
	server *httpin.Server
	events port.EventPublisher
	admins *admins.AdminDAO
}

func NewApp(server *httpin.Server, events port.EventPublisher, admins *admins.AdminDAO) *App {
	return &App{
		server: server,
		events: events,
		admins: admins,
	}
}

// Start builds the service and serves until SIGINT or SIGTERM.
func Start(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := InitializeApp(ctx, cfg)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}

func (a *App) Run(ctx context.Context) error {
	defer a.close()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
		log.Infof("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.server.Stop(shutdownCtx)
}

func (a *App) close() {
	if err := a.events.Close(); err != nil {
		log.WithError(err).Warn("failed to close event producer")
	}
	if err := a.admins.Close(); err != nil {
		log.WithError(err).Warn("failed to close admin database")
	}
}
