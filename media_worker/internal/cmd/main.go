package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/dontpanicw/ClinicMedia/config"
	"github.com/dontpanicw/ClinicMedia/internal/app"
	"github.com/dontpanicw/ClinicMedia/media_worker/internal/consumer"
	"github.com/dontpanicw/ClinicMedia/pkg/log"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.SetLevel(cfg.LogLevel)
	log.Infof("Starting media worker...")

	if cfg.MasterDSN == "" {
		log.Fatalf("MASTER_DSN is required by the media worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	assets, err := app.OpenLedger(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open asset ledger: %v", err)
	}

	c := consumer.NewConsumer(cfg, assets)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.Start(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("consumer stopped")
		}
	}()

	select {
	case <-ctx.Done():
	case <-done:
		stop()
	}
	log.Infof("Shutting down worker...")

	select {
	case <-done:
		log.Infof("Worker stopped gracefully")
	case <-time.After(30 * time.Second):
		log.Warnf("Shutdown timeout exceeded")
	}

	if err := c.Close(); err != nil {
		log.WithError(err).Warn("Error closing consumer")
	}
}
