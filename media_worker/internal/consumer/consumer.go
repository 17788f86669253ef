// Package consumer applies media events to the asset ledger.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/dontpanicw/ClinicMedia/config"
	"github.com/dontpanicw/ClinicMedia/internal/domain"
	"github.com/dontpanicw/ClinicMedia/internal/port"
	"github.com/dontpanicw/ClinicMedia/pkg/log"
)

// errSkip marks messages that can never be applied; they are committed and dropped.
var errSkip = errors.New("message skipped")

// messageReader is the subset of *kafka.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader      messageReader
	assets      port.AssetRepository
	workers     int
	maxAttempts int
	retryDelay  time.Duration
}

func NewConsumer(cfg *config.Config, assets port.AssetRepository) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.KafkaMediaTopic,
		GroupID:        cfg.KafkaGroupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})

	return &Consumer{
		reader:      reader,
		assets:      assets,
		workers:     cfg.WorkerCount,
		maxAttempts: 5,
		retryDelay:  time.Second,
	}
}

// Start runs the worker pool until ctx is cancelled and waits for in-flight
// messages to finish.
func (c *Consumer) Start(ctx context.Context) error {
	log.WithField("workers", c.workers).Info("Starting to consume media events")

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			c.startWorker(ctx, id)
		}(i)
	}
	wg.Wait()

	return ctx.Err()
}

func (c *Consumer) startWorker(ctx context.Context, id int) {
	logger := log.WithField("worker", id)
	logger.Debug("worker started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Debug("worker stopped")
				return
			}
			logger.WithError(err).Warn("error fetching message")
			if !sleep(ctx, c.retryDelay) {
				return
			}
			continue
		}

		msgLogger := logger.WithFields(log.Fields{
			"partition": msg.Partition,
			"offset":    msg.Offset,
			"key":       string(msg.Key),
		})

		if err := c.processWithRetry(ctx, msg); err != nil {
			if ctx.Err() != nil {
				// left uncommitted, redelivered after restart
				return
			}
			msgLogger.WithError(err).Error("dropping media event")
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			msgLogger.WithError(err).Warn("failed to commit message")
			continue
		}
		msgLogger.Debug("media event committed")
	}
}

func (c *Consumer) processWithRetry(ctx context.Context, msg kafka.Message) error {
	var err error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err = c.processMessage(ctx, msg); err == nil || errors.Is(err, errSkip) {
			return err
		}
		log.WithError(err).Warnf("failed to apply media event (attempt %d/%d)", attempt, c.maxAttempts)
		if attempt < c.maxAttempts && !sleep(ctx, c.retryDelay*time.Duration(attempt)) {
			return ctx.Err()
		}
	}
	return err
}

func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var event domain.MediaEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("%w: failed to unmarshal message: %v", errSkip, err)
	}
	if event.Key == "" {
		return fmt.Errorf("%w: event %s has no key", errSkip, event.ID)
	}

	switch event.Type {
	case domain.EventAssetPublished:
		return c.assets.SaveAsset(ctx, assetFromEvent(event))
	case domain.EventAssetDeleted:
		return c.assets.MarkDeleted(ctx, event.Key)
	default:
		return fmt.Errorf("%w: unknown event type %q", errSkip, event.Type)
	}
}

func assetFromEvent(event domain.MediaEvent) domain.Asset {
	createdAt := time.Now().UTC()
	if event.Timestamp > 0 {
		createdAt = time.Unix(event.Timestamp, 0).UTC()
	}
	return domain.Asset{
		Key:           event.Key,
		URL:           event.URL,
		Preset:        event.Preset,
		OriginalSize:  event.OriginalSize,
		ProcessedSize: event.ProcessedSize,
		Dimensions:    event.Dimensions,
		Status:        domain.AssetStatusPublished,
		UploadedBy:    event.Actor,
		CreatedAt:     createdAt,
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (c *Consumer) Close() error {
	if c.reader != nil {
		log.Infof("Closing Kafka reader...")
		return c.reader.Close()
	}
	return nil
}
