package usecases

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dontpanicw/ClinicMedia/internal/domain"
	"github.com/dontpanicw/ClinicMedia/internal/port"
	"github.com/dontpanicw/ClinicMedia/pkg/log"
)

var _ port.MediaUsecases = (*MediaUsecases)(nil)

// ErrLedgerDisabled is returned by ListAssets when no database is configured.
var ErrLedgerDisabled = errors.New("asset ledger is not configured")

type MediaUsecases struct {
	presets    port.PresetResolver
	transcoder port.Transcoder
	publisher  port.Publisher
	events     port.EventPublisher
	assets     port.AssetRepository
	maxBytes   int64
}

// NewMediaUsecases wires the pipeline. assets may be nil when the ledger is off.
func NewMediaUsecases(
	presets port.PresetResolver,
	transcoder port.Transcoder,
	publisher port.Publisher,
	events port.EventPublisher,
	assets port.AssetRepository,
	maxBytes int64,
) *MediaUsecases {
	if maxBytes <= 0 {
		maxBytes = domain.MaxUploadBytes
	}
	return &MediaUsecases{
		presets:    presets,
		transcoder: transcoder,
		publisher:  publisher,
		events:     events,
		assets:     assets,
		maxBytes:   maxBytes,
	}
}

func (m *MediaUsecases) MaxUploadBytes() int64 {
	return m.maxBytes
}

// Upload validates, transcodes and publishes one image. Nothing is persisted
// unless every step succeeds.
func (m *MediaUsecases) Upload(ctx context.Context, session domain.Session, req domain.UploadRequest) (*domain.UploadResult, error) {
	if err := m.validateUpload(req); err != nil {
		return nil, err
	}

	presetName, cfg := m.presets.Resolve(req.Preset)
	logger := log.WithFields(log.Fields{
		"user":   session.Username,
		"file":   req.FileName,
		"preset": presetName,
		"size":   len(req.Data),
	})

	transcoded, err := m.transcoder.Transcode(req.Data, cfg)
	if err != nil {
		logger.WithError(err).Warn("transcode failed")
		return nil, fmt.Errorf("failed to process image: %w", err)
	}

	stored, err := m.publisher.Publish(ctx, transcoded.Data, req.FileName)
	if err != nil {
		logger.WithError(err).Error("publish failed")
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	result := &domain.UploadResult{
		URL:           stored.URL,
		Filename:      stored.Key,
		OriginalSize:  int64(len(req.Data)),
		ProcessedSize: int64(len(transcoded.Data)),
		Preset:        presetName,
		Dimensions:    transcoded.Dimensions,
		Type:          transcoded.MimeType,
	}
	logger.WithField("key", stored.Key).Info("image uploaded")

	m.emit(ctx, domain.MediaEvent{
		Type:          domain.EventAssetPublished,
		Key:           stored.Key,
		URL:           stored.URL,
		Preset:        presetName,
		OriginalSize:  result.OriginalSize,
		ProcessedSize: result.ProcessedSize,
		Dimensions:    result.Dimensions,
		Actor:         session.Username,
	})

	return result, nil
}

func (m *MediaUsecases) Delete(ctx context.Context, session domain.Session, url string) error {
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("%w: url is required", domain.ErrBadRequest)
	}

	key, err := m.publisher.Delete(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	log.WithFields(log.Fields{"user": session.Username, "key": key}).Info("image deleted")

	m.emit(ctx, domain.MediaEvent{
		Type:  domain.EventAssetDeleted,
		Key:   key,
		URL:   url,
		Actor: session.Username,
	})
	return nil
}

func (m *MediaUsecases) ListAssets(ctx context.Context, limit int) ([]domain.Asset, error) {
	if m.assets == nil {
		return nil, ErrLedgerDisabled
	}
	return m.assets.ListAssets(ctx, limit)
}

func (m *MediaUsecases) validateUpload(req domain.UploadRequest) error {
	if len(req.Data) == 0 {
		return domain.ErrMissingFile
	}
	if int64(len(req.Data)) > m.maxBytes {
		return fmt.Errorf("%w: %d bytes, limit is %d", domain.ErrFileTooLarge, len(req.Data), m.maxBytes)
	}

	declared := normalizeMime(req.DeclaredMimeType)
	if !domain.AllowedMimeTypes[declared] {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedType, req.DeclaredMimeType)
	}
	if sniffed := sniffMime(req.Data); !domain.AllowedMimeTypes[sniffed] {
		return fmt.Errorf("%w: content looks like %q", domain.ErrUnsupportedType, sniffed)
	}
	return nil
}

// emit never fails the request; the blob is already stored.
func (m *MediaUsecases) emit(ctx context.Context, event domain.MediaEvent) {
	if m.events == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now().Unix()
	if err := m.events.Publish(ctx, event); err != nil {
		log.WithError(err).WithField("key", event.Key).Warn("failed to publish media event")
	}
}

func normalizeMime(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if mime == "image/jpg" || mime == "image/pjpeg" {
		return domain.MimeJPEG
	}
	return mime
}

func sniffMime(data []byte) string {
	return normalizeMime(http.DetectContentType(data))
}
