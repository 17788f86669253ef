package port

import (
	"context"

	"github.com/dontpanicw/ClinicMedia/internal/domain"
)

type PresetResolver interface {
	Resolve(name string) (string, domain.PresetConfig)
}

type Transcoder interface {
	Transcode(data []byte, cfg domain.PresetConfig) (domain.TranscodeResult, error)
}

type Publisher interface {
	Publish(ctx context.Context, data []byte, desiredName string) (domain.StoredObject, error)
	Delete(ctx context.Context, url string) (string, error)
}

type MediaUsecases interface {
	Upload(ctx context.Context, session domain.Session, req domain.UploadRequest) (*domain.UploadResult, error)
	Delete(ctx context.Context, session domain.Session, url string) error
	ListAssets(ctx context.Context, limit int) ([]domain.Asset, error)
}
