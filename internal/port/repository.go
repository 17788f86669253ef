package port

import (
	"context"
	"io"

	"github.com/dontpanicw/ClinicMedia/internal/domain"
)

// BlobStore is a public-read object store addressed by key.
type BlobStore interface {
	Init(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (domain.StoredObject, error)
	Remove(ctx context.Context, key string) error
	// KeyFromURL maps a public URL back to its key; false when the URL is foreign.
	KeyFromURL(url string) (string, bool)
}

type AssetRepository interface {
	SaveAsset(ctx context.Context, asset domain.Asset) error
	MarkDeleted(ctx context.Context, key string) error
	ListAssets(ctx context.Context, limit int) ([]domain.Asset, error)
}

type AdminRepository interface {
	EnsureAdmin(ctx context.Context, username, password, role string) error
	VerifyCredentials(ctx context.Context, username, password string) (role string, err error)
}
