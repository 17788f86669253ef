package publisher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dontpanicw/ClinicMedia/internal/domain"
	"github.com/dontpanicw/ClinicMedia/internal/port"
)

var _ port.Publisher = (*BlobPublisher)(nil)

const (
	DefaultFolder  = "uploads"
	maxBaseNameLen = 64
)

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

// BlobPublisher names transcoded images and hands them to a BlobStore.
type BlobPublisher struct {
	store      port.BlobStore
	configured bool
	folder     string
	now        func() time.Time
	suffix     func() string
}

// NewBlobPublisher returns a publisher that refuses every call with
// ErrStorageUnavailable when configured is false.
func NewBlobPublisher(store port.BlobStore, configured bool) *BlobPublisher {
	return &BlobPublisher{
		store:      store,
		configured: configured && store != nil,
		folder:     DefaultFolder,
		now:        time.Now,
		suffix:     randomSuffix,
	}
}

func (p *BlobPublisher) Publish(ctx context.Context, data []byte, desiredName string) (domain.StoredObject, error) {
	if !p.configured {
		return domain.StoredObject{}, fmt.Errorf("%w: set the storage credentials before uploading", domain.ErrStorageUnavailable)
	}

	key := p.StoredName(desiredName)
	obj, err := p.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), domain.OutputMimeType)
	if err != nil {
		return domain.StoredObject{}, storageErr(err)
	}
	return obj, nil
}

// Delete removes the object behind a public URL and returns its key.
func (p *BlobPublisher) Delete(ctx context.Context, url string) (string, error) {
	if !p.configured {
		return "", fmt.Errorf("%w: set the storage credentials before deleting", domain.ErrStorageUnavailable)
	}

	key, ok := p.store.KeyFromURL(url)
	if !ok {
		return "", fmt.Errorf("%w: url %q is not served by this media store", domain.ErrBadRequest, url)
	}
	if err := p.store.Remove(ctx, key); err != nil {
		return "", storageErr(err)
	}
	return key, nil
}

// StoredName builds "<folder>/<unix-millis>-<sanitized-name>-<suffix>.jpg".
func (p *BlobPublisher) StoredName(desiredName string) string {
	return fmt.Sprintf("%s/%d-%s-%s.jpg", p.folder, p.now().UnixMilli(), SanitizeName(desiredName), p.suffix())
}

// SanitizeName drops the directory and extension and replaces every
// non-alphanumeric character with '-'.
func SanitizeName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	base = nonAlnum.ReplaceAllString(base, "-")
	if len(base) > maxBaseNameLen {
		base = base[:maxBaseNameLen]
	}
	if strings.Trim(base, "-") == "" {
		return "image"
	}
	return base
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func storageErr(err error) error {
	switch {
	case errors.Is(err, domain.ErrStorageUnavailable),
		errors.Is(err, domain.ErrAssetNotFound),
		errors.Is(err, domain.ErrBadRequest):
		return err
	default:
		return fmt.Errorf("%w: %v", domain.ErrStorageError, err)
	}
}
