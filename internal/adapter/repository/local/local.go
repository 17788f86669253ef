// Package local stores media on an afero filesystem and serves it over HTTP.
// It backs single-node deployments and the HTTP tests (in-memory fs).
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/dontpanicw/ClinicMedia/internal/domain"
	"github.com/dontpanicw/ClinicMedia/internal/port"
	"github.com/dontpanicw/ClinicMedia/pkg/log"
)

var _ port.BlobStore = (*FileStorage)(nil)

type FileStorage struct {
	fs      afero.Fs
	baseURL string
}

// NewFileStorage roots the store at dir on the OS filesystem.
func NewFileStorage(dir, baseURL string) *FileStorage {
	return NewFileStorageFs(afero.NewBasePathFs(afero.NewOsFs(), dir), baseURL)
}

func NewFileStorageFs(fsys afero.Fs, baseURL string) *FileStorage {
	return &FileStorage{fs: fsys, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *FileStorage) Init(_ context.Context) error {
	return s.fs.MkdirAll("/", 0o755)
}

func (s *FileStorage) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (domain.StoredObject, error) {
	name, err := cleanKey(key)
	if err != nil {
		return domain.StoredObject{}, err
	}
	if err := s.fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		return domain.StoredObject{}, fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	f, err := s.fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return domain.StoredObject{}, fmt.Errorf("failed to create %s: %w", key, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = s.fs.Remove(name)
		return domain.StoredObject{}, fmt.Errorf("failed to write %s: %w", key, err)
	}

	log.WithFields(log.Fields{"key": key, "size": n}).Info("object stored on disk")
	return domain.StoredObject{Key: key, URL: s.baseURL + "/" + key}, nil
}

func (s *FileStorage) Remove(_ context.Context, key string) error {
	name, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(name); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("object %s: %w", key, domain.ErrAssetNotFound)
		}
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	log.WithField("key", key).Info("object removed from disk")
	return nil
}

func (s *FileStorage) KeyFromURL(url string) (string, bool) {
	prefix := s.baseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	if _, err := cleanKey(key); err != nil {
		return "", false
	}
	return key, true
}

// Handler serves stored objects read-only; mount it under the base URL path.
func (s *FileStorage) Handler() http.Handler {
	return http.FileServer(afero.NewHttpFs(s.fs).Dir("/"))
}

func cleanKey(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: invalid object key %q", domain.ErrBadRequest, key)
	}
	return path.Clean("/" + key), nil
}
