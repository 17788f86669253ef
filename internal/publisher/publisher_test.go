package publisher

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dontpanicw/ClinicMedia/internal/adapter/repository/local"
	"github.com/dontpanicw/ClinicMedia/internal/domain"
)

type mockBlobStore struct {
	putFunc    func(ctx context.Context, key string, r io.Reader, size int64, contentType string) (domain.StoredObject, error)
	removeFunc func(ctx context.Context, key string) error
	puts       int
}

func (m *mockBlobStore) Init(context.Context) error { return nil }

func (m *mockBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (domain.StoredObject, error) {
	m.puts++
	if m.putFunc != nil {
		return m.putFunc(ctx, key, r, size, contentType)
	}
	return domain.StoredObject{Key: key, URL: "https://cdn/" + key}, nil
}

func (m *mockBlobStore) Remove(ctx context.Context, key string) error {
	if m.removeFunc != nil {
		return m.removeFunc(ctx, key)
	}
	return nil
}

func (m *mockBlobStore) KeyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, "https://cdn/") {
		return "", false
	}
	return strings.TrimPrefix(url, "https://cdn/"), true
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"photo.png", "photo"},
		{"Dr. Kim (front) 2024.JPG", "Dr--Kim--front--2024"},
		{"C:\\Users\\me\\hero.webp", "hero"},
		{"../../etc/passwd", "passwd"},
		{"한글.jpg", "image"},
		{"", "image"},
		{strings.Repeat("a", 100) + ".gif", strings.Repeat("a", 64)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeName(tt.in))
		})
	}
}

func TestStoredName_Format(t *testing.T) {
	p := NewBlobPublisher(&mockBlobStore{}, true)
	p.now = func() time.Time { return time.UnixMilli(1700000000123) }
	p.suffix = func() string { return "abc123" }

	assert.Equal(t, "uploads/1700000000123-clinic-lobby-abc123.jpg", p.StoredName("clinic lobby.png"))
}

func TestPublish_SameFileTwiceGetsDistinctNames(t *testing.T) {
	p := NewBlobPublisher(&mockBlobStore{}, true)
	fixed := time.Now()
	p.now = func() time.Time { return fixed }

	first, err := p.Publish(context.Background(), []byte("x"), "same.jpg")
	require.NoError(t, err)
	second, err := p.Publish(context.Background(), []byte("x"), "same.jpg")
	require.NoError(t, err)

	assert.NotEqual(t, first.Key, second.Key)
	assert.NotEqual(t, first.URL, second.URL)
}

func TestPublish_UnconfiguredFailsFast(t *testing.T) {
	store := &mockBlobStore{}
	p := NewBlobPublisher(store, false)

	_, err := p.Publish(context.Background(), []byte("x"), "a.jpg")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.Zero(t, store.puts, "store must not be called")

	_, err = p.Delete(context.Background(), "https://cdn/uploads/a.jpg")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestPublish_StoreFailure(t *testing.T) {
	store := &mockBlobStore{
		putFunc: func(context.Context, string, io.Reader, int64, string) (domain.StoredObject, error) {
			return domain.StoredObject{}, errors.New("connection refused")
		},
	}
	_, err := NewBlobPublisher(store, true).Publish(context.Background(), []byte("x"), "a.jpg")
	assert.ErrorIs(t, err, domain.ErrStorageError)
}

func TestPublish_SendsJPEGContentType(t *testing.T) {
	var gotType string
	var gotSize int64
	store := &mockBlobStore{
		putFunc: func(_ context.Context, key string, _ io.Reader, size int64, contentType string) (domain.StoredObject, error) {
			gotType, gotSize = contentType, size
			return domain.StoredObject{Key: key}, nil
		},
	}
	_, err := NewBlobPublisher(store, true).Publish(context.Background(), []byte("12345"), "a.png")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", gotType)
	assert.Equal(t, int64(5), gotSize)
}

func TestDelete(t *testing.T) {
	var removed string
	store := &mockBlobStore{
		removeFunc: func(_ context.Context, key string) error {
			removed = key
			return nil
		},
	}
	p := NewBlobPublisher(store, true)

	key, err := p.Delete(context.Background(), "https://cdn/uploads/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "uploads/a.jpg", key)
	assert.Equal(t, "uploads/a.jpg", removed)

	_, err = p.Delete(context.Background(), "https://other/uploads/a.jpg")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestPublishThenDelete_LocalStore(t *testing.T) {
	fsys := afero.NewMemMapFs()
	store := local.NewFileStorageFs(fsys, "/media")
	p := NewBlobPublisher(store, true)
	ctx := context.Background()

	obj, err := p.Publish(ctx, []byte("jpeg"), "front desk.png")
	require.NoError(t, err)

	exists, err := afero.Exists(fsys, "/"+obj.Key)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = p.Delete(ctx, obj.URL)
	require.NoError(t, err)

	exists, err = afero.Exists(fsys, "/"+obj.Key)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = p.Delete(ctx, obj.URL)
	assert.ErrorIs(t, err, domain.ErrAssetNotFound)
}
