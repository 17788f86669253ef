package minio

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dontpanicw/ClinicMedia/config"
	"github.com/dontpanicw/ClinicMedia/internal/domain"
)

func TestKeyFromURL(t *testing.T) {
	s := NewMinioStorage(&config.Config{
		MinioEndpoint: "minio:9000",
		BucketName:    "clinic-media",
	})

	tests := []struct {
		url   string
		key   string
		found bool
	}{
		{"http://minio:9000/clinic-media/uploads/1-a-b.jpg", "uploads/1-a-b.jpg", true},
		{"http://minio:9000/clinic-media/uploads/1-a-b.jpg?v=2", "uploads/1-a-b.jpg", true},
		{"http://minio:9000/clinic-media/", "", false},
		{"http://minio:9000/other-bucket/uploads/a.jpg", "", false},
		{"https://cdn.example/uploads/a.jpg", "", false},
	}

	for _, tt := range tests {
		key, found := s.KeyFromURL(tt.url)
		assert.Equal(t, tt.found, found, tt.url)
		assert.Equal(t, tt.key, key, tt.url)
	}
}

func TestKeyFromURL_PublicBaseURL(t *testing.T) {
	s := NewMinioStorage(&config.Config{
		MinioEndpoint: "minio:9000",
		BucketName:    "clinic-media",
		PublicBaseURL: "https://media.clinic.example/",
	})

	key, found := s.KeyFromURL("https://media.clinic.example/uploads/a.jpg")
	assert.True(t, found)
	assert.Equal(t, "uploads/a.jpg", key)
}

func TestUninitializedClient(t *testing.T) {
	s := NewMinioStorage(&config.Config{MinioEndpoint: "minio:9000", BucketName: "b"})

	_, err := s.Put(context.Background(), "uploads/a.jpg", bytes.NewReader([]byte("x")), 1, domain.MimeJPEG)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)

	assert.ErrorIs(t, s.Remove(context.Background(), "uploads/a.jpg"), domain.ErrStorageUnavailable)
	assert.ErrorIs(t, s.Remove(context.Background(), ""), domain.ErrBadRequest)
}
