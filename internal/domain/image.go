package domain

import "time"

const (
	PresetHero    = "hero"
	PresetService = "service"
	PresetGallery = "gallery"
	PresetDefault = "default"

	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimeWebP = "image/webp"
	MimeGIF  = "image/gif"

	// OutputMimeType is the only format the transcoder produces.
	OutputMimeType = MimeJPEG

	MaxUploadBytes = 10 << 20
)

// AllowedMimeTypes are the accepted upload types.
var AllowedMimeTypes = map[string]bool{
	MimeJPEG: true,
	MimePNG:  true,
	MimeWebP: true,
	MimeGIF:  true,
}

type PresetConfig struct {
	Width   int `json:"width" yaml:"width" validate:"gt=0"`
	Height  int `json:"height" yaml:"height" validate:"gt=0"`
	Quality int `json:"quality" yaml:"quality" validate:"min=1,max=100"`
}

type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// UploadRequest lives for a single HTTP request.
type UploadRequest struct {
	FileName         string
	Data             []byte
	DeclaredMimeType string
	Preset           string
}

// UploadResult is not persisted here; editors store URL in their own rows.
type UploadResult struct {
	URL           string     `json:"url"`
	Filename      string     `json:"filename"`
	OriginalSize  int64      `json:"originalSize"`
	ProcessedSize int64      `json:"processedSize"`
	Preset        string     `json:"preset"`
	Dimensions    Dimensions `json:"dimensions"`
	Type          string     `json:"type"`
}

// TranscodeResult is what the transcoder hands to the publisher.
type TranscodeResult struct {
	Data       []byte
	Dimensions Dimensions
	MimeType   string
}

// StoredObject is returned by a blob store after a successful put.
type StoredObject struct {
	Key string
	URL string
}

const (
	RoleAdmin = "admin"
)

// Session is the authenticated admin carried on the request context.
type Session struct {
	ID        string    `json:"-"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}
