package domain

import "time"

const (
	EventAssetPublished = "asset.published"
	EventAssetDeleted   = "asset.deleted"

	AssetStatusPublished = "Published"
	AssetStatusDeleted   = "Deleted"
)

// MediaEvent is the Kafka message emitted after an upload or delete.
type MediaEvent struct {
	ID            string     `json:"id"`
	Type          string     `json:"type"`
	Key           string     `json:"key"`
	URL           string     `json:"url"`
	Preset        string     `json:"preset,omitempty"`
	OriginalSize  int64      `json:"original_size,omitempty"`
	ProcessedSize int64      `json:"processed_size,omitempty"`
	Dimensions    Dimensions `json:"dimensions"`
	Actor         string     `json:"actor"`
	Timestamp     int64      `json:"timestamp"`
}

// Asset is a row of the media ledger the worker maintains from MediaEvents.
type Asset struct {
	Key           string     `json:"key"`
	URL           string     `json:"url"`
	Preset        string     `json:"preset"`
	OriginalSize  int64      `json:"original_size"`
	ProcessedSize int64      `json:"processed_size"`
	Dimensions    Dimensions `json:"dimensions"`
	Status        string     `json:"status"`
	UploadedBy    string     `json:"uploaded_by"`
	CreatedAt     time.Time  `json:"created_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}
