package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dontpanicw/ClinicMedia/internal/domain"
	"github.com/dontpanicw/ClinicMedia/internal/usecases"
	"github.com/dontpanicw/ClinicMedia/pkg/log"
)

// ErrorResponse is the body of every non-2xx JSON reply. The admin UI shows
// Message verbatim.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

type errorMapping struct {
	target  error
	status  int
	title   string
	message string
	hint    string
}

var errorMappings = []errorMapping{
	{domain.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized", "Admin login required", ""},
	{domain.ErrForbidden, http.StatusForbidden, "Forbidden", "This account may not manage media", ""},
	{domain.ErrMissingFile, http.StatusBadRequest, "Bad Request", "No file uploaded", "Send the image in the multipart field \"file\""},
	{domain.ErrUnsupportedType, http.StatusBadRequest, "Bad Request", "Invalid file type", "Allowed types: JPEG, PNG, WebP, GIF"},
	{domain.ErrFileTooLarge, http.StatusBadRequest, "Bad Request", "File too large", "Maximum upload size is 10MB"},
	{domain.ErrBadRequest, http.StatusBadRequest, "Bad Request", "Invalid request", ""},
	{domain.ErrAssetNotFound, http.StatusNotFound, "Not Found", "Image not found", ""},
	{domain.ErrStorageUnavailable, http.StatusInternalServerError, "Storage Unavailable", "Image storage is not configured",
		"Set STORAGE_DRIVER and the MINIO_* or LOCAL_MEDIA_DIR variables"},
	{domain.ErrDecode, http.StatusInternalServerError, "Processing Failed", "The image could not be read",
		"Re-save the file as JPEG or PNG and try again"},
	{domain.ErrTranscode, http.StatusInternalServerError, "Processing Failed", "The image could not be resized", ""},
	{domain.ErrStorageError, http.StatusInternalServerError, "Storage Error", "The image store rejected the request", "Try again later"},
	{usecases.ErrLedgerDisabled, http.StatusServiceUnavailable, "Service Unavailable", "Asset ledger is not configured", "Set MASTER_DSN"},
}

func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{
		Error:   "Internal Server Error",
		Message: "Unexpected error",
		Details: err.Error(),
	}
	status := http.StatusInternalServerError

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			status = m.status
			resp.Error, resp.Message, resp.Hint = m.title, m.message, m.hint
			break
		}
	}
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("failed to encode response")
	}
}
