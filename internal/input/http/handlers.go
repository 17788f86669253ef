package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dontpanicw/ClinicMedia/internal/domain"
	"github.com/dontpanicw/ClinicMedia/internal/port"
	"github.com/dontpanicw/ClinicMedia/pkg/log"
)

// multipart framing on top of the file itself
const formOverhead = 1 << 20

type Handler struct {
	usecases port.MediaUsecases
	sessions port.SessionManager
	maxBytes int64
}

func NewHandler(usecases port.MediaUsecases, sessions port.SessionManager, maxBytes int64) *Handler {
	if maxBytes <= 0 {
		maxBytes = domain.MaxUploadBytes
	}
	return &Handler{
		usecases: usecases,
		sessions: sessions,
		maxBytes: maxBytes,
	}
}

func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	session, ok := SessionFrom(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+formOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, domain.ErrFileTooLarge)
			return
		}
		writeError(w, fmt.Errorf("%w: failed to parse form: %v", domain.ErrBadRequest, err))
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			log.WithError(err).Warn("failed to remove multipart temp files")
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, domain.ErrMissingFile)
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.WithError(err).Warn("failed to close uploaded file")
		}
	}()

	if header.Size > h.maxBytes {
		writeError(w, fmt.Errorf("%w: %d bytes", domain.ErrFileTooLarge, header.Size))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		writeError(w, fmt.Errorf("%w: failed to read file: %v", domain.ErrBadRequest, err))
		return
	}

	preset := r.FormValue("preset")
	if preset == "" {
		preset = domain.PresetDefault
	}

	result, err := h.usecases.Upload(r.Context(), session, domain.UploadRequest{
		FileName:         header.Filename,
		Data:             data,
		DeclaredMimeType: header.Header.Get("Content-Type"),
		Preset:           preset,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	session, ok := SessionFrom(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthorized)
		return
	}

	url := r.URL.Query().Get("url")
	if url == "" {
		writeError(w, fmt.Errorf("%w: url query parameter is required", domain.ErrBadRequest))
		return
	}

	if err := h.usecases.Delete(r.Context(), session, url); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Image deleted successfully",
	})
}

func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, fmt.Errorf("%w: limit must be a positive integer", domain.ErrBadRequest))
			return
		}
		limit = n
	}

	assets, err := h.usecases.ListAssets(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assets": assets})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid JSON body", domain.ErrBadRequest))
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, fmt.Errorf("%w: username and password are required", domain.ErrBadRequest))
		return
	}

	session, err := h.sessions.Login(r.Context(), w, req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	log.WithField("user", session.Username).Info("admin logged in")
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFrom(r.Context())
	h.sessions.Logout(w, session)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	session, ok := SessionFrom(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
