package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dontpanicw/ClinicMedia/internal/adapter/broker"
	"github.com/dontpanicw/ClinicMedia/internal/adapter/repository/local"
	"github.com/dontpanicw/ClinicMedia/internal/auth"
	"github.com/dontpanicw/ClinicMedia/internal/domain"
	"github.com/dontpanicw/ClinicMedia/internal/preset"
	"github.com/dontpanicw/ClinicMedia/internal/publisher"
	"github.com/dontpanicw/ClinicMedia/internal/usecases"
)

type stubAdmins struct{}

func (stubAdmins) EnsureAdmin(context.Context, string, string, string) error { return nil }

func (stubAdmins) VerifyCredentials(_ context.Context, username, password string) (string, error) {
	if username == "admin" && password == "correct horse" {
		return domain.RoleAdmin, nil
	}
	return "", domain.ErrInvalidCredentials
}

// sizeTranscoder returns a fake JPEG sized exactly to the preset.
type sizeTranscoder struct {
	calls int
}

func (t *sizeTranscoder) Transcode(_ []byte, cfg domain.PresetConfig) (domain.TranscodeResult, error) {
	t.calls++
	return domain.TranscodeResult{
		Data:       []byte("\xff\xd8\xff\xe0 fake jpeg"),
		Dimensions: domain.Dimensions{Width: cfg.Width, Height: cfg.Height},
		MimeType:   domain.OutputMimeType,
	}, nil
}

type pipeline struct {
	router     http.Handler
	fs         afero.Fs
	transcoder *sizeTranscoder
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	fsys := afero.NewMemMapFs()
	store := local.NewFileStorageFs(fsys, "/media")
	require.NoError(t, store.Init(context.Background()))

	transcoder := &sizeTranscoder{}
	sessions := auth.NewCookieSessionManager(stubAdmins{}, "0123456789abcdef0123456789abcdef", time.Hour, false)
	media := usecases.NewMediaUsecases(
		preset.NewDefaultTable(),
		transcoder,
		publisher.NewBlobPublisher(store, true),
		broker.NopPublisher{},
		nil,
		domain.MaxUploadBytes,
	)
	handler := NewHandler(media, sessions, domain.MaxUploadBytes)
	router := NewRouter(handler, sessions, Options{
		MaxUploadBytes: domain.MaxUploadBytes,
		MediaPrefix:    "/media",
		Media:          store.Handler(),
	})
	return &pipeline{router: router, fs: fsys, transcoder: transcoder}
}

func (p *pipeline) login(t *testing.T) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	p.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login",
		bytes.NewBufferString(`{"username":"admin","password":"correct horse"}`)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, c := range w.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

func (p *pipeline) upload(t *testing.T, cookie *http.Cookie, presetName string) domain.UploadResult {
	t.Helper()
	body, ct := uploadBody(t, "Front Desk.png", domain.MimePNG, pngMagic, presetName)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	req.AddCookie(cookie)

	w := httptest.NewRecorder()
	p.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result domain.UploadResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	return result
}

func (p *pipeline) get(path string) int {
	w := httptest.NewRecorder()
	p.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w.Code
}

func (p *pipeline) delete(cookie *http.Cookie, objectURL string) int {
	req := httptest.NewRequest(http.MethodDelete, "/upload?url="+url.QueryEscape(objectURL), nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	p.router.ServeHTTP(w, req)
	return w.Code
}

func TestPipeline_UploadPublishesFetchableObject(t *testing.T) {
	p := newPipeline(t)
	cookie := p.login(t)

	result := p.upload(t, cookie, "hero")

	assert.Equal(t, "hero", result.Preset)
	assert.Equal(t, domain.Dimensions{Width: 800, Height: 1000}, result.Dimensions)
	assert.Equal(t, "image/jpeg", result.Type)
	assert.Regexp(t, `^uploads/\d+-Front-Desk-[0-9a-f]{12}\.jpg$`, result.Filename)
	assert.Equal(t, "/media/"+result.Filename, result.URL)
	assert.Equal(t, int64(len(pngMagic)), result.OriginalSize)

	assert.Equal(t, http.StatusOK, p.get(result.URL))
}

func TestPipeline_UnknownPresetFallsBackToDefault(t *testing.T) {
	p := newPipeline(t)
	result := p.upload(t, p.login(t), "banner")

	assert.Equal(t, domain.PresetDefault, result.Preset)
	assert.Equal(t, domain.Dimensions{Width: 1200, Height: 1200}, result.Dimensions)
}

func TestPipeline_SameFileTwiceGetsDistinctURLs(t *testing.T) {
	p := newPipeline(t)
	cookie := p.login(t)

	first := p.upload(t, cookie, "gallery")
	second := p.upload(t, cookie, "gallery")

	assert.NotEqual(t, first.URL, second.URL)
	assert.Equal(t, http.StatusOK, p.get(first.URL))
	assert.Equal(t, http.StatusOK, p.get(second.URL))
}

func TestPipeline_UnauthenticatedUploadStoresNothing(t *testing.T) {
	p := newPipeline(t)

	body, ct := uploadBody(t, "x.png", domain.MimePNG, pngMagic, "hero")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	p.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, p.transcoder.calls)

	entries, err := afero.ReadDir(p.fs, "/uploads")
	if err == nil {
		assert.Empty(t, entries)
	}
}

func TestPipeline_DeleteRequiresSession(t *testing.T) {
	p := newPipeline(t)
	result := p.upload(t, p.login(t), "service")

	assert.Equal(t, http.StatusUnauthorized, p.delete(nil, result.URL))
	assert.Equal(t, http.StatusOK, p.get(result.URL), "object must survive an unauthorized delete")
}

func TestPipeline_DeletedObjectIsGone(t *testing.T) {
	p := newPipeline(t)
	cookie := p.login(t)
	result := p.upload(t, cookie, "service")

	assert.Equal(t, http.StatusOK, p.delete(cookie, result.URL))
	assert.Equal(t, http.StatusNotFound, p.get(result.URL))
	assert.Equal(t, http.StatusNotFound, p.delete(cookie, result.URL))
}

func TestPipeline_DeleteForeignURL(t *testing.T) {
	p := newPipeline(t)
	assert.Equal(t, http.StatusBadRequest, p.delete(p.login(t), "https://elsewhere.example/a.jpg"))
}

func TestPipeline_LogoutRevokesSession(t *testing.T) {
	p := newPipeline(t)
	cookie := p.login(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	p.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	p.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPipeline_ListAssetsWithoutLedger(t *testing.T) {
	p := newPipeline(t)
	req := httptest.NewRequest(http.MethodGet, "/assets", nil)
	req.AddCookie(p.login(t))
	w := httptest.NewRecorder()
	p.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
