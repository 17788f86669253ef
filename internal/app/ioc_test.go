package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dontpanicw/ClinicMedia/config"
	"github.com/dontpanicw/ClinicMedia/internal/adapter/broker"
	"github.com/dontpanicw/ClinicMedia/internal/domain"
	httpin "github.com/dontpanicw/ClinicMedia/internal/input/http"
)

func localConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		HTTPPort:       ":0",
		StorageDriver:  config.StorageLocal,
		LocalMediaDir:  filepath.Join(dir, "media"),
		AdminDBPath:    filepath.Join(dir, "db", "admins.db"),
		AdminUsername:  "reception",
		AdminPassword:  "s3cret-pass",
		SessionSecret:  "0123456789abcdef0123456789abcdef",
		SessionTTL:     config.DefaultSessionTTL,
		MaxUploadBytes: config.DefaultMaxUploadBytes,
	}
}

func TestInitAdmins_SeedsBootstrapAccount(t *testing.T) {
	cfg := localConfig(t)

	dao, err := InitAdmins(context.Background(), cfg)
	require.NoError(t, err)
	defer dao.Close()

	role, err := dao.VerifyCredentials(context.Background(), "reception", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, role)
}

func TestInitAdmins_MissingPassword(t *testing.T) {
	cfg := localConfig(t)
	cfg.AdminPassword = ""

	_, err := InitAdmins(context.Background(), cfg)
	assert.Error(t, err)
}

func TestInitBlobStore_LocalMountsFileServer(t *testing.T) {
	cfg := localConfig(t)

	store, err := InitBlobStore(context.Background(), cfg)
	require.NoError(t, err)

	obj, err := store.Put(context.Background(), "uploads/a.jpg", strings.NewReader("jpeg"), 4, domain.MimeJPEG)
	require.NoError(t, err)
	assert.Equal(t, "/media/uploads/a.jpg", obj.URL)

	opts := InitServerOptions(cfg, store)
	assert.Equal(t, "/media", opts.MediaPrefix)
	require.NotNil(t, opts.Media)

	router := httpin.NewRouter(httpin.NewHandler(nil, nil, 0), nil, opts)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, obj.URL, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpeg", w.Body.String())
}

func TestInitBlobStore_MinioWithoutCredentials(t *testing.T) {
	cfg := localConfig(t)
	cfg.StorageDriver = config.StorageMinio
	cfg.MinioEndpoint = "localhost:9000"
	cfg.BucketName = "clinic-media"

	store, err := InitBlobStore(context.Background(), cfg)
	require.NoError(t, err)

	pub := InitPublisher(cfg, store)
	_, err = pub.Publish(context.Background(), []byte("x"), "a.png")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)

	assert.Empty(t, InitServerOptions(cfg, store).MediaPrefix)
}

func TestInitEvents_Disabled(t *testing.T) {
	assert.IsType(t, broker.NopPublisher{}, InitEvents(&config.Config{}))
}

func TestInitAssets_NoDSN(t *testing.T) {
	repo, err := InitAssets(context.Background(), &config.Config{})
	require.NoError(t, err)
	assert.Nil(t, repo)
}

func TestInitializeApp_Local(t *testing.T) {
	cfg := localConfig(t)

	app, err := InitializeApp(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, app)
	app.close()
}
