package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"

	"github.com/dontpanicw/ClinicMedia/config"
	"github.com/dontpanicw/ClinicMedia/internal/adapter/broker"
	"github.com/dontpanicw/ClinicMedia/internal/adapter/repository/admins"
	"github.com/dontpanicw/ClinicMedia/internal/adapter/repository/local"
	"github.com/dontpanicw/ClinicMedia/internal/adapter/repository/minio"
	"github.com/dontpanicw/ClinicMedia/internal/adapter/repository/postgres"
	"github.com/dontpanicw/ClinicMedia/internal/auth"
	"github.com/dontpanicw/ClinicMedia/internal/domain"
	httpin "github.com/dontpanicw/ClinicMedia/internal/input/http"
	"github.com/dontpanicw/ClinicMedia/internal/port"
	"github.com/dontpanicw/ClinicMedia/internal/preset"
	"github.com/dontpanicw/ClinicMedia/internal/publisher"
	"github.com/dontpanicw/ClinicMedia/internal/usecases"
	"github.com/dontpanicw/ClinicMedia/pkg/log"
	"github.com/dontpanicw/ClinicMedia/pkg/migrations"
)

const (
	dbConnectAttempts = 10
	dbConnectDelay    = 3 * time.Second
)

func InitPresets(cfg *config.Config) (*preset.Table, error) {
	table, err := preset.LoadFile(cfg.PresetsFile)
	if err != nil {
		return nil, err
	}
	if cfg.PresetsFile != "" {
		log.WithField("file", cfg.PresetsFile).Info("preset overrides loaded")
	}
	return table, nil
}

// InitAdmins opens the account store and seeds the bootstrap admin when
// ADMIN_USERNAME is set.
func InitAdmins(ctx context.Context, cfg *config.Config) (*admins.AdminDAO, error) {
	if dir := filepath.Dir(cfg.AdminDBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	dao, err := admins.Open(cfg.AdminDBPath)
	if err != nil {
		return nil, err
	}

	if cfg.AdminUsername == "" {
		log.Warnf("ADMIN_USERNAME is not set, only existing accounts can log in")
		return dao, nil
	}
	if err := dao.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword, domain.RoleAdmin); err != nil {
		_ = dao.Close()
		return nil, fmt.Errorf("failed to seed admin %s: %w", cfg.AdminUsername, err)
	}
	log.WithField("user", cfg.AdminUsername).Info("admin account ready")
	return dao, nil
}

func InitSessions(cfg *config.Config, accounts port.AdminRepository) *auth.CookieSessionManager {
	return auth.NewCookieSessionManager(accounts, cfg.SessionSecret, cfg.SessionTTL, cfg.SecureCookies())
}

// InitBlobStore selects the storage driver. An unconfigured MinIO store is
// returned as is; the publisher refuses to use it.
func InitBlobStore(ctx context.Context, cfg *config.Config) (port.BlobStore, error) {
	switch cfg.StorageDriver {
	case config.StorageLocal:
		store := local.NewFileStorage(cfg.LocalMediaDir, cfg.MediaBaseURL())
		if err := store.Init(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare %s: %w", cfg.LocalMediaDir, err)
		}
		log.WithField("dir", cfg.LocalMediaDir).Info("storing media on local disk")
		return store, nil
	default:
		store := minio.NewMinioStorage(cfg)
		if !cfg.StorageConfigured() {
			log.Warnf("MinIO credentials are not set, uploads will fail until they are")
			return store, nil
		}
		if err := store.Init(ctx); err != nil {
			return nil, err
		}
		log.WithField("bucket", cfg.BucketName).Info("MinIO initialized")
		return store, nil
	}
}

func InitPublisher(cfg *config.Config, store port.BlobStore) *publisher.BlobPublisher {
	return publisher.NewBlobPublisher(store, cfg.StorageConfigured())
}

func InitEvents(cfg *config.Config) port.EventPublisher {
	if !cfg.KafkaEnabled {
		log.Infof("Kafka is disabled, media events are dropped")
		return broker.NopPublisher{}
	}
	log.WithField("topic", cfg.KafkaMediaTopic).Info("Kafka producer initialized")
	return broker.NewProducer(cfg)
}

// InitAssets opens the asset ledger. Without MASTER_DSN the ledger is off
// and ListAssets reports it as unavailable.
func InitAssets(ctx context.Context, cfg *config.Config) (port.AssetRepository, error) {
	if cfg.MasterDSN == "" {
		log.Infof("MASTER_DSN is not set, asset ledger disabled")
		return nil, nil
	}
	repo, err := OpenLedger(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// OpenLedger waits for Postgres, applies migrations and returns the
// repository. The media worker uses it too.
func OpenLedger(ctx context.Context, cfg *config.Config) (*postgres.AssetRepository, error) {
	db, err := connectPostgres(ctx, cfg.MasterDSN)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := migrations.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	log.Infof("Migrations applied successfully")

	return postgres.NewAssetRepository(cfg)
}

func connectPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	var err error
	for i := 0; i < dbConnectAttempts; i++ {
		var db *sql.DB
		db, err = sql.Open("postgres", dsn)
		if err == nil {
			if err = db.PingContext(ctx); err == nil {
				log.Infof("Connected to PostgreSQL")
				return db, nil
			}
			_ = db.Close()
		}
		log.WithError(err).Warnf("Waiting for PostgreSQL... (attempt %d/%d)", i+1, dbConnectAttempts)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dbConnectDelay):
		}
	}
	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", dbConnectAttempts, err)
}

func InitUsecases(
	cfg *config.Config,
	presets port.PresetResolver,
	transcoder port.Transcoder,
	pub port.Publisher,
	events port.EventPublisher,
	assets port.AssetRepository,
) *usecases.MediaUsecases {
	return usecases.NewMediaUsecases(presets, transcoder, pub, events, assets, cfg.MaxUploadBytes)
}

// InitServerOptions mounts the file server when blobs live on local disk.
func InitServerOptions(cfg *config.Config, store port.BlobStore) httpin.Options {
	opts := httpin.Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		AllowedOrigins: cfg.AllowedOrigins,
	}
	if fs, ok := store.(*local.FileStorage); ok {
		opts.MediaPrefix = cfg.MediaMountPath()
		opts.Media = fs.Handler()
	}
	return opts
}

func InitServer(cfg *config.Config, media port.MediaUsecases, sessions port.SessionManager, opts httpin.Options) *httpin.Server {
	return httpin.NewServer(cfg.HTTPPort, media, sessions, opts)
}
