package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/dontpanicw/ClinicMedia/pkg/log"
)

const (
	StorageMinio = "minio"
	StorageLocal = "local"
)

type Config struct {
	HTTPPort       string `validate:"required"`
	LogLevel       string
	PprofAddr      string // empty disables the profiler
	AllowedOrigins []string

	StorageDriver     string `validate:"oneof=minio local"`
	MinioEndpoint     string // host:port of the MinIO/S3 endpoint
	BucketName        string
	MinioRootUser     string
	MinioRootPassword string
	MinioUseSSL       bool
	PublicBaseURL     string // prefix of every returned URL; derived from the endpoint when empty
	LocalMediaDir     string

	MasterDSN string
	SlaveDSNs []string

	KafkaEnabled    bool
	KafkaBrokers    []string
	KafkaMediaTopic string `validate:"required"`
	KafkaGroupID    string `validate:"required"`
	WorkerCount     int    `validate:"min=1,max=64"`

	SessionSecret string        `validate:"required,min=16"`
	SessionTTL    time.Duration `validate:"gt=0"`
	AdminDBPath   string        `validate:"required"`
	AdminUsername string
	AdminPassword string

	PresetsFile    string
	MaxUploadBytes int64 `validate:"gt=0"`
}

const (
	DefaultHTTPPort       = ":8080"
	DefaultMinioEndpoint  = ":9000"
	DefaultBucketName     = "clinic-media"
	DefaultLocalMediaDir  = "./data/media"
	DefaultMediaTopic     = "media-events"
	DefaultGroupID        = "media-ledger"
	DefaultWorkerCount    = 4
	DefaultPprofAddr      = "localhost:6060"
	DefaultSessionTTL     = 8 * time.Hour
	DefaultAdminDBPath    = "./data/admins.db"
	DefaultMaxUploadBytes = 10 << 20
	DefaultLogLevel       = "info"
)

func NewConfig() (*Config, error) {
	cfg := Config{
		HTTPPort:        DefaultHTTPPort,
		LogLevel:        DefaultLogLevel,
		PprofAddr:       DefaultPprofAddr,
		StorageDriver:   StorageMinio,
		MinioEndpoint:   DefaultMinioEndpoint,
		BucketName:      DefaultBucketName,
		MinioUseSSL:     false,
		LocalMediaDir:   DefaultLocalMediaDir,
		KafkaMediaTopic: DefaultMediaTopic,
		KafkaBrokers:    []string{"localhost:9092"},
		KafkaGroupID:    DefaultGroupID,
		WorkerCount:     DefaultWorkerCount,
		SessionTTL:      DefaultSessionTTL,
		AdminDBPath:     DefaultAdminDBPath,
		MaxUploadBytes:  DefaultMaxUploadBytes,
	}

	if err := godotenv.Load(); err != nil {
		log.Debugf("No .env file found")
	}

	if httpPort := os.Getenv("HTTP_PORT"); httpPort != "" {
		if httpPort[0] != ':' {
			httpPort = ":" + httpPort
		}
		cfg.HTTPPort = httpPort
	}
	setString(&cfg.LogLevel, "LOG_LEVEL")
	if addr, ok := os.LookupEnv("PPROF_ADDR"); ok {
		cfg.PprofAddr = addr
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}

	setString(&cfg.StorageDriver, "STORAGE_DRIVER")
	setString(&cfg.MinioEndpoint, "MINIO_ENDPOINT")
	setString(&cfg.BucketName, "BUCKET_NAME")
	setString(&cfg.MinioRootUser, "MINIO_ROOT_USER")
	setString(&cfg.MinioRootPassword, "MINIO_ROOT_PASSWORD")
	setString(&cfg.PublicBaseURL, "PUBLIC_BASE_URL")
	setString(&cfg.LocalMediaDir, "LOCAL_MEDIA_DIR")
	if err := setBool(&cfg.MinioUseSSL, "MINIO_USE_SSL"); err != nil {
		return nil, err
	}

	setString(&cfg.MasterDSN, "MASTER_DSN")
	if slaveDSN := os.Getenv("SLAVE_DSN"); slaveDSN != "" {
		cfg.SlaveDSNs = splitList(slaveDSN)
	}

	if err := setBool(&cfg.KafkaEnabled, "KAFKA_ENABLED"); err != nil {
		return nil, err
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitList(brokers)
	}
	setString(&cfg.KafkaMediaTopic, "KAFKA_MEDIA_TOPIC")
	setString(&cfg.KafkaGroupID, "KAFKA_GROUP_ID")
	if raw := os.Getenv("WORKER_COUNT"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid WORKER_COUNT %q: %w", raw, err)
		}
		cfg.WorkerCount = n
	}

	setString(&cfg.SessionSecret, "SESSION_SECRET")
	if ttl := os.Getenv("SESSION_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TTL %q: %w", ttl, err)
		}
		cfg.SessionTTL = d
	}
	setString(&cfg.AdminDBPath, "ADMIN_DB_PATH")
	setString(&cfg.AdminUsername, "ADMIN_USERNAME")
	setString(&cfg.AdminPassword, "ADMIN_PASSWORD")

	setString(&cfg.PresetsFile, "PRESETS_FILE")
	if raw := os.Getenv("MAX_UPLOAD_BYTES"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_UPLOAD_BYTES %q: %w", raw, err)
		}
		cfg.MaxUploadBytes = n
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// StorageConfigured reports whether the selected blob driver has what it needs.
// The publisher checks this before every call instead of failing inside the SDK.
func (c *Config) StorageConfigured() bool {
	switch c.StorageDriver {
	case StorageLocal:
		return c.LocalMediaDir != ""
	default:
		return c.MinioEndpoint != "" && c.BucketName != "" &&
			c.MinioRootUser != "" && c.MinioRootPassword != ""
	}
}

// MediaBaseURL is the public prefix for stored objects.
func (c *Config) MediaBaseURL() string {
	if c.PublicBaseURL != "" {
		return strings.TrimRight(c.PublicBaseURL, "/")
	}
	if c.StorageDriver == StorageLocal {
		return "/media"
	}
	scheme := "http"
	if c.MinioUseSSL {
		scheme = "https"
	}
	host := c.MinioEndpoint
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return fmt.Sprintf("%s://%s/%s", scheme, host, c.BucketName)
}

// MediaMountPath is the path component of MediaBaseURL, where the local
// driver's file server is mounted.
func (c *Config) MediaMountPath() string {
	u, err := url.Parse(c.MediaBaseURL())
	if err != nil || u.Path == "" || u.Path == "/" {
		return "/media"
	}
	return strings.TrimRight(u.Path, "/")
}

// SecureCookies reports whether the admin UI is served over TLS.
func (c *Config) SecureCookies() bool {
	return c.MinioUseSSL || strings.HasPrefix(c.PublicBaseURL, "https://")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = b
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
