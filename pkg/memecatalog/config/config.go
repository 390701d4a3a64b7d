package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/meme-catalog/pkg/memecatalog"
	"github.com/tendant/meme-catalog/pkg/memecatalog/repo/memory"
	repopg "github.com/tendant/meme-catalog/pkg/memecatalog/repo/postgres"
	fsstorage "github.com/tendant/meme-catalog/pkg/memecatalog/storage/fs"
	memorystorage "github.com/tendant/meme-catalog/pkg/memecatalog/storage/memory"
	s3storage "github.com/tendant/meme-catalog/pkg/memecatalog/storage/s3"
)

// Database and blob store kinds
const (
	DatabaseMemory   = "memory"
	DatabasePostgres = "postgres"

	BlobStoreMemory = "memory"
	BlobStoreFS     = "fs"
	BlobStoreS3     = "s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:               "8080",
		Environment:        "development",
		DatabaseURL:        DatabaseMemory,
		DBQueryTimeout:     repopg.DefaultQueryTimeout,
		DBAutoMigrate:      true,
		BlobStore:          BlobStoreMemory,
		FSBaseDir:          "./data/blobs",
		S3Bucket:           memecatalog.DefaultBucket,
		S3Region:           "us-east-1",
		S3OperationTimeout: s3storage.DefaultOperationTimeout,
		S3SSEAlgorithm:     "AES256",
		MaxUploadBytes:     10 << 20,
	}
}

// ServerConfig represents configuration for the meme catalog server and CLI.
// The env-default tags mirror defaults().
type ServerConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"` // development, production, testing

	// Database configuration
	DatabaseURL    string        `env:"DATABASE_URL" env-default:"memory"` // "memory" or postgres://...
	DBSchema       string        `env:"DB_SCHEMA"`                         // empty keeps the default search_path
	DBQueryTimeout time.Duration `env:"DB_QUERY_TIMEOUT" env-default:"5s"`
	DBAutoMigrate  bool          `env:"DB_AUTO_MIGRATE" env-default:"true"`

	// Blob store configuration
	BlobStore                string        `env:"BLOB_STORE" env-default:"memory"` // "memory", "fs" or "s3"
	FSBaseDir                string        `env:"FS_BASE_DIR" env-default:"./data/blobs"`
	S3Bucket                 string        `env:"S3_BUCKET" env-default:"getmeme"`
	S3Region                 string        `env:"S3_REGION" env-default:"us-east-1"`
	S3Endpoint               string        `env:"S3_ENDPOINT"`
	S3AccessKeyID            string        `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey        string        `env:"S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle           bool          `env:"S3_USE_PATH_STYLE" env-default:"false"`
	S3CreateBucketIfNotExist bool          `env:"S3_CREATE_BUCKET_IF_NOT_EXIST" env-default:"false"`
	S3OperationTimeout       time.Duration `env:"S3_OPERATION_TIMEOUT" env-default:"30s"`
	S3EnableSSE              bool          `env:"S3_ENABLE_SSE" env-default:"false"`
	S3SSEAlgorithm           string        `env:"S3_SSE_ALGORITHM" env-default:"AES256"`
	S3SSEKMSKeyID            string        `env:"S3_SSE_KMS_KEY_ID"`

	// Server options
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" env-default:"10485760"`
	OTLPEndpoint   string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// DatabaseType derives the repository kind from DatabaseURL
func (c *ServerConfig) DatabaseType() string {
	u := strings.ToLower(c.DatabaseURL)
	if strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://") {
		return DatabasePostgres
	}
	if u == "" || u == DatabaseMemory {
		return DatabaseMemory
	}
	return ""
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType() == "" {
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgres://...')", c.DatabaseURL)
	}

	switch c.BlobStore {
	case BlobStoreMemory:
	case BlobStoreFS:
		if c.FSBaseDir == "" {
			return errors.New("fs base dir is required when using the fs blob store")
		}
	case BlobStoreS3:
		if c.S3Bucket == "" {
			return errors.New("s3 bucket is required when using the s3 blob store")
		}
	default:
		return fmt.Errorf("blob_store must be 'memory', 'fs' or 's3', got: %s", c.BlobStore)
	}

	if c.MaxUploadBytes <= 0 {
		return errors.New("max_upload_bytes must be positive")
	}
	if c.DBQueryTimeout < 0 || c.S3OperationTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}

	return nil
}

// Bucket returns the bucket the coordinator writes payloads to
func (c *ServerConfig) Bucket() string {
	if c.BlobStore == BlobStoreS3 {
		return c.S3Bucket
	}
	return memecatalog.DefaultBucket
}

// BuildService wires the repository and blob store into a coordinator. The
// returned close func releases the database pool.
func (c *ServerConfig) BuildService(ctx context.Context, extra ...memecatalog.Option) (memecatalog.Service, func(), error) {
	repo, closeRepo, err := c.BuildRepository(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build repository: %w", err)
	}

	store, err := c.BuildBlobStore(ctx)
	if err != nil {
		closeRepo()
		return nil, nil, fmt.Errorf("failed to build blob store: %w", err)
	}

	options := []memecatalog.Option{
		memecatalog.WithRepository(repo),
		memecatalog.WithBlobStore(c.Bucket(), store),
	}
	options = append(options, extra...)

	svc, err := memecatalog.New(options...)
	if err != nil {
		closeRepo()
		return nil, nil, err
	}
	return svc, closeRepo, nil
}

// BuildRepository creates a Repository based on the configuration
func (c *ServerConfig) BuildRepository(ctx context.Context) (memecatalog.Repository, func(), error) {
	switch c.DatabaseType() {
	case DatabaseMemory:
		return memory.New(), func() {}, nil
	case DatabasePostgres:
		pool, err := c.openPool(ctx)
		if err != nil {
			return nil, nil, err
		}
		if c.DBAutoMigrate {
			if err := repopg.CreateSchema(ctx, pool, c.DBSchema); err != nil {
				pool.Close()
				return nil, nil, err
			}
			if err := repopg.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, err
			}
			slog.Info("database schema ready", "schema", c.DBSchema)
		}
		return repopg.NewWithPool(pool, repopg.WithQueryTimeout(c.DBQueryTimeout)), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database url: %s", c.DatabaseURL)
	}
}

func (c *ServerConfig) openPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	// Optionally set search_path for the connection
	if schema := c.DBSchema; schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{schema}.Sanitize())
			return err
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}

// BuildBlobStore creates a BlobStore based on the configuration
func (c *ServerConfig) BuildBlobStore(ctx context.Context) (memecatalog.BlobStore, error) {
	switch c.BlobStore {
	case BlobStoreMemory:
		return memorystorage.New(), nil
	case BlobStoreFS:
		store, err := fsstorage.New(fsstorage.Config{BaseDir: c.FSBaseDir})
		if err != nil {
			return nil, err
		}
		return store, nil
	case BlobStoreS3:
		return s3storage.New(ctx, c.S3Config())
	default:
		return nil, fmt.Errorf("unsupported blob store: %s", c.BlobStore)
	}
}

// S3Config maps the flat settings onto the S3 backend config
func (c *ServerConfig) S3Config() s3storage.Config {
	return s3storage.Config{
		Region:                 c.S3Region,
		Bucket:                 c.S3Bucket,
		AccessKeyID:            c.S3AccessKeyID,
		SecretAccessKey:        c.S3SecretAccessKey,
		Endpoint:               c.S3Endpoint,
		UsePathStyle:           c.S3UsePathStyle,
		OperationTimeout:       c.S3OperationTimeout,
		EnableSSE:              c.S3EnableSSE,
		SSEAlgorithm:           c.S3SSEAlgorithm,
		SSEKMSKeyID:            c.S3SSEKMSKeyID,
		CreateBucketIfNotExist: c.S3CreateBucketIfNotExist,
	}
}
