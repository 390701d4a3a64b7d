package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// WithEnv reads every field from the environment, falling back to the
// env-default tags. Apply it before programmatic options it should not override.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		if err := cleanenv.ReadEnv(c); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		return nil
	}
}

// Usage returns a description of the supported environment variables
func Usage() string {
	var cfg ServerConfig
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return err.Error()
	}
	return text
}

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabaseURL selects the repository: "memory" or a postgres URL
func WithDatabaseURL(url string) Option {
	return func(c *ServerConfig) error {
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseSchema sets the database schema (for Postgres)
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithMemoryBlobStore selects the in-memory blob store
func WithMemoryBlobStore() Option {
	return func(c *ServerConfig) error {
		c.BlobStore = BlobStoreMemory
		return nil
	}
}

// WithFSBlobStore selects the filesystem blob store rooted at baseDir
func WithFSBlobStore(baseDir string) Option {
	return func(c *ServerConfig) error {
		if baseDir == "" {
			return fmt.Errorf("base dir cannot be empty")
		}
		c.BlobStore = BlobStoreFS
		c.FSBaseDir = baseDir
		return nil
	}
}

// WithS3BlobStore selects the S3 blob store for the given bucket
func WithS3BlobStore(bucket, region, endpoint string) Option {
	return func(c *ServerConfig) error {
		if bucket == "" {
			return fmt.Errorf("bucket cannot be empty")
		}
		c.BlobStore = BlobStoreS3
		c.S3Bucket = bucket
		if region != "" {
			c.S3Region = region
		}
		c.S3Endpoint = endpoint
		if endpoint != "" {
			c.S3UsePathStyle = true
		}
		return nil
	}
}

// WithMaxUploadBytes caps request bodies
func WithMaxUploadBytes(n int64) Option {
	return func(c *ServerConfig) error {
		if n <= 0 {
			return fmt.Errorf("max upload bytes must be positive, got: %d", n)
		}
		c.MaxUploadBytes = n
		return nil
	}
}
