// Package config loads the relay server configuration from the environment.
package config

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/tendant/image-upload-relay/pkg/relay"
	"github.com/tendant/image-upload-relay/pkg/relay/memstore"
	"github.com/tendant/image-upload-relay/pkg/relay/objectstore"
	"github.com/tendant/image-upload-relay/pkg/relay/presigned"
	"github.com/tendant/image-upload-relay/pkg/relay/signer"
)

// Signer modes
const (
	SignerModeRemote = "remote"
	SignerModeS3     = "s3"
	SignerModeLocal  = "local"
)

// ServiceName tags every log line
const ServiceName = "image-upload-relay"

type Config struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"` // development, production, testing

	// Signer configuration
	SignerMode         string        `env:"SIGNER_MODE" env-default:"remote"` // "remote", "s3", "local"
	SignerURL          string        `env:"SIGNER_URL"`
	SignerTimeout      time.Duration `env:"SIGNER_TIMEOUT" env-default:"0s"`
	PresignExpiration  time.Duration `env:"PRESIGN_EXPIRATION" env-default:"15m"`
	PublicBaseURL      string        `env:"PUBLIC_BASE_URL" env-default:"http://localhost:8080"`
	LocalSigningSecret string        `env:"LOCAL_SIGNING_SECRET"`

	// Upload options
	UploadTimeout  time.Duration `env:"UPLOAD_TIMEOUT" env-default:"0s"`
	MaxUploadBytes int64         `env:"MAX_UPLOAD_BYTES" env-default:"0"`
	RequireImage   bool          `env:"REQUIRE_IMAGE" env-default:"false"`

	// Server options
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" env-default:"0s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`

	S3  S3Config
	Log LogConfig
}

type S3Config struct {
	Bucket          string `env:"S3_BUCKET"`
	Region          string `env:"S3_REGION" env-default:"us-east-1"`
	Endpoint        string `env:"S3_ENDPOINT"`
	UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" env-default:"false"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	KeyPrefix       string `env:"S3_KEY_PREFIX"`
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" env-default:"info"` // debug, info, warn, error
	JSON  bool   `env:"LOG_JSON" env-default:"false"`
}

// Load reads configuration from the environment, or from the file named by CONFIG_FILE
// with environment variables taking precedence, and validates it.
func Load() (*Config, error) {
	var cfg Config

	if err := read(os.Getenv("CONFIG_FILE"), &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func read(path string, cfg *Config) error {
	switch {
	case path == "":
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
	case strings.EqualFold(filepath.Ext(path), ".env"):
		// cleanenv exports every .env entry with os.Setenv, which would override the
		// environment and outlive Load
		if err := readDotEnv(path, cfg); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	default:
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	return nil
}

// readDotEnv fills cfg from the environment, falling back to the entries of a .env file.
// Entries are exported only while cleanenv reads them.
func readDotEnv(path string, cfg *Config) error {
	entries, err := godotenv.Read(path)
	if err != nil {
		return err
	}

	var exported []string
	defer func() {
		for _, key := range exported {
			os.Unsetenv(key)
		}
	}()

	for key, value := range entries {
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
		exported = append(exported, key)
	}

	return cleanenv.ReadEnv(cfg)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.SignerMode {
	case SignerModeRemote:
		if c.SignerURL == "" {
			return errors.New("signer_url is required when signer_mode is 'remote'")
		}
		u, err := url.Parse(c.SignerURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("signer_url %q must be an absolute URL", c.SignerURL)
		}
	case SignerModeS3:
		if c.S3.Bucket == "" {
			return errors.New("s3_bucket is required when signer_mode is 's3'")
		}
	case SignerModeLocal:
		if c.PublicBaseURL == "" {
			return errors.New("public_base_url is required when signer_mode is 'local'")
		}
	default:
		return fmt.Errorf("signer_mode must be 'remote', 's3' or 'local', got %q", c.SignerMode)
	}

	if c.MaxUploadBytes < 0 {
		return errors.New("max_upload_bytes must not be negative")
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}

	return nil
}

// SlogLevel parses the configured log level
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q: %w", l.Level, err)
	}
	return level, nil
}

// NewLogger creates the request logger; its slog.Logger is meant to become the default
func (c *Config) NewLogger() *httplog.Logger {
	level, _ := c.Log.SlogLevel()
	return httplog.NewLogger(ServiceName, httplog.Options{
		LogLevel: level,
		JSON:     c.Log.JSON,
		Concise:  !c.Log.JSON,
		Tags: map[string]string{
			"env": c.Environment,
		},
	})
}

// BuildService creates the relay service from the configuration.
// The returned handlers are non-nil only in local signer mode and must be mounted on the router.
// A nil logger falls back to slog.Default.
func (c *Config) BuildService(ctx context.Context, logger *slog.Logger) (relay.Service, *presigned.Handlers, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		sign  relay.Signer
		local *presigned.Handlers
	)

	switch c.SignerMode {
	case SignerModeRemote:
		sign = signer.NewHTTPSigner(c.SignerURL,
			signer.WithHTTPClient(&http.Client{Timeout: c.SignerTimeout}))
	case SignerModeS3:
		s3Signer, err := signer.NewS3Signer(ctx, signer.S3Config{
			Region:          c.S3.Region,
			Bucket:          c.S3.Bucket,
			AccessKeyID:     c.S3.AccessKeyID,
			SecretAccessKey: c.S3.SecretAccessKey,
			Endpoint:        c.S3.Endpoint,
			UsePathStyle:    c.S3.UsePathStyle,
			KeyPrefix:       c.S3.KeyPrefix,
			Expiration:      c.PresignExpiration,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create S3 signer: %w", err)
		}
		sign = s3Signer
	case SignerModeLocal:
		secret := c.LocalSigningSecret
		if secret == "" {
			generated, err := randomSecret()
			if err != nil {
				return nil, nil, err
			}
			secret = generated
			logger.Warn("LOCAL_SIGNING_SECRET not set, using a random secret for this process")
		}
		localSigner := presigned.New(c.PublicBaseURL,
			presigned.WithSecretKey(secret),
			presigned.WithExpiration(c.PresignExpiration))
		local = presigned.NewHandlers(localSigner, memstore.New())
		sign = localSigner
	default:
		return nil, nil, fmt.Errorf("unknown signer mode %q", c.SignerMode)
	}

	svc, err := relay.New(
		relay.WithSigner(sign),
		relay.WithObjectStore(objectstore.NewClient(
			objectstore.WithHTTPClient(&http.Client{Timeout: c.UploadTimeout}),
			objectstore.WithProgress(uploadProgress(logger)))),
		relay.WithRequireImage(c.RequireImage),
		relay.WithMaxUploadBytes(c.MaxUploadBytes),
		relay.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, err
	}

	return svc, local, nil
}

func uploadProgress(logger *slog.Logger) objectstore.ProgressFunc {
	return func(bytesUploaded, size int64) {
		logger.Debug("Upload progress", "bytes_uploaded", bytesUploaded, "size", size)
	}
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate signing secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
