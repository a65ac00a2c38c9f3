package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"vidshare/pkg/validation"

	"gopkg.in/yaml.v2"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"

	defaultJWTSecret    = "change-me-in-production"
	defaultSeedPassword = "password123"

	// S3 refuses presigned URLs valid for longer than a week.
	maxPresignExpiry = 7 * 24 * time.Hour
)

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		Environment     string        `yaml:"environment"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		AllowedOrigins  []string      `yaml:"allowed_origins"`
	} `yaml:"server"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled    bool    `yaml:"enabled"`
		JaegerURL  string  `yaml:"jaeger_url"`
		SampleRate float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Storage struct {
		Driver          string        `yaml:"driver"`
		ConnectAttempts int           `yaml:"connect_attempts"`
		ConnectBackoff  time.Duration `yaml:"connect_backoff"`
	} `yaml:"storage"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`

	Postgres struct {
		DSN             string        `yaml:"dsn"`
		MaxConnections  int32         `yaml:"max_connections"`
		MinConnections  int32         `yaml:"min_connections"`
		MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
		MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	} `yaml:"postgres"`

	Auth struct {
		JWTSecret    string        `yaml:"jwt_secret"`
		TokenTTL     time.Duration `yaml:"token_ttl"`
		CookieName   string        `yaml:"cookie_name"`
		CookieDomain string        `yaml:"cookie_domain"`
	} `yaml:"auth"`

	S3 struct {
		Bucket          string        `yaml:"bucket"`
		Region          string        `yaml:"region"`
		CDNURL          string        `yaml:"cdn_url"`
		Endpoint        string        `yaml:"endpoint"`
		AccessKeyID     string        `yaml:"access_key_id"`
		SecretAccessKey string        `yaml:"secret_access_key"`
		PresignExpiry   time.Duration `yaml:"presign_expiry"`
	} `yaml:"s3"`

	Seed struct {
		Enabled       bool   `yaml:"enabled"`
		AdminEmail    string `yaml:"admin_email"`
		AdminPassword string `yaml:"admin_password"`
		SampleVideos  int    `yaml:"sample_videos"`
	} `yaml:"seed"`
}

// IsProduction reports whether cookies must be marked Secure.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// Server
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.Environment != EnvDevelopment && c.Server.Environment != EnvProduction {
		return fmt.Errorf("server.environment must be %q or %q", EnvDevelopment, EnvProduction)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	// Tracing
	if c.Tracing.Enabled {
		if c.Tracing.JaegerURL == "" {
			return fmt.Errorf("tracing.jaeger_url must not be empty when tracing.enabled=true")
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be within [0, 1]")
		}
	}

	// Logging
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	// Storage
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when storage.driver=redis")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when storage.driver=redis")
		}
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn must not be empty when storage.driver=postgres")
		}
	default:
		return fmt.Errorf("storage.driver must be one of memory, redis, postgres (got %q)", c.Storage.Driver)
	}
	if c.Storage.ConnectAttempts < 1 {
		return fmt.Errorf("storage.connect_attempts must be >= 1")
	}
	if c.Storage.ConnectBackoff < 0 {
		return fmt.Errorf("storage.connect_backoff must be >= 0")
	}

	// Auth
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret must not be empty")
	}
	if c.IsProduction() && c.Auth.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("auth.jwt_secret must be changed in production")
	}
	if c.Auth.TokenTTL < 0 {
		return fmt.Errorf("auth.token_ttl must be >= 0")
	}
	if c.Auth.CookieName == "" {
		return fmt.Errorf("auth.cookie_name must not be empty")
	}

	// S3 bucket and credentials are checked when the presigner is built so a
	// missing bucket only disables uploads.
	if c.S3.PresignExpiry <= 0 || c.S3.PresignExpiry > maxPresignExpiry {
		return fmt.Errorf("s3.presign_expiry must be within (0, %s]", maxPresignExpiry)
	}
	if c.S3.CDNURL != "" {
		if err := validation.ValidateURL(c.S3.CDNURL); err != nil {
			return fmt.Errorf("s3.cdn_url: %w", err)
		}
	}
	if c.S3.Endpoint != "" {
		if err := validation.ValidateURL(c.S3.Endpoint); err != nil {
			return fmt.Errorf("s3.endpoint: %w", err)
		}
	}

	// Seed
	if c.Seed.Enabled {
		if err := validation.ValidateEmail(c.Seed.AdminEmail); err != nil {
			return fmt.Errorf("seed.admin_email: %w", err)
		}
		if err := validation.ValidatePassword(c.Seed.AdminPassword); err != nil {
			return fmt.Errorf("seed.admin_password: %w", err)
		}
		if c.IsProduction() && c.Seed.AdminPassword == defaultSeedPassword {
			return fmt.Errorf("seed.admin_password must be changed in production")
		}
		if c.Seed.SampleVideos < 0 {
			return fmt.Errorf("seed.sample_videos must be >= 0")
		}
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case os.IsNotExist(err):
			// fall back to defaults
		case err != nil:
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":3000"
	cfg.Server.Environment = EnvDevelopment
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second
	cfg.Server.AllowedOrigins = []string{"http://localhost:3001"}

	cfg.Monitoring.PrometheusEnabled = true

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.SampleRate = 1.0

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Storage.Driver = DriverMemory
	cfg.Storage.ConnectAttempts = 5
	cfg.Storage.ConnectBackoff = 500 * time.Millisecond

	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10

	cfg.Postgres.MaxConnections = 10
	cfg.Postgres.MinConnections = 1
	cfg.Postgres.MaxConnLifetime = time.Hour
	cfg.Postgres.MaxConnIdleTime = 30 * time.Minute

	cfg.Auth.JWTSecret = defaultJWTSecret
	cfg.Auth.TokenTTL = 24 * time.Hour
	cfg.Auth.CookieName = "auth_token"

	cfg.S3.Region = "ap-northeast-1"
	cfg.S3.PresignExpiry = 5 * time.Minute

	cfg.Seed.Enabled = true
	cfg.Seed.AdminEmail = "admin@example.com"
	cfg.Seed.AdminPassword = defaultSeedPassword
	cfg.Seed.SampleVideos = 5

	return cfg
}

// applyEnvOverrides reads the VIDSHARE_* variables plus the AWS and cookie
// variables the frontend deployment already sets.
func (c *Config) applyEnvOverrides(getenv func(string) string) {
	set := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v := strings.TrimSpace(getenv(key)); v != "" {
				*dst = v
				return
			}
		}
	}

	set(&c.Server.Address, "VIDSHARE_SERVER_ADDRESS")
	set(&c.Server.Environment, "VIDSHARE_ENV")
	set(&c.Logging.Level, "VIDSHARE_LOG_LEVEL")
	set(&c.Storage.Driver, "VIDSHARE_STORAGE_DRIVER")
	set(&c.Redis.Address, "VIDSHARE_REDIS_ADDRESS")
	set(&c.Postgres.DSN, "VIDSHARE_DATABASE_URL", "DATABASE_URL")
	set(&c.Auth.JWTSecret, "VIDSHARE_JWT_SECRET", "SECRET_KEY_BASE")
	set(&c.Auth.CookieDomain, "COOKIE_DOMAIN")
	set(&c.S3.Bucket, "AWS_S3_BUCKET")
	set(&c.S3.Region, "AWS_REGION")
	set(&c.S3.CDNURL, "AWS_CLOUDFRONT_URL")
	set(&c.S3.AccessKeyID, "AWS_ACCESS_KEY_ID")
	set(&c.S3.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")

	if origins := getenv("VIDSHARE_ALLOWED_ORIGINS"); origins != "" {
		var parsed []string
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				parsed = append(parsed, o)
			}
		}
		c.Server.AllowedOrigins = parsed
	}
}
