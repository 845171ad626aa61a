package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "TRAVELPLANNER_"

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	Avatars   AvatarsConfig   `yaml:"avatars"`
	AWS       AWSConfig       `yaml:"aws"`
	JWT       JWTConfig       `yaml:"jwt"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	ImagesDir       string        `yaml:"images_dir"`
	CORSOrigin      string        `yaml:"cors_origin"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig selects the document backend for the collections
type StorageConfig struct {
	Driver   string `yaml:"driver"` // file, bolt or postgres
	DataDir  string `yaml:"data_dir"`
	BoltPath string `yaml:"bolt_path"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// CacheConfig holds TTLs of the read caches
type CacheConfig struct {
	ToursTTL time.Duration `yaml:"tours_ttl"`
	TipsTTL  time.Duration `yaml:"tips_ttl"`
}

// AvatarsConfig selects where avatar images are kept
type AvatarsConfig struct {
	Driver  string `yaml:"driver"` // local or s3
	Dir     string `yaml:"dir"`
	Prefix  string `yaml:"prefix"`
	MaxSize int64  `yaml:"max_size"`
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region    string `yaml:"region"`
	S3Bucket  string `yaml:"s3_bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"` // custom endpoint for S3-compatible providers
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// RateLimitConfig limits requests to the auth endpoints
type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute"`
	Burst     int `yaml:"burst"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// Default returns the configuration used when a value is not set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ImagesDir:       "public/images",
			CORSOrigin:      "*",
			ShutdownTimeout: 15 * time.Second,
		},
		Storage: StorageConfig{
			Driver:   "file",
			DataDir:  "data",
			BoltPath: "data/travelplanner.db",
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		Cache: CacheConfig{
			ToursTTL: 5 * time.Minute,
			TipsTTL:  24 * time.Hour,
		},
		Avatars: AvatarsConfig{
			Driver:  "local",
			Dir:     "uploads/avatars",
			Prefix:  "avatars/",
			MaxSize: 5 << 20,
		},
		JWT: JWTConfig{
			TokenTTL: 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			PerMinute: 30,
			Burst:     10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from a YAML file over the defaults, then applies
// environment overrides. A missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// .env is optional
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks drivers and durations
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "file", "bolt", "postgres":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Avatars.Driver {
	case "local":
	case "s3":
		if c.AWS.S3Bucket == "" {
			return errors.New("aws.s3_bucket is required for the s3 avatar driver")
		}
	default:
		return fmt.Errorf("unknown avatar driver %q", c.Avatars.Driver)
	}

	if c.Cache.ToursTTL <= 0 || c.Cache.TipsTTL <= 0 {
		return errors.New("cache TTLs must be positive")
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.JWT.TokenTTL <= 0 {
		return errors.New("jwt.token_ttl must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Avatars.MaxSize <= 0 {
		return errors.New("avatars.max_size must be positive")
	}
	return nil
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CollectionPath returns the file backing a collection for the file driver
func (c *StorageConfig) CollectionPath(name string) string {
	return filepath.Join(c.DataDir, name+".json")
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func (c *Config) applyEnv() error {
	stringVars := map[string]*string{
		"HOST":           &c.Server.Host,
		"IMAGES_DIR":     &c.Server.ImagesDir,
		"CORS_ORIGIN":    &c.Server.CORSOrigin,
		"STORAGE_DRIVER": &c.Storage.Driver,
		"DATA_DIR":       &c.Storage.DataDir,
		"BOLT_PATH":      &c.Storage.BoltPath,
		"DB_HOST":        &c.Database.Host,
		"DB_USER":        &c.Database.User,
		"DB_PASSWORD":    &c.Database.Password,
		"DB_NAME":        &c.Database.DBName,
		"AVATARS_DRIVER": &c.Avatars.Driver,
		"AVATARS_DIR":    &c.Avatars.Dir,
		"AWS_REGION":     &c.AWS.Region,
		"AWS_S3_BUCKET":  &c.AWS.S3Bucket,
		"AWS_ACCESS_KEY": &c.AWS.AccessKey,
		"AWS_SECRET_KEY": &c.AWS.SecretKey,
		"AWS_ENDPOINT":   &c.AWS.Endpoint,
		"JWT_SECRET":     &c.JWT.Secret,
		"LOG_LEVEL":      &c.Log.Level,
		"LOG_FORMAT":     &c.Log.Format,
	}
	for key, target := range stringVars {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*target = v
		}
	}

	ints := map[string]*int{
		"PORT":    &c.Server.Port,
		"DB_PORT": &c.Database.Port,
	}
	for key, target := range ints {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
			}
			*target = n
		}
	}

	durations := map[string]*time.Duration{
		"TOURS_TTL": &c.Cache.ToursTTL,
		"TIPS_TTL":  &c.Cache.TipsTTL,
		"TOKEN_TTL": &c.JWT.TokenTTL,
	}
	for key, target := range durations {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
			}
			*target = d
		}
	}
	return nil
}
