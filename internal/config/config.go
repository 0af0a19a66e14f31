package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	SourceXLSX     = "xlsx"
	SourcePostgres = "postgres"
)

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"db_name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type RedisConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Addr        string `yaml:"addr"`
	Password    string `yaml:"password"`
	DB          int    `yaml:"db"`
	MaxRetries  int    `yaml:"max_retries"`
	DialTimeout int    `yaml:"dial_timeout"`
	Timeout     int    `yaml:"timeout"`
	Prefix      string `yaml:"prefix"`
}

type S3Config struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key"`
	SecretAccessKey string `yaml:"secret_key"`
	Bucket          string `yaml:"bucket"`
	UseSSL          bool   `yaml:"use_ssl"`
	Region          string `yaml:"region"`
	Prefix          string `yaml:"prefix"`
}

type DataConfig struct {
	// Source is "xlsx" or "postgres".
	Source string `yaml:"source"`
	File   string `yaml:"file"`
	Sheet  string `yaml:"sheet"`
	// SnapshotTTL is in seconds; 0 disables the redis snapshot.
	SnapshotTTL int `yaml:"snapshot_ttl"`
}

type ReportConfig struct {
	LogoPath     string `yaml:"logo_path"`
	LogoRequired bool   `yaml:"logo_required"`
}

type AppConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	Data   DataConfig   `yaml:"data"`
	Report ReportConfig `yaml:"report"`

	ExportDir         string   `yaml:"export_dir"`
	FilesPublicPrefix string   `yaml:"files_public_prefix"`
	ExternalURL       string   `yaml:"external_url"`
	FileRetention     int      `yaml:"file_retention_minutes"`
	AllowedOrigins    []string `yaml:"allowed_origins"`

	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	S3       S3Config       `yaml:"s3"`
}

func (c AppConfig) SnapshotTTL() time.Duration {
	return time.Duration(c.Data.SnapshotTTL) * time.Second
}

func (c AppConfig) Retention() time.Duration {
	return time.Duration(c.FileRetention) * time.Minute
}

func Default() AppConfig {
	return AppConfig{
		Port:     "8010",
		LogLevel: "info",
		Data: DataConfig{
			Source:      SourceXLSX,
			File:        "BASE_LIQUIDACIONES.xlsx",
			SnapshotTTL: 3600,
		},
		Report: ReportConfig{
			LogoPath: "logo.png",
		},
		ExportDir:         "./exports",
		FilesPublicPrefix: "/files",
		FileRetention:     30,
		Postgres: PostgresConfig{
			Host:    "127.0.0.1",
			Port:    5432,
			User:    "root",
			DBName:  "liquidaciones",
			SSLMode: "disable",
		},
		Redis: RedisConfig{
			Addr:        "127.0.0.1:6379",
			MaxRetries:  5,
			DialTimeout: 10,
			Timeout:     5,
			Prefix:      "liquidation_export_",
		},
		S3: S3Config{
			Region: "us-east-1",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty or missing), then environment variables.
func Load(path string) (AppConfig, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func (c AppConfig) Validate() error {
	switch c.Data.Source {
	case SourceXLSX:
		if c.Data.File == "" {
			return errors.New("data.file is required for the xlsx source")
		}
	case SourcePostgres:
	default:
		return fmt.Errorf("unknown data source %q", c.Data.Source)
	}
	if c.Data.SnapshotTTL < 0 {
		return errors.New("data.snapshot_ttl must not be negative")
	}
	return nil
}

type env struct {
	err error
}

func (e *env) Str(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (e *env) Int(key string, dst *int) {
	v := os.Getenv(key)
	if v == "" || e.err != nil {
		return
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		e.err = fmt.Errorf("invalid int value %q for %s: %w", v, key, err)
		return
	}
	*dst = i
}

func (e *env) Bool(key string, dst *bool) {
	v := os.Getenv(key)
	if v == "" || e.err != nil {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.err = fmt.Errorf("invalid bool value %q for %s: %w", v, key, err)
		return
	}
	*dst = b
}

func (e *env) List(key string, dst *[]string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}

func (c *AppConfig) applyEnvOverrides() error {
	e := &env{}

	e.Str("APP_PORT", &c.Port)
	e.Str("LOG_LEVEL", &c.LogLevel)

	e.Str("DATA_SOURCE", &c.Data.Source)
	e.Str("DATA_FILE", &c.Data.File)
	e.Str("DATA_SHEET", &c.Data.Sheet)
	e.Int("SNAPSHOT_TTL", &c.Data.SnapshotTTL)

	e.Str("LOGO_PATH", &c.Report.LogoPath)
	e.Bool("LOGO_REQUIRED", &c.Report.LogoRequired)

	e.Str("EXPORT_DIR", &c.ExportDir)
	e.Str("FILES_PUBLIC_PREFIX", &c.FilesPublicPrefix)
	e.Str("EXTERNAL_URL", &c.ExternalURL)
	e.Int("FILE_RETENTION_MINUTES", &c.FileRetention)
	e.List("ALLOWED_ORIGINS", &c.AllowedOrigins)

	e.Str("PG_HOST", &c.Postgres.Host)
	e.Int("PG_PORT", &c.Postgres.Port)
	e.Str("PG_USER", &c.Postgres.User)
	e.Str("PG_PASSWORD", &c.Postgres.Password)
	e.Str("PG_DB", &c.Postgres.DBName)
	e.Str("PG_SSLMODE", &c.Postgres.SSLMode)

	e.Bool("REDIS_ENABLED", &c.Redis.Enabled)
	e.Str("REDIS_ADDR", &c.Redis.Addr)
	e.Str("REDIS_PASSWORD", &c.Redis.Password)
	e.Int("REDIS_DB", &c.Redis.DB)
	e.Int("REDIS_MAX_RETRIES", &c.Redis.MaxRetries)
	e.Int("REDIS_DIAL_TIMEOUT", &c.Redis.DialTimeout)
	e.Int("REDIS_TIMEOUT", &c.Redis.Timeout)
	e.Str("REDIS_PREFIX", &c.Redis.Prefix)

	e.Str("S3_ENDPOINT", &c.S3.Endpoint)
	e.Str("S3_ACCESS_KEY", &c.S3.AccessKeyID)
	e.Str("S3_SECRET_KEY", &c.S3.SecretAccessKey)
	e.Str("S3_BUCKET", &c.S3.Bucket)
	e.Str("S3_REGION", &c.S3.Region)
	e.Bool("S3_USE_SSL", &c.S3.UseSSL)
	e.Str("S3_PREFIX", &c.S3.Prefix)

	return e.err
}
