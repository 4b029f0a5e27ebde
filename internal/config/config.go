package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix is stripped from environment variables before they are mapped to config keys.
	EnvPrefix = "LOGTRACKR_"
	// ConfigPathEnvVar points at an optional YAML config file.
	ConfigPathEnvVar = "LOGTRACKR_CONFIG"

	defaultJWTSecret = "change-me-in-production"
)

// ErrInsecureSecret is returned when production runs with the built-in JWT secret.
var ErrInsecureSecret = errors.New("jwt_secret must be set in production")

// Config captures runtime configuration sourced from defaults, an optional
// YAML file and environment variables (in increasing priority).
type Config struct {
	Environment  string        `koanf:"environment"`
	HTTPPort     string        `koanf:"http_port"`
	DatabasePath string        `koanf:"database_path"`
	LogDir       string        `koanf:"log_dir"`
	Debug        bool          `koanf:"debug"`
	JWTSecret    string        `koanf:"jwt_secret"`
	TokenTTL     time.Duration `koanf:"token_ttl"`
	Upload       UploadConfig  `koanf:"upload"`
	Notify       NotifyConfig  `koanf:"notify"`
}

// UploadConfig bounds CSV ingestion.
type UploadConfig struct {
	MaxBytes      int64 `koanf:"max_bytes"`
	ErrorLimit    int   `koanf:"error_limit"`
	RatePerMinute int   `koanf:"rate_per_minute"`
}

// NotifyConfig lists shoutrrr URLs alerted when an upload carries critical events.
type NotifyConfig struct {
	URLs              []string `koanf:"urls"`
	CriticalThreshold int      `koanf:"critical_threshold"`
}

// IsProduction reports whether the environment is a production one.
func (c Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

func defaultConfig() Config {
	return Config{
		Environment:  "development",
		HTTPPort:     "8080",
		DatabasePath: filepath.Join("data", "logtrackr.db"),
		LogDir:       filepath.Join("data", "logs"),
		JWTSecret:    defaultJWTSecret,
		TokenTTL:     24 * time.Hour,
		Upload: UploadConfig{
			MaxBytes:      10 << 20,
			ErrorLimit:    10,
			RatePerMinute: 30,
		},
		Notify: NotifyConfig{
			CriticalThreshold: 1,
		},
	}
}

// Load layers defaults, the optional config file and LOGTRACKR_* env vars,
// then makes sure the database directory exists.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	if err := splitListKeys(k); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Notify.URLs = compact(cfg.Notify.URLs)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

// Validate rejects configurations the server cannot safely run with.
func (c Config) Validate() error {
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		return ErrInsecureSecret
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.max_bytes must be positive, got %d", c.Upload.MaxBytes)
	}
	if c.Upload.ErrorLimit <= 0 {
		return fmt.Errorf("upload.error_limit must be positive, got %d", c.Upload.ErrorLimit)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token_ttl must be positive, got %s", c.TokenTTL)
	}
	return nil
}

// envKey maps LOGTRACKR_UPLOAD_MAX_BYTES to upload.max_bytes and
// LOGTRACKR_HTTP_PORT to http_port.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range []string{"upload_", "notify_"} {
		if strings.HasPrefix(key, section) {
			return strings.TrimSuffix(section, "_") + "." + strings.TrimPrefix(key, section)
		}
	}
	return key
}

// listKeys are config paths that arrive from env vars as comma-separated strings.
var listKeys = []string{"notify.urls"}

func splitListKeys(k *koanf.Koanf) error {
	for _, path := range listKeys {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		if err := k.Set(path, compact(strings.Split(raw, ","))); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
