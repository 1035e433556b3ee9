package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings. They are applied after
// the file is read and never written back.
const (
	EnvServerAddress = "PIGEON_SERVER_ADDRESS"
	EnvLogLevel      = "PIGEON_LOG_LEVEL"
	EnvDBPath        = "PIGEON_DB_PATH"
	EnvAssetsBaseURL = "PIGEON_ASSETS_BASE_URL"
)

// Config holds the application configuration.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	DB      DBConfig      `yaml:"db"`
	Server  ServerConfig  `yaml:"server"`
	Request RequestConfig `yaml:"request"`
	Sim     SimConfig     `yaml:"sim"`
	Assets  AssetsConfig  `yaml:"assets"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
	Runs     LogSettings `yaml:"runs"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// RequestConfig holds HTTP request settings.
type RequestConfig struct {
	Retries int           `yaml:"retries"`
	Timeout Duration      `yaml:"timeout"`
	Backoff BackoffConfig `yaml:"backoff"`
}

// BackoffConfig holds exponential backoff settings.
type BackoffConfig struct {
	BaseDelay Duration `yaml:"base_delay"`
	MaxDelay  Duration `yaml:"max_delay"`
}

// SimConfig holds flight simulation settings.
type SimConfig struct {
	TickInterval    Duration `yaml:"tick_interval"`
	MaxTicks        int      `yaml:"max_ticks"` // 0 = unlimited
	StartsPerSecond float64  `yaml:"starts_per_second"`
	StartsBurst     int      `yaml:"starts_burst"`
	UpdateBuffer    int      `yaml:"update_buffer"`
}

// AssetsConfig holds the static asset cache settings.
type AssetsConfig struct {
	CacheName string   `yaml:"cache_name"`
	BaseURL   string   `yaml:"base_url"`
	List      []string `yaml:"list"`
	Precache  bool     `yaml:"precache"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Server: LogSettings{
				Path:  "logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "logs/requests.log",
				Level: "INFO",
			},
			Runs: LogSettings{
				Path: "logs/runs.log",
			},
		},
		DB: DBConfig{
			Path: "data/pigeonflight.db",
		},
		Server: ServerConfig{
			Address: "localhost:1925",
		},
		Request: RequestConfig{
			Retries: 3,
			Timeout: Duration(30 * time.Second),
			Backoff: BackoffConfig{
				BaseDelay: Duration(1 * time.Second),
				MaxDelay:  Duration(30 * time.Second),
			},
		},
		Sim: SimConfig{
			TickInterval:    Duration(50 * time.Millisecond),
			MaxTicks:        100000,
			StartsPerSecond: 2,
			StartsBurst:     4,
			UpdateBuffer:    256,
		},
		Assets: AssetsConfig{
			CacheName: "pigeon-cache-v1",
			BaseURL:   "http://localhost:8080",
			List:      []string{"/", "/index.html", "/style.css", "/app.js", "/physics.worker.js"},
			Precache:  false,
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// A .env file next to the config is loaded into the process environment
// before overrides are applied.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := loadDotEnv(filepath.Join(dir, ".env")); err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	applyEnv(cfg)
	expandPaths(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvServerAddress); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Server.Level = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DB.Path = v
	}
	if v := os.Getenv(EnvAssetsBaseURL); v != "" {
		cfg.Assets.BaseURL = v
	}
}

var winEnvVar = regexp.MustCompile(`%([A-Za-z0-9_]+)%`)

// expandPath resolves $VAR, ${VAR} and %VAR% references.
func expandPath(p string) string {
	p = winEnvVar.ReplaceAllStringFunc(p, func(m string) string {
		return os.Getenv(strings.Trim(m, "%"))
	})
	return os.ExpandEnv(p)
}

func expandPaths(cfg *Config) {
	cfg.DB.Path = expandPath(cfg.DB.Path)
	cfg.Log.Server.Path = expandPath(cfg.Log.Server.Path)
	cfg.Log.Requests.Path = expandPath(cfg.Log.Requests.Path)
	cfg.Log.Runs.Path = expandPath(cfg.Log.Runs.Path)
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.Sim.TickInterval < 0 {
		return fmt.Errorf("sim.tick_interval must not be negative: %s", time.Duration(c.Sim.TickInterval))
	}
	if c.Sim.MaxTicks < 0 {
		return fmt.Errorf("sim.max_ticks must not be negative: %d", c.Sim.MaxTicks)
	}
	if c.Sim.StartsPerSecond <= 0 {
		return fmt.Errorf("sim.starts_per_second must be positive: %v", c.Sim.StartsPerSecond)
	}
	if c.Assets.CacheName == "" {
		return errors.New("assets.cache_name must not be empty")
	}
	return nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# PigeonFlight Configuration
# -------------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
# Environment overrides: PIGEON_SERVER_ADDRESS, PIGEON_LOG_LEVEL, PIGEON_DB_PATH, PIGEON_ASSETS_BASE_URL

`)
	data = append(header, data...)

	reLevel := regexp.MustCompile(`(?m)^(\s+)level:`)
	data = reLevel.ReplaceAll(data, []byte("${1}# Options: DEBUG, INFO, WARN, ERROR\n${1}level:"))

	reMax := regexp.MustCompile(`(?m)^(\s+)max_ticks:`)
	data = reMax.ReplaceAll(data, []byte("${1}# 0 disables the limit\n${1}max_ticks:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
