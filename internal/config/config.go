// Package config loads service settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// maxFileSize bounds the config file read.
const maxFileSize = 1 << 20

var (
	ErrInvalidPort    = errors.New("config: server.port must be between 1 and 65535")
	ErrInvalidBackend = errors.New("config: sessions.backend must be memory, postgres or redis")
	ErrInvalidEngine  = errors.New("config: render.engine must be chromedp or rod")
	ErrInvalidRender  = errors.New("config: render.dpi, render.scale and render.timeout must be positive")
	ErrMissingRedis   = errors.New("config: redis.addr is required for the redis session backend")
	ErrFileTooLarge   = errors.New("config: file exceeds maximum size")
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	Sessions Sessions `yaml:"sessions"`
	Redis    Redis    `yaml:"redis"`
	Render   Render   `yaml:"render"`
	Log      Log      `yaml:"log"`
}

type Server struct {
	Port      int `yaml:"port"`
	BodyLimit int `yaml:"bodyLimit"`
}

type Database struct {
	URL     string `yaml:"url"`
	Migrate bool   `yaml:"migrate"`
}

type Sessions struct {
	Backend string        `yaml:"backend"`
	TTL     time.Duration `yaml:"ttl"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Render struct {
	Engine     string        `yaml:"engine"`
	ChromePath string        `yaml:"chromePath"`
	WSURL      string        `yaml:"wsURL"`
	Timeout    time.Duration `yaml:"timeout"`
	DPI        int           `yaml:"dpi"`
	Scale      float64       `yaml:"scale"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		Server:   Server{Port: 3000, BodyLimit: 4 << 20},
		Database: Database{Migrate: true},
		Sessions: Sessions{Backend: BackendMemory, TTL: 24 * time.Hour},
		Redis:    Redis{Addr: "localhost:6379"},
		Render:   Render{Engine: "chromedp", Timeout: 60 * time.Second, DPI: 96, Scale: 2},
		Log:      Log{Level: "info", Format: "json"},
	}
}

// Load reads path (skipped when empty), applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, rejecting unknown keys.
func Parse(data []byte, cfg *Config) error {
	if len(data) > maxFileSize {
		return fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(data))
	}
	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		} else {
			c.Server.Port = -1
		}
	}
	if v := getenv("JOBS_DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := getenv("CHROME_PATH"); v != "" {
		c.Render.ChromePath = v
	}
	if v := getenv("CHROME_WS_URL"); v != "" {
		c.Render.WSURL = v
	}
	if v := getenv("RENDER_ENGINE"); v != "" {
		c.Render.Engine = strings.ToLower(v)
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := getenv("SESSIONS_BACKEND"); v != "" {
		c.Sessions.Backend = strings.ToLower(v)
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return ErrInvalidPort
	}
	switch c.Sessions.Backend {
	case BackendMemory, BackendPostgres:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return ErrMissingRedis
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Sessions.Backend)
	}
	switch c.Render.Engine {
	case "chromedp", "rod":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidEngine, c.Render.Engine)
	}
	if c.Render.DPI <= 0 || c.Render.Scale <= 0 || c.Render.Timeout <= 0 {
		return ErrInvalidRender
	}
	return nil
}
