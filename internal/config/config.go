package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"esquematiza/internal/domain"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	SessionMemory = "memory"
	SessionShared = "shared"

	HistorySQLite   = "sqlite"
	HistoryPostgres = "postgres"
	HistoryMemory   = "memory"
)

type Config struct {
	Server struct {
		Port  string `yaml:"port"`
		Debug bool   `yaml:"debug"`
	} `yaml:"server"`
	Bank struct {
		// Location is a SQLite path, a postgres:// URL, or empty for the built-in demo bank.
		Location string `yaml:"location"`
	} `yaml:"bank"`
	Session struct {
		Backend string `yaml:"backend"`
		TTL     string `yaml:"ttl"`
		// LockTTL bounds how long a crashed instance can hold a user's shared lock.
		LockTTL string `yaml:"lock_ttl"`
	} `yaml:"session"`
	History struct {
		Backend  string `yaml:"backend"`
		Location string `yaml:"location"`
	} `yaml:"history"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Subjects struct {
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"subjects"`
	Areas domain.AreaTable `yaml:"areas"`
	Essay struct {
		BaseURL   string `yaml:"base_url"`
		APIKey    string `yaml:"api_key"`
		Model     string `yaml:"model"`
		MinLength int    `yaml:"min_length"`
		Timeout   string `yaml:"timeout"`
	} `yaml:"essay"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Lang string `yaml:"lang"`
}

// Load reads a .env file if present, the YAML config at path (a missing file is allowed),
// then applies environment overrides and defaults.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	setString(&c.Server.Port, "PORT")
	setString(&c.Bank.Location, "BANK_LOCATION")
	setString(&c.Session.Backend, "SESSION_BACKEND")
	setString(&c.History.Backend, "HISTORY_BACKEND")
	setString(&c.History.Location, "HISTORY_LOCATION")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Essay.APIKey, "ESSAY_API_KEY")
	setString(&c.Essay.BaseURL, "ESSAY_BASE_URL")
	setString(&c.Log.Level, "LOG_LEVEL")
	if raw := os.Getenv("DEBUG"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			c.Server.Debug = v
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Session.Backend == "" {
		c.Session.Backend = SessionMemory
	}
	if c.History.Backend == "" {
		c.History.Backend = c.defaultHistoryBackend()
	}
	if c.History.Location == "" {
		c.History.Location = c.Bank.Location
	}
	if c.History.Backend == HistorySQLite && c.History.Location == "" {
		c.History.Location = "esquematiza.db"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "esq"
	}
	if len(c.Areas) == 0 {
		c.Areas = domain.DefaultAreas
	}
	if c.Essay.Model == "" {
		c.Essay.Model = "gpt-4o-mini"
	}
	if c.Essay.MinLength <= 0 {
		c.Essay.MinLength = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Debug {
		c.Log.Level = "debug"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Lang == "" {
		c.Lang = "pt-BR"
	}
}

func (c *Config) defaultHistoryBackend() string {
	switch {
	case IsPostgresURL(c.Bank.Location):
		return HistoryPostgres
	default:
		return HistorySQLite
	}
}

// Validate rejects unknown backends and a shared session store without Redis.
func (c Config) Validate() error {
	switch c.Session.Backend {
	case SessionMemory:
	case SessionShared:
		if c.Redis.Addr == "" {
			return errors.New("session backend \"shared\" requires redis.addr")
		}
	default:
		return errors.New("unknown session backend " + strconv.Quote(c.Session.Backend))
	}
	switch c.History.Backend {
	case HistoryMemory, HistorySQLite:
	case HistoryPostgres:
		if !IsPostgresURL(c.History.Location) {
			return errors.New("history backend \"postgres\" requires a postgres:// location")
		}
	default:
		return errors.New("unknown history backend " + strconv.Quote(c.History.Backend))
	}
	return nil
}

// IsPostgresURL reports whether a location names a Postgres database.
func IsPostgresURL(location string) bool {
	return strings.HasPrefix(location, "postgres://") || strings.HasPrefix(location, "postgresql://")
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
