package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"vetagenda/internal/schedule"
)

// Where the HTTP API reads published schedules from.
const (
	ScheduleSourceLocal  = "local"
	ScheduleSourceRemote = "remote"
)

type Config struct {
	Server struct {
		Port                int    `yaml:"port"`
		APIKey              string `yaml:"api_key"`
		ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	API struct {
		Enabled         bool    `yaml:"enabled"`
		BaseURL         string  `yaml:"base_url"`
		APIKey          string  `yaml:"api_key"`
		CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
		TimeoutSeconds  int     `yaml:"timeout_seconds"`
		RatePerSecond   float64 `yaml:"rate_per_second"`
		Burst           int     `yaml:"burst"`
		ScheduleSource  string  `yaml:"schedule_source"` // "local" or "remote"
	} `yaml:"api"`

	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   int64  `yaml:"chat_id"`
		Debug    bool   `yaml:"debug"`
	} `yaml:"telegram"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Booking struct {
		SlotMinutes  int      `yaml:"slot_minutes"`
		HorizonDays  int      `yaml:"horizon_days"`
		DefaultHours []string `yaml:"default_hours"` // ["08:00-12:00", "14:00-18:00"]
		Timezone     string   `yaml:"timezone"`
	} `yaml:"booking"`

	LocationsConfigPath   string `yaml:"locations_config_path"`
	ReloadIntervalSeconds int    `yaml:"reload_interval_seconds"`
}

// LoadEnv populates the environment from .env files. Missing files are ignored.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load env %s: %w", p, err)
		}
	}
	return nil
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/vetagenda.db"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.LocationsConfigPath == "" {
		cfg.LocationsConfigPath = "configs/locations.yaml"
	}

	if err = cfg.validate(); err != nil {
		return nil, err
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	for i, h := range c.Booking.DefaultHours {
		if _, ok := schedule.ParseRange(h); !ok {
			return fmt.Errorf("booking.default_hours[%d]: invalid range '%s', expected HH:MM-HH:MM", i, h)
		}
	}
	switch c.API.ScheduleSource {
	case "", ScheduleSourceLocal:
	case ScheduleSourceRemote:
		if !c.API.Enabled || c.API.BaseURL == "" {
			return fmt.Errorf("api.schedule_source 'remote' requires api.enabled and api.base_url")
		}
	default:
		return fmt.Errorf("api.schedule_source: unknown value '%s', expected local or remote", c.API.ScheduleSource)
	}
	if c.Booking.SlotMinutes < 0 {
		return fmt.Errorf("booking.slot_minutes cannot be negative")
	}
	if c.Booking.Timezone != "" {
		if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
			return fmt.Errorf("booking.timezone: %w", err)
		}
	}
	return nil
}

func (c *Config) SlotMinutes() int {
	if c.Booking.SlotMinutes <= 0 {
		return 30
	}
	return c.Booking.SlotMinutes
}

func (c *Config) HorizonDays() int {
	if c.Booking.HorizonDays <= 0 {
		return 30
	}
	return c.Booking.HorizonDays
}

// DefaultRanges returns the configured fallback hours, or nil to keep the built-in ones.
func (c *Config) DefaultRanges() []schedule.Range {
	var ranges []schedule.Range
	for _, h := range c.Booking.DefaultHours {
		if r, ok := schedule.ParseRange(h); ok {
			ranges = append(ranges, r)
		}
	}
	return ranges
}

// Location is the single zone all dates are interpreted in.
func (c *Config) Location() *time.Location {
	if c.Booking.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// RemoteSchedules reports whether schedules are fetched from the booking backend.
func (c *Config) RemoteSchedules() bool {
	return c.API.ScheduleSource == ScheduleSourceRemote
}

func (c *Config) APITimeout() time.Duration {
	if c.API.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	if c.API.CacheTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.API.CacheTTLSeconds) * time.Second
}

func (c *Config) ReloadInterval() time.Duration {
	if c.ReloadIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.ReloadIntervalSeconds) * time.Second
}

func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}
