package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/fxscale/internal/model"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Server holds all configuration of the scalability daemon.
type Server struct {
	LogLevel string `yaml:"log_level"` // debug, info, warn, error

	// Tick loop
	TickInterval      time.Duration `yaml:"tick_interval"`        // default: 16ms
	MaxUpdatesPerTick int           `yaml:"max_updates_per_tick"` // per effect type, 0 = unlimited
	InitialVisibility string        `yaml:"initial_visibility"`   // optimistic, evaluate

	// Global FX budget
	FrameBudget  time.Duration `yaml:"frame_budget"`  // time per frame effects may use (default: 2ms)
	BudgetWindow int           `yaml:"budget_window"` // frames averaged by the tracker

	// Effect catalog
	CatalogPath string `yaml:"catalog_path"`

	// Platform rule context
	Platform PlatformConfig `yaml:"platform"`

	// Database
	Database DatabaseConfig `yaml:"database"`

	// Statistics
	StatsFlushInterval time.Duration `yaml:"stats_flush_interval"` // 0 disables persistence
	StatsRetention     time.Duration `yaml:"stats_retention"`      // 0 keeps rows forever

	// Simulation
	Simulation SimulationConfig `yaml:"simulation"`
}

// PlatformConfig describes the running platform for settings selection.
type PlatformConfig struct {
	Quality       model.QualityLevel `yaml:"quality"`
	DeviceProfile string             `yaml:"device_profile"`
	Switches      map[string]bool    `yaml:"switches"`
}

// SimulationConfig drives the synthetic effect population.
type SimulationConfig struct {
	Seed         uint64  `yaml:"seed"`
	SpawnPerTick int     `yaml:"spawn_per_tick"`
	MaxAlive     int     `yaml:"max_alive"`
	Lifetime     float32 `yaml:"lifetime"`    // seconds
	WorldRadius  float32 `yaml:"world_radius"` // spawn area around the origin
	Viewers      int     `yaml:"viewers"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultServer returns Server config with sensible defaults.
func DefaultServer() Server {
	return Server{
		LogLevel:          "info",
		TickInterval:      16 * time.Millisecond,
		MaxUpdatesPerTick: 256,
		InitialVisibility: "optimistic",
		FrameBudget:       2 * time.Millisecond,
		BudgetWindow:      30,
		CatalogPath:       "config/effects.yaml",
		Platform: PlatformConfig{
			Quality:       model.QualityHigh,
			DeviceProfile: "Windows",
		},
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "fxscale",
			Password: "fxscale",
			DBName:   "fxscale",
			SSLMode:  "disable",
		},
		StatsFlushInterval: 5 * time.Second,
		StatsRetention:     24 * time.Hour,
		Simulation: SimulationConfig{
			Seed:         1,
			SpawnPerTick: 4,
			MaxAlive:     2000,
			Lifetime:     8,
			WorldRadius:  5000,
			Viewers:      1,
		},
	}
}

// LoadServer loads server config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate reports every invalid field at once.
func (s Server) Validate() error {
	var errs []error

	if _, err := ParseLogLevel(s.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if s.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick_interval must be positive, got %v", s.TickInterval))
	}
	if s.MaxUpdatesPerTick < 0 {
		errs = append(errs, fmt.Errorf("max_updates_per_tick must not be negative, got %d", s.MaxUpdatesPerTick))
	}
	switch strings.ToLower(strings.TrimSpace(s.InitialVisibility)) {
	case "", "optimistic", "evaluate":
	default:
		errs = append(errs, fmt.Errorf("unknown initial_visibility %q", s.InitialVisibility))
	}
	if s.FrameBudget < 0 {
		errs = append(errs, fmt.Errorf("frame_budget must not be negative, got %v", s.FrameBudget))
	}
	if s.BudgetWindow < 1 {
		errs = append(errs, fmt.Errorf("budget_window must be at least 1, got %d", s.BudgetWindow))
	}
	if s.StatsFlushInterval < 0 {
		errs = append(errs, fmt.Errorf("stats_flush_interval must not be negative, got %v", s.StatsFlushInterval))
	}
	if s.StatsRetention < 0 {
		errs = append(errs, fmt.Errorf("stats_retention must not be negative, got %v", s.StatsRetention))
	}
	if s.Simulation.MaxAlive < 0 || s.Simulation.SpawnPerTick < 0 {
		errs = append(errs, fmt.Errorf("simulation counts must not be negative"))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// ParseLogLevel converts a config log level to slog.Level. Empty means info.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log_level %q", s)
	}
}
