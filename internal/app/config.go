package app

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"aircraftdisplay/internal/scene"
	"aircraftdisplay/internal/varserver"
)

// Default configuration constants
const (
	DefaultHost          = "localhost"
	DefaultFPS           = 20
	MaxFPS               = 1000
	DefaultDialTimeout   = 10 * time.Second
	DefaultStatsInterval = 30 * time.Second
)

// ErrConfig is returned for missing or invalid settings
var ErrConfig = errors.New("invalid configuration")

// Config holds application configuration. The YAML keys match the long
// command line flags with dashes replaced by underscores.
type Config struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	WaypointFile string `yaml:"waypoints"`

	ClientTag   string        `yaml:"client_tag"`
	VarPath     string        `yaml:"var_path"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
	ReadTimeout time.Duration `yaml:"read_timeout"`

	Scale           float64 `yaml:"scale"`
	FPS             int     `yaml:"fps"`
	Headless        bool    `yaml:"headless"`
	WaypointMarkers bool    `yaml:"waypoint_markers"`

	RecordDir      string `yaml:"record_dir"`
	RecordUTC      bool   `yaml:"record_utc"`
	RecordKeepDays int    `yaml:"record_keep_days"`

	StatsInterval time.Duration `yaml:"stats_interval"`
	LogFile       string        `yaml:"log_file"`
	Verbose       bool          `yaml:"verbose"`
	ShowVersion   bool          `yaml:"-"`
}

// DefaultConfig returns a configuration with every optional field set
func DefaultConfig() Config {
	return Config{
		Host:          DefaultHost,
		ClientTag:     varserver.DefaultClientTag,
		VarPath:       varserver.DefaultVarPath,
		DialTimeout:   DefaultDialTimeout,
		Scale:         scene.DefaultScale,
		FPS:           DefaultFPS,
		StatsInterval: DefaultStatsInterval,
	}
}

// LoadFile reads a YAML configuration file. Keys missing from the file keep
// their defaults.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %w", ErrConfig, path, err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills zero values that have a usable default
func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.ClientTag == "" {
		c.ClientTag = varserver.DefaultClientTag
	}
	if c.VarPath == "" {
		c.VarPath = varserver.DefaultVarPath
	}
	if c.Scale == 0 {
		c.Scale = scene.DefaultScale
	}
	if c.FPS <= 0 {
		c.FPS = DefaultFPS
	}
	c.FPS = min(c.FPS, MaxFPS)
	if c.StatsInterval <= 0 {
		c.StatsInterval = DefaultStatsInterval
	}
}

// Validate checks the settings needed to start a session
func (c Config) Validate() error {
	if c.Port == 0 {
		return fmt.Errorf("%w: variable server port is required", ErrConfig)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrConfig, c.Port)
	}
	if c.WaypointFile == "" {
		return fmt.Errorf("%w: waypoint file is required", ErrConfig)
	}
	if c.FPS <= 0 || c.FPS > MaxFPS {
		return fmt.Errorf("%w: fps must be between 1 and %d", ErrConfig, MaxFPS)
	}
	if !(c.Scale > 0) || math.IsInf(c.Scale, 0) {
		return fmt.Errorf("%w: scale must be > 0", ErrConfig)
	}
	if c.DialTimeout < 0 || c.ReadTimeout < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", ErrConfig)
	}
	if c.RecordKeepDays < 0 {
		return fmt.Errorf("%w: record_keep_days must not be negative", ErrConfig)
	}
	return nil
}
