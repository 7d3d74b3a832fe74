// Package app provides configuration management and the host application of
// the Master System emulator.
package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gosms/internal/graphics"
	"gosms/internal/system"

	"github.com/retroenv/retrogolib/log"
)

// Config holds all application configuration
type Config struct {
	Window    WindowConfig    `json:"window"`
	Video     VideoConfig     `json:"video"`
	Emulation EmulationConfig `json:"emulation"`
	Debug     DebugConfig     `json:"debug"`
	Paths     PathsConfig     `json:"paths"`

	// Internal state
	configPath string
	loaded     bool
}

// WindowConfig contains window-related configuration
type WindowConfig struct {
	Width      int  `json:"width"`
	Height     int  `json:"height"`
	Fullscreen bool `json:"fullscreen"`
	Scale      int  `json:"scale"` // Native resolution multiplier
}

// VideoConfig contains video rendering configuration
type VideoConfig struct {
	Backend    string  `json:"backend"` // "ebitengine", "headless", "terminal"
	VSync      bool    `json:"vsync"`
	Filter     string  `json:"filter"` // "nearest", "linear"
	ShowFPS    bool    `json:"show_fps"`
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Saturation float64 `json:"saturation"`
}

// EmulationConfig contains emulation-specific settings
type EmulationConfig struct {
	Region     string `json:"region"`      // "auto", "ntsc", "pal"
	FrameLimit bool   `json:"frame_limit"` // Pace frames to the console frame rate
	Frames     int    `json:"frames"`      // Frames to run headless, 0 runs until closed
}

// DebugConfig contains debugging and development options
type DebugConfig struct {
	LogLevel       string `json:"log_level"` // "debug", "info", "error"
	CPUTracing     bool   `json:"cpu_tracing"`
	InputDebugging bool   `json:"input_debugging"`
	DumpFrames     bool   `json:"dump_frames"`
	DumpInterval   int    `json:"dump_interval"`
	Statsview      bool   `json:"statsview"`
}

// PathsConfig contains file and directory paths
type PathsConfig struct {
	Screenshots string `json:"screenshots"`
	Dumps       string `json:"dumps"`
	Config      string `json:"config"`
}

var (
	errUnknownBackend  = errors.New("unknown video backend")
	errUnknownRegion   = errors.New("unknown region")
	errUnknownLogLevel = errors.New("unknown log level")
	errWindowSize      = errors.New("invalid window dimensions")
)

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  768,
			Height: 576,
			Scale:  3, // 768x576 (256x192 * 3)
		},
		Video: VideoConfig{
			Backend:    string(graphics.BackendEbitengine),
			VSync:      true,
			Filter:     "nearest",
			Brightness: 1.0,
			Contrast:   1.0,
			Saturation: 1.0,
		},
		Emulation: EmulationConfig{
			Region:     "auto",
			FrameLimit: true,
		},
		Debug: DebugConfig{
			LogLevel:     "info",
			DumpInterval: 60,
		},
		Paths: PathsConfig{
			Screenshots: "./screenshots",
			Dumps:       "./dumps",
			Config:      "./config",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. A missing file is
// created with the current values.
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if err := c.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	c.loaded = true
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	c.configPath = path
	return nil
}

// Save saves the configuration to the current config file
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.New("no config file path set")
	}
	return c.SaveToFile(c.configPath)
}

// validate rejects unknown enumeration values and resets out of range
// numbers to their defaults.
func (c *Config) validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return &ConfigError{Field: "window", Value: fmt.Sprintf("%dx%d", c.Window.Width, c.Window.Height), Err: errWindowSize}
	}
	if c.Window.Scale <= 0 {
		c.Window.Scale = 1
	}

	c.Video.Backend = strings.ToLower(c.Video.Backend)
	switch graphics.BackendType(c.Video.Backend) {
	case graphics.BackendEbitengine, graphics.BackendHeadless, graphics.BackendTerminal:
	default:
		return &ConfigError{Field: "video.backend", Value: c.Video.Backend, Err: errUnknownBackend}
	}

	if _, err := ParseRegion(c.Emulation.Region); err != nil {
		return &ConfigError{Field: "emulation.region", Value: c.Emulation.Region, Err: err}
	}
	if _, _, err := parseLogLevel(c.Debug.LogLevel); err != nil {
		return &ConfigError{Field: "debug.log_level", Value: c.Debug.LogLevel, Err: err}
	}

	if c.Video.Brightness < 0.1 || c.Video.Brightness > 3.0 {
		c.Video.Brightness = 1.0
	}
	if c.Video.Contrast < 0.1 || c.Video.Contrast > 3.0 {
		c.Video.Contrast = 1.0
	}
	if c.Video.Saturation < 0.0 || c.Video.Saturation > 3.0 {
		c.Video.Saturation = 1.0
	}
	if c.Emulation.Frames < 0 {
		c.Emulation.Frames = 0
	}
	if c.Debug.DumpInterval <= 0 {
		c.Debug.DumpInterval = 60
	}
	return nil
}

// createDirectories creates the output directories that features in use need
func (c *Config) createDirectories() error {
	dirs := []string{c.Paths.Screenshots}
	if c.Debug.DumpFrames {
		dirs = append(dirs, c.Paths.Dumps)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}

// ParseRegion converts a region name to a forced region, nil means the
// region is detected from the cartridge.
func ParseRegion(name string) (*system.Region, error) {
	var region system.Region
	switch strings.ToLower(name) {
	case "", "auto":
		return nil, nil
	case "ntsc":
		region = system.NTSC
	case "pal":
		region = system.PAL
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownRegion, name)
	}
	return &region, nil
}

// parseLogLevel returns whether debug output is enabled and whether output
// is restricted to errors.
func parseLogLevel(name string) (debug, quiet bool, err error) {
	switch strings.ToLower(name) {
	case "debug":
		return true, false, nil
	case "", "info":
		return false, false, nil
	case "error":
		return false, true, nil
	default:
		return false, false, fmt.Errorf("%w: %s", errUnknownLogLevel, name)
	}
}

// CreateLogger creates the application logger for a configured log level.
func CreateLogger(level string) (*log.Logger, error) {
	debug, quiet, err := parseLogLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	}
	if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg), nil
}

// GetNativeResolution returns the resolution of the 192 line display mode
func (c *Config) GetNativeResolution() (int, int) {
	return 256, 192
}

// GetWindowResolution returns the window resolution based on scale
func (c *Config) GetWindowResolution() (int, int) {
	width, height := c.GetNativeResolution()
	return width * c.Window.Scale, height * c.Window.Scale
}

// IsLoaded returns whether the configuration was loaded from file
func (c *Config) IsLoaded() bool {
	return c.loaded
}

// GetConfigPath returns the path to the config file
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	return "./config/gosms.json"
}

// ConfigError represents configuration-related errors
type ConfigError struct {
	Field string
	Value any
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s' with value '%v': %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
