// Package config loads and saves the simulator's persisted settings,
// grounded on the teacher's config.Config: a TOML-backed struct with
// platform-specific default paths, re-keyed from ARM/debugger-GUI
// concerns to this domain's execution, debugger, display, and device
// defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config represents the simulator's persisted configuration.
type Config struct {
	// Execution settings
	Execution struct {
		MaxCycles     uint64 `toml:"max_cycles"` // 0 means unbounded
		MemoryTop     uint32 `toml:"memory_top"`
		StartingAddr  uint32 `toml:"starting_addr"`
		StackAddr     uint32 `toml:"stack_addr"` // 0 means derive from MemoryTop
		EnableVerbose bool   `toml:"enable_verbose"`
		Quiet         bool   `toml:"quiet"`
	} `toml:"execution"`

	// Debugger settings
	Debugger struct {
		HistorySize  int  `toml:"history_size"`
		SingleStep   bool `toml:"single_step"`
		AutoListBrks bool `toml:"auto_list_breakpoints"`
	} `toml:"debugger"`

	// Display settings
	Display struct {
		NumberFormat string `toml:"number_format"` // x, u, i, b
		BytesPerLine int    `toml:"bytes_per_line"`
	} `toml:"display"`

	// Devices settings: default device-configuration strings in
	// "name[,key=value]*" form (devices.ParseConfig), applied before
	// any --device flags.
	Devices struct {
		Default []string `toml:"default"`
	} `toml:"devices"`

	// Dump settings
	Dump struct {
		Format string `toml:"format"` // txt, json
		Path   string `toml:"path"`
	} `toml:"dump"`
}

// DefaultConfig returns a configuration with default values, mirroring
// spec.md §6's documented CLI flag defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Execution.MaxCycles = 0
	cfg.Execution.MemoryTop = 65536
	cfg.Execution.StartingAddr = 0
	cfg.Execution.StackAddr = 0
	cfg.Execution.EnableVerbose = false
	cfg.Execution.Quiet = false

	cfg.Debugger.HistorySize = 1000
	cfg.Debugger.SingleStep = false
	cfg.Debugger.AutoListBrks = false

	cfg.Display.NumberFormat = "x"
	cfg.Display.BytesPerLine = 16

	cfg.Devices.Default = nil

	cfg.Dump.Format = "txt"
	cfg.Dump.Path = ""

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "rv32sim")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "rv32sim")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// GetLogPath returns the platform-specific log directory path.
func GetLogPath() string {
	var logDir string

	switch runtime.GOOS {
	case "windows":
		logDir = os.Getenv("APPDATA")
		if logDir == "" {
			logDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		logDir = filepath.Join(logDir, "rv32sim", "logs")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "rv32sim", "logs")

	default:
		return "logs"
	}

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "logs"
	}

	return logDir
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file. A missing file
// is not an error: the defaults are returned unchanged.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
