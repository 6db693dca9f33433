// Package config loads the herkulexctl settings. Values come, in order of
// precedence, from command-line flags, HERKULEX_* environment variables, a
// YAML file and the defaults below.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. HERKULEX_BUS_PORT for
// bus.port.
const EnvPrefix = "HERKULEX"

// FileName is the config file name looked up without --config.
const FileName = "herkulex.yaml"

// Config represents the complete herkulexctl configuration
type Config struct {
	Bus    BusConfig      `mapstructure:"bus"`
	Log    LogConfig      `mapstructure:"log"`
	Motors map[string]int `mapstructure:"motors"`
}

// BusConfig describes the serial bus and how the channel drives it
type BusConfig struct {
	// Port is the serial device, or "sim" for a simulated bus
	Port     string `mapstructure:"port"`
	BaudRate int    `mapstructure:"baud"`
	// Model is the servo family: drs-0101 or drs-0201
	Model string `mapstructure:"model"`
	// AckPolicy must match the servos' ACK policy register: none, reads or all
	AckPolicy   string        `mapstructure:"ack_policy"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
	CommandGap  time.Duration `mapstructure:"command_gap"`
}

// LogConfig controls logging
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Bus: BusConfig{
			Port:        "/dev/ttyUSB0",
			BaudRate:    115200,
			Model:       "drs-0101",
			AckPolicy:   "reads",
			ReadTimeout: 100 * time.Millisecond,
			LockTimeout: 500 * time.Millisecond,
			CommandGap:  time.Millisecond,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Motors: map[string]int{},
	}
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	// Bus defaults
	v.SetDefault("bus.port", defaults.Bus.Port)
	v.SetDefault("bus.baud", defaults.Bus.BaudRate)
	v.SetDefault("bus.model", defaults.Bus.Model)
	v.SetDefault("bus.ack_policy", defaults.Bus.AckPolicy)
	v.SetDefault("bus.read_timeout", defaults.Bus.ReadTimeout)
	v.SetDefault("bus.lock_timeout", defaults.Bus.LockTimeout)
	v.SetDefault("bus.command_gap", defaults.Bus.CommandGap)

	// Logging defaults
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)

	v.SetDefault("motors", defaults.Motors)
}

// New returns a viper instance with defaults and environment overrides set.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile loads path into v. With an empty path herkulex.yaml is looked up
// in the working directory and then in ConfigDir; a missing file is not an
// error in that case.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir := ConfigDir(); dir != "" {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the per-user config directory, or "" if the platform
// has none.
func ConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "herkulex")
}

// MotorID resolves a motor reference: either a name from the motors table
// or a decimal or 0x-prefixed id.
func (c *Config) MotorID(ref string) (byte, error) {
	if id, ok := c.Motors[strings.ToLower(ref)]; ok {
		return byte(id), nil
	}

	n, err := strconv.ParseUint(ref, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("unknown motor %q: not a configured name or an id", ref)
	}
	if n > uint64(maxMotorID) {
		return 0, fmt.Errorf("motor id %d out of range (valid range: 0-%d)", n, maxMotorID)
	}
	return byte(n), nil
}

// MotorNames returns the configured motor names, sorted.
func (c *Config) MotorNames() []string {
	names := make([]string, 0, len(c.Motors))
	for name := range c.Motors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// fileConfig is the on-disk layout written by WriteDefault. Durations are
// kept as strings so the file stays readable.
type fileConfig struct {
	Bus struct {
		Port        string `yaml:"port"`
		BaudRate    int    `yaml:"baud"`
		Model       string `yaml:"model"`
		AckPolicy   string `yaml:"ack_policy"`
		ReadTimeout string `yaml:"read_timeout"`
		LockTimeout string `yaml:"lock_timeout"`
		CommandGap  string `yaml:"command_gap"`
	} `yaml:"bus"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Motors map[string]int `yaml:"motors"`
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var f fileConfig
	f.Bus.Port = c.Bus.Port
	f.Bus.BaudRate = c.Bus.BaudRate
	f.Bus.Model = c.Bus.Model
	f.Bus.AckPolicy = c.Bus.AckPolicy
	f.Bus.ReadTimeout = c.Bus.ReadTimeout.String()
	f.Bus.LockTimeout = c.Bus.LockTimeout.String()
	f.Bus.CommandGap = c.Bus.CommandGap.String()
	f.Log.Level = c.Log.Level
	f.Log.Format = c.Log.Format
	f.Motors = c.Motors

	return yaml.Marshal(&f)
}

// WriteDefault writes the default configuration to path. An existing file
// is only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	data, err := Default().Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
