package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appDirName = "nexus"

type Config struct {
	BridgeHost    string        `koanf:"bridge-host"`
	BridgePort    int           `koanf:"bridge-port"`
	Model         string        `koanf:"model"`
	PollInterval  time.Duration `koanf:"poll-interval"`
	ProbeTimeout  time.Duration `koanf:"probe-timeout"`
	ExecTimeout   time.Duration `koanf:"exec-timeout"`
	Resolver      string        `koanf:"resolver"`
	TelemetryPort int           `koanf:"telemetry-port"`
}

// Defaults returns the configuration used when no config file exists.
func Defaults() Config {
	return Config{
		BridgeHost:    "127.0.0.1",
		BridgePort:    4144,
		PollInterval:  15 * time.Second,
		ProbeTimeout:  5 * time.Second,
		ExecTimeout:   30 * time.Second,
		TelemetryPort: 4317,
	}
}

// Load parses the YAML config at path over the defaults. A missing file is
// not an error; the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if err := loadFile(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// loadFile parses a YAML file into target, silently skipping missing files
// so callers don't need to check existence first.
func loadFile(path string, target any) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return err
	}
	return k.Unmarshal("", target)
}

func (c *Config) validate() error {
	if c.BridgePort < 1 || c.BridgePort > 65535 {
		return fmt.Errorf("bridge-port %d out of range", c.BridgePort)
	}
	if c.TelemetryPort < 0 || c.TelemetryPort > 65535 {
		return fmt.Errorf("telemetry-port %d out of range", c.TelemetryPort)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll-interval must be positive")
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("probe-timeout must be positive")
	}
	if c.ExecTimeout <= 0 {
		return fmt.Errorf("exec-timeout must be positive")
	}
	return nil
}

// BridgeURL returns the base URL of the local bridge API.
func (c *Config) BridgeURL() string {
	return fmt.Sprintf("http://%s:%d", c.BridgeHost, c.BridgePort)
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appDirName, "config.yaml")
}

func DefaultRosterPath() string {
	return filepath.Join(xdg.ConfigHome, appDirName, "machines.toml")
}
