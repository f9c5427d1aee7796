// Package config reads the serverx configuration file.
//
//	[log]
//	level = "info"
//	file  = "/var/log/serverx.log"
//	json  = false
//
//	[gateway]
//	address = "sqlite:///var/lib/serverx/servers.db"
//	timeout = "10s"
//
//	[browser]
//	home = "server://home"
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sussybocca/Server.x-2/data"
	"github.com/sussybocca/Server.x-2/log"
)

const appName = "serverx"

type Config struct {
	Log     LogConfig     `toml:"log"`
	Gateway GatewayConfig `toml:"gateway"`
	Browser BrowserConfig `toml:"browser"`
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
	JSON  bool   `toml:"json"`
}

type GatewayConfig struct {
	Address string `toml:"address"`
	Timeout string `toml:"timeout"`
}

type BrowserConfig struct {
	Home string `toml:"home"`
}

// Default returns the configuration used when no file is present. Servers
// are kept in a msgpack file below the user configuration directory.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Gateway: GatewayConfig{
			Address: "file://" + filepath.Join(baseDir(), "servers.msgpack"),
			Timeout: "10s",
		},
		Browser: BrowserConfig{
			Home: string(data.HomeLocation),
		},
	}
}

// DefaultPath returns the location of the configuration file when none is
// given explicitly.
func DefaultPath() string {
	return filepath.Join(baseDir(), "config.toml")
}

func baseDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "." + appName
	}

	return filepath.Join(dir, appName)
}

// Load decodes path on top of the defaults. Keys that are not part of the
// configuration are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// LoadDefault loads the file at DefaultPath and falls back to Default when
// it does not exist.
func LoadDefault() (*Config, error) {
	cfg, err := Load(DefaultPath())
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return cfg, err
}

func (c *Config) Validate() error {
	if _, err := log.Parse(c.Log.Level); err != nil {
		return err
	}

	if strings.TrimSpace(c.Gateway.Address) == "" {
		return fmt.Errorf("gateway address must not be empty")
	}

	if _, err := c.Timeout(); err != nil {
		return err
	}

	if strings.TrimSpace(c.Browser.Home) == "" {
		return fmt.Errorf("browser home must not be empty")
	}

	return nil
}

// LogLevel returns the parsed log level, falling back to info.
func (c *Config) LogLevel() log.LogLevel {
	level, err := log.Parse(c.Log.Level)
	if err != nil {
		return log.Info
	}

	return level
}

// Timeout returns the parsed gateway timeout. An empty value disables it.
func (c *Config) Timeout() (time.Duration, error) {
	if c.Gateway.Timeout == "" {
		return 0, nil
	}

	timeout, err := time.ParseDuration(c.Gateway.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid gateway timeout '%s': %w", c.Gateway.Timeout, err)
	}
	if timeout < 0 {
		return 0, fmt.Errorf("gateway timeout must not be negative")
	}

	return timeout, nil
}

// Home returns the canonical location new tabs open on.
func (c *Config) Home() data.VirtualLocation {
	return data.Resolve(c.Browser.Home)
}
