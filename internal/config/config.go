// Package config loads the daemon configuration from warplock.toml in the
// configuration directory, with WARPLOCK_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/warpdl/warplock/common"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "warplock.toml"

// Config is the complete daemon configuration.
type Config struct {
	// Dir is the directory the configuration was loaded from. State files
	// default to it.
	Dir string `mapstructure:"-"`

	Store  StoreConfig  `mapstructure:"store"`
	Engine EngineConfig `mapstructure:"engine"`
	Lock   LockConfig   `mapstructure:"lock"`
	RPC    RPCConfig    `mapstructure:"rpc"`
	Log    LogConfig    `mapstructure:"log"`
	Server ServerConfig `mapstructure:"server"`
}

type StoreConfig struct {
	// Backend is sqlite, json or memory.
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

type EngineConfig struct {
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	LockTimeout    time.Duration `mapstructure:"lock_timeout"`
	NotifyOnCancel bool          `mapstructure:"notify_on_cancel"`
	RearmDaily     bool          `mapstructure:"rearm_daily"`
	RestoreOnStart bool          `mapstructure:"restore_on_start"`
	// RestoreRequester owns schedules restored at start.
	RestoreRequester string `mapstructure:"restore_requester"`
}

type LockConfig struct {
	// Command replaces the platform lock mechanism when set.
	Command []string `mapstructure:"command"`
}

type RPCConfig struct {
	// Port enables the JSON-RPC endpoint on 127.0.0.1 when non-zero.
	Port   int    `mapstructure:"port"`
	Listen string `mapstructure:"listen"`
	// Secret is the bearer token; empty falls back to the OS keyring.
	Secret string `mapstructure:"secret"`
}

type LogConfig struct {
	// File enables the rotating file log when set.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
	Debug      bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	MaxConnections int `mapstructure:"max_connections"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.backend", "sqlite")
	v.SetDefault("store.path", "")
	v.SetDefault("engine.poll_interval", 100*time.Millisecond)
	v.SetDefault("engine.lock_timeout", 30*time.Second)
	v.SetDefault("engine.notify_on_cancel", false)
	v.SetDefault("engine.rearm_daily", true)
	v.SetDefault("engine.restore_on_start", true)
	v.SetDefault("engine.restore_requester", common.DefaultRequester)
	v.SetDefault("lock.command", []string{})
	v.SetDefault("rpc.port", 0)
	v.SetDefault("rpc.listen", "127.0.0.1")
	v.SetDefault("rpc.secret", "")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", false)
	v.SetDefault("log.debug", false)
	v.SetDefault("server.max_connections", 64)
}

// Dir returns the configuration directory, creating it if needed.
func Dir() (string, error) {
	dir := os.Getenv(common.ConfigDirEnv)
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(base, "warplock")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", err
	}
	return abs, nil
}

// Load reads dir/warplock.toml if it exists and applies environment
// overrides such as WARPLOCK_ENGINE_POLL_INTERVAL.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("WARPLOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	c.Dir = dir
	if os.Getenv(common.DebugEnv) != "" {
		c.Log.Debug = true
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks values that cannot be corrected silently.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Store.Backend) {
	case "sqlite", "json", "memory":
	default:
		return fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend)
	}
	if c.RPC.Port < 0 || c.RPC.Port > 65535 {
		return fmt.Errorf("rpc.port: %d out of range", c.RPC.Port)
	}
	if c.Engine.PollInterval < 0 {
		return errors.New("engine.poll_interval must not be negative")
	}
	return nil
}

// LogPath resolves Log.File relative to Dir.
func (c *Config) LogPath() string {
	if c.Log.File == "" || filepath.IsAbs(c.Log.File) {
		return c.Log.File
	}
	return filepath.Join(c.Dir, c.Log.File)
}
