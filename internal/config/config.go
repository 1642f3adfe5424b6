package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/env"
)

// Config holds all configuration for the gymenv binaries
type Config struct {
	Env       EnvConfig       `mapstructure:"env" yaml:"env"`
	Wrappers  WrappersConfig  `mapstructure:"wrappers" yaml:"wrappers"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Recording RecordingConfig `mapstructure:"recording" yaml:"recording"`
	EpisodeDB EpisodeDBConfig `mapstructure:"episode_db" yaml:"episode_db"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Stream    StreamConfig    `mapstructure:"stream" yaml:"stream"`
}

// EnvConfig selects and sizes the environment
type EnvConfig struct {
	ID              string `mapstructure:"id" yaml:"id"`
	Size            int    `mapstructure:"size" yaml:"size"`
	WindowSize      int    `mapstructure:"window_size" yaml:"window_size"`
	RenderMode      string `mapstructure:"render_mode" yaml:"render_mode"`
	MaxEpisodeSteps int    `mapstructure:"max_episode_steps" yaml:"max_episode_steps"`
	// Seed < 0 leaves the first reset unseeded.
	Seed int64 `mapstructure:"seed" yaml:"seed"`
}

// Mode parses RenderMode.
func (c EnvConfig) Mode() (env.RenderMode, error) {
	return env.ParseRenderMode(c.RenderMode)
}

// WrappersConfig holds wrapper settings
type WrappersConfig struct {
	Scale ScaleConfig       `mapstructure:"scale" yaml:"scale"`
	Step  StepWrapperConfig `mapstructure:"step" yaml:"step"`
}

// ScaleConfig configures observation scaling
type ScaleConfig struct {
	Enabled bool    `mapstructure:"enabled" yaml:"enabled"`
	Factor  float64 `mapstructure:"factor" yaml:"factor"`
}

// StepWrapperConfig configures reward shaping and episode logging
type StepWrapperConfig struct {
	Enabled       bool    `mapstructure:"enabled" yaml:"enabled"`
	Log           bool    `mapstructure:"log" yaml:"log"`
	TerminalBonus float64 `mapstructure:"terminal_bonus" yaml:"terminal_bonus"`
}

// LoggingConfig holds zerolog settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// RecordingConfig holds episode recorder settings
type RecordingConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Dir     string `mapstructure:"dir" yaml:"dir"`
	Prefix  string `mapstructure:"prefix" yaml:"prefix"`
}

// EpisodeDBConfig holds episode index settings
type EpisodeDBConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// ServerConfig holds remote env server settings
type ServerConfig struct {
	Host                  string `mapstructure:"host" yaml:"host"`
	Port                  int    `mapstructure:"port" yaml:"port"`
	MaxEnvs               int    `mapstructure:"max_envs" yaml:"max_envs"`
	GracefulShutdownDelay int    `mapstructure:"graceful_shutdown_delay" yaml:"graceful_shutdown_delay"`
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StreamConfig holds websocket frame streaming settings
type StreamConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

var (
	// Global config instance
	cfg *Config
	v   *viper.Viper
	// overlay is the environment file merged by LoadEnvironmentConfig
	overlay string
)

func setViperDefaults(v *viper.Viper) {
	v.SetDefault("env.id", "GridWorld-v0")
	v.SetDefault("env.size", 11)
	v.SetDefault("env.window_size", 512)
	v.SetDefault("env.render_mode", "")
	v.SetDefault("env.max_episode_steps", 0)
	v.SetDefault("env.seed", -1)

	v.SetDefault("wrappers.scale.enabled", true)
	v.SetDefault("wrappers.scale.factor", 10.0)
	v.SetDefault("wrappers.step.enabled", true)
	v.SetDefault("wrappers.step.log", true)
	v.SetDefault("wrappers.step.terminal_bonus", 0.0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("recording.enabled", false)
	v.SetDefault("recording.dir", "recordings")
	v.SetDefault("recording.prefix", "episodes")

	v.SetDefault("episode_db.enabled", false)
	v.SetDefault("episode_db.path", "episodes.db")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 50061)
	v.SetDefault("server.max_envs", 64)
	v.SetDefault("server.graceful_shutdown_delay", 5)

	v.SetDefault("stream.enabled", false)
	v.SetDefault("stream.addr", ":8089")
}

// Init loads configuration from configPath, or from config.yaml in the
// usual locations when configPath is empty. A missing file means defaults.
func Init(configPath string) error {
	v = viper.New()
	overlay = ""
	setViperDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/gymenv")
	}

	v.SetEnvPrefix("GYM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath == "" && !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Get returns the global config instance, loading defaults on first use.
func Get() *Config {
	if cfg == nil {
		if err := Init(""); err != nil {
			panic("failed to initialize config with defaults: " + err.Error())
		}
	}
	return cfg
}

// GetViper returns the viper instance for advanced usage
func GetViper() *viper.Viper {
	if v == nil {
		panic("config not initialized - call Init() first")
	}
	return v
}

// LoadEnvironmentConfig merges config.<name>.yaml over the loaded config.
// The base file stays the one viper reads and watches; the overlay is
// merged again on every reload.
func LoadEnvironmentConfig(name string) error {
	if name == "" {
		return nil
	}
	overlay = fmt.Sprintf("config.%s.yaml", name)
	next, err := decode()
	if err != nil {
		return err
	}
	cfg = next
	return nil
}

// mergeOverlay merges the environment file, if any, over what viper has
// read, then points viper back at the base file.
func mergeOverlay() error {
	if overlay == "" {
		return nil
	}
	base := v.ConfigFileUsed()
	v.SetConfigFile(overlay)
	err := v.MergeInConfig()
	if base != "" {
		v.SetConfigFile(base)
	}
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error merging environment config %s: %w", overlay, err)
		}
	}
	return nil
}

// decode merges the overlay and builds a validated Config from viper.
func decode() (*Config, error) {
	if err := mergeOverlay(); err != nil {
		return nil, err
	}
	next := &Config{}
	if err := v.Unmarshal(next); err != nil {
		return nil, fmt.Errorf("unable to decode merged config into struct: %w", err)
	}
	if err := Validate(next); err != nil {
		return nil, err
	}
	return next, nil
}

// Set updates a key at runtime and refreshes the struct.
func Set(key string, value interface{}) {
	v.Set(key, value)
	_ = v.Unmarshal(cfg)
}

// GetString gets a string value from config
func GetString(key string) string {
	return v.GetString(key)
}

// GetInt gets an int value from config
func GetInt(key string) int {
	return v.GetInt(key)
}

// GetBool gets a bool value from config
func GetBool(key string) bool {
	return v.GetBool(key)
}

// ConfigFilePath returns the path of the loaded config file
func ConfigFilePath() string {
	return v.ConfigFileUsed()
}

// WatchConfig re-reads the base file on change, merges the environment
// overlay again and calls onChange when the result is valid. Invalid
// edits are reported through onError and the previous config stays in
// effect. Edits to the overlay file itself are not watched.
func WatchConfig(onChange func(*Config), onError func(error)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		next, err := decode()
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("%s: %w", e.Name, err))
			}
			return
		}
		cfg = next
		if onChange != nil {
			onChange(cfg)
		}
	})
	v.WatchConfig()
}

// Validate validates the configuration values
func Validate(c *Config) error {
	if c.Env.ID == "" {
		return fmt.Errorf("%w: env.id must be set", ErrInvalidConfig)
	}
	if c.Env.Size < 2 {
		return fmt.Errorf("%w: env.size must be at least 2", ErrInvalidConfig)
	}
	if c.Env.WindowSize <= 0 {
		return fmt.Errorf("%w: env.window_size must be positive", ErrInvalidConfig)
	}
	if _, err := c.Env.Mode(); err != nil {
		return fmt.Errorf("%w: env.render_mode: %w", ErrInvalidConfig, err)
	}
	if c.Env.MaxEpisodeSteps < 0 {
		return fmt.Errorf("%w: env.max_episode_steps must be non-negative", ErrInvalidConfig)
	}

	if c.Wrappers.Scale.Factor < 0 {
		return fmt.Errorf("%w: wrappers.scale.factor must be non-negative", ErrInvalidConfig)
	}

	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %w", ErrInvalidConfig, err)
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("%w: logging.format must be console or json", ErrInvalidConfig)
	}

	if c.Recording.Enabled && c.Recording.Dir == "" {
		return fmt.Errorf("%w: recording.dir must be set when recording is enabled", ErrInvalidConfig)
	}
	if c.EpisodeDB.Enabled && c.EpisodeDB.Path == "" {
		return fmt.Errorf("%w: episode_db.path must be set when the index is enabled", ErrInvalidConfig)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port must be between 1 and 65535", ErrInvalidConfig)
	}
	if c.Server.MaxEnvs <= 0 {
		return fmt.Errorf("%w: server.max_envs must be positive", ErrInvalidConfig)
	}
	if c.Server.GracefulShutdownDelay < 0 {
		return fmt.Errorf("%w: server.graceful_shutdown_delay must be non-negative", ErrInvalidConfig)
	}

	if c.Stream.Enabled && c.Stream.Addr == "" {
		return fmt.Errorf("%w: stream.addr must be set when streaming is enabled", ErrInvalidConfig)
	}
	return nil
}
