package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/slipstream/releasedecider/internal/decisioning"
	"github.com/slipstream/releasedecider/internal/indexer/types"
	"github.com/slipstream/releasedecider/internal/logger"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "RELEASEDECIDER"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Pending  PendingConfig  `mapstructure:"pending"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// BodyLimit caps request bodies, e.g. "4M".
	BodyLimit string `mapstructure:"body_limit"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
	Recent     int    `mapstructure:"recent"`
}

// EngineConfig holds the default decision settings.
type EngineConfig struct {
	Workers           int           `mapstructure:"workers"`
	PreferredProtocol string        `mapstructure:"preferred_protocol"`
	UsenetDelay       time.Duration `mapstructure:"usenet_delay"`
	TorrentDelay      time.Duration `mapstructure:"torrent_delay"`
	RetentionDays     int           `mapstructure:"retention_days"`
	MinimumSeeders    int           `mapstructure:"minimum_seeders"`
	// MinimumSize and MaximumSize are per-episode sizes such as "200 MB".
	// Empty or "0" disables the limit.
	MinimumSize   string   `mapstructure:"minimum_size"`
	MaximumSize   string   `mapstructure:"maximum_size"`
	RequiredTerms []string `mapstructure:"required_terms"`
	IgnoredTerms  []string `mapstructure:"ignored_terms"`
}

// PendingConfig holds pending release re-evaluation settings.
type PendingConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Cron       string `mapstructure:"cron"`
	RunOnStart bool   `mapstructure:"run_on_start"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8282,
			BodyLimit: "4M",
		},
		Database: DatabaseConfig{
			Path: "./data/releasedecider.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
			Recent:     500,
		},
		Engine: EngineConfig{
			PreferredProtocol: string(types.ProtocolUsenet),
		},
		Pending: PendingConfig{
			Enabled: true,
			Cron:    "*/15 * * * *",
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.releasedecider")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides resolve.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.body_limit", d.Server.BodyLimit)

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)
	v.SetDefault("logging.recent", d.Logging.Recent)

	v.SetDefault("engine.workers", 0)
	v.SetDefault("engine.preferred_protocol", d.Engine.PreferredProtocol)
	v.SetDefault("engine.usenet_delay", "0s")
	v.SetDefault("engine.torrent_delay", "0s")
	v.SetDefault("engine.retention_days", 0)
	v.SetDefault("engine.minimum_seeders", 0)
	v.SetDefault("engine.minimum_size", "")
	v.SetDefault("engine.maximum_size", "")
	v.SetDefault("engine.required_terms", []string{})
	v.SetDefault("engine.ignored_terms", []string{})

	v.SetDefault("pending.enabled", d.Pending.Enabled)
	v.SetDefault("pending.cron", d.Pending.Cron)
	v.SetDefault("pending.run_on_start", false)
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	if _, err := c.Engine.Settings(); err != nil {
		return err
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Pending.Enabled && strings.TrimSpace(c.Pending.Cron) == "" {
		return errors.New("pending.cron is required when pending re-evaluation is enabled")
	}
	return nil
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Logger converts the logging section to a logger configuration.
func (c *LoggingConfig) Logger() logger.Config {
	return logger.Config{
		Level:      c.Level,
		Format:     c.Format,
		Path:       c.Path,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
		Recent:     c.Recent,
	}
}

// Settings converts the engine section to decision settings.
func (c *EngineConfig) Settings() (decisioning.Settings, error) {
	s := decisioning.Settings{
		UsenetDelay:    c.UsenetDelay,
		TorrentDelay:   c.TorrentDelay,
		RetentionDays:  c.RetentionDays,
		MinimumSeeders: c.MinimumSeeders,
		RequiredTerms:  c.RequiredTerms,
		IgnoredTerms:   c.IgnoredTerms,
	}

	switch p := types.Protocol(strings.ToLower(c.PreferredProtocol)); p {
	case "", types.ProtocolUsenet, types.ProtocolTorrent:
		s.PreferredProtocol = p
	default:
		return s, fmt.Errorf("engine.preferred_protocol: unknown protocol %q", c.PreferredProtocol)
	}

	var err error
	if s.MinimumSize, err = parseSize("engine.minimum_size", c.MinimumSize); err != nil {
		return s, err
	}
	if s.MaximumSize, err = parseSize("engine.maximum_size", c.MaximumSize); err != nil {
		return s, err
	}
	return s, nil
}

// Options converts the engine section to engine options.
func (c *EngineConfig) Options() (decisioning.Options, error) {
	settings, err := c.Settings()
	if err != nil {
		return decisioning.Options{}, err
	}
	return decisioning.Options{Workers: c.Workers, Settings: settings}, nil
}

func parseSize(key, value string) (int64, error) {
	if strings.TrimSpace(value) == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return int64(n), nil
}
