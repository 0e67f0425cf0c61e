package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MUDCORE_"

// Server holds all configuration of the mudcore server.
type Server struct {
	LogLevel     string        `yaml:"log_level" env:"LOG_LEVEL"`
	TickInterval time.Duration `yaml:"tick_interval" env:"TICK_INTERVAL"`

	Catalog    CatalogConfig    `yaml:"catalog" envPrefix:"CATALOG_"`
	Database   DatabaseConfig   `yaml:"database" envPrefix:"DB_"`
	Redis      RedisConfig      `yaml:"redis" envPrefix:"REDIS_"`
	Parser     ParserConfig     `yaml:"parser" envPrefix:"PARSER_"`
	Dispatcher DispatcherConfig `yaml:"dispatcher" envPrefix:"DISPATCHER_"`
	Scripts    ScriptsConfig    `yaml:"scripts" envPrefix:"SCRIPTS_"`
}

// CatalogConfig selects where abilities and effects are loaded from.
type CatalogConfig struct {
	// Source is "yaml" or "postgres".
	Source string `yaml:"source" env:"SOURCE"`
	Path   string `yaml:"path" env:"PATH"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	DBName   string `yaml:"dbname" env:"NAME"`
	SSLMode  string `yaml:"sslmode" env:"SSLMODE"`
	MaxConns int32  `yaml:"max_conns" env:"MAX_CONNS"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// RedisConfig configures the Redis cooldown store. When disabled,
// cooldowns live in process memory.
type RedisConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Addr      string `yaml:"addr" env:"ADDR"`
	Password  string `yaml:"password" env:"PASSWORD"`
	DB        int    `yaml:"db" env:"DB"`
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`
}

// ParserConfig mirrors parser.Config.
type ParserConfig struct {
	Quotes          string   `yaml:"quotes" env:"QUOTES"`
	Escape          string   `yaml:"escape" env:"ESCAPE"`
	CommentPrefixes []string `yaml:"comment_prefixes" env:"COMMENT_PREFIXES" envSeparator:","`
	MinAbbrev       int      `yaml:"min_abbrev" env:"MIN_ABBREV"`
	MaxEditDistance int      `yaml:"max_edit_distance" env:"MAX_EDIT_DISTANCE"`
}

// DispatcherConfig tunes the command dispatcher and effect execution.
type DispatcherConfig struct {
	HistorySize int           `yaml:"history_size" env:"HISTORY_SIZE"`
	QueueSize   int           `yaml:"queue_size" env:"QUEUE_SIZE"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	// FailurePolicy is "accumulate" or "fail_fast".
	FailurePolicy string `yaml:"failure_policy" env:"FAILURE_POLICY"`
}

// ScriptsConfig points at Lua trigger scripts. Every *.lua file in Dir is
// loaded as a trigger named after the file.
type ScriptsConfig struct {
	Dir string `yaml:"dir" env:"DIR"`
}

// DefaultServer returns Server config with sensible defaults.
func DefaultServer() Server {
	return Server{
		LogLevel:     "info",
		TickInterval: 2 * time.Second,
		Catalog: CatalogConfig{
			Source: "yaml",
			Path:   "data/catalog.yaml",
		},
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "mudcore",
			Password: "mudcore",
			DBName:   "mudcore",
			SSLMode:  "disable",
			MaxConns: 10,
		},
		Redis: RedisConfig{
			Addr:      "127.0.0.1:6379",
			KeyPrefix: "mudcore:cd:",
		},
		Parser: ParserConfig{
			Quotes:          `"'`,
			Escape:          `\`,
			CommentPrefixes: []string{"#"},
			MinAbbrev:       1,
			MaxEditDistance: 2,
		},
		Dispatcher: DispatcherConfig{
			HistorySize:   20,
			QueueSize:     32,
			IdleTimeout:   time.Minute,
			FailurePolicy: "accumulate",
		},
		Scripts: ScriptsConfig{
			Dir: "data/scripts",
		},
	}
}

// LoadServer loads server config from a YAML file, then applies MUDCORE_*
// environment overrides. If the file doesn't exist, defaults are used.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (s Server) Validate() error {
	switch strings.ToLower(s.Catalog.Source) {
	case "yaml", "postgres":
	default:
		return fmt.Errorf("catalog.source must be yaml or postgres, got %q", s.Catalog.Source)
	}
	switch strings.ToLower(s.Dispatcher.FailurePolicy) {
	case "accumulate", "fail_fast":
	default:
		return fmt.Errorf("dispatcher.failure_policy must be accumulate or fail_fast, got %q", s.Dispatcher.FailurePolicy)
	}
	if s.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", s.TickInterval)
	}
	if len([]rune(s.Parser.Escape)) > 1 {
		return fmt.Errorf("parser.escape must be a single character, got %q", s.Parser.Escape)
	}
	return nil
}
