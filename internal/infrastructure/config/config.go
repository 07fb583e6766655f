package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "LVGAMES"

// Config holds all configuration for our application
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Results ResultsConfig `mapstructure:"results"`
	Data    DataConfig    `mapstructure:"data"`
	Log     LogConfig     `mapstructure:"log"`
	Games   []GameConfig  `mapstructure:"games"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StorageConfig selects where game progress is persisted.
type StorageConfig struct {
	Driver string      `mapstructure:"driver"`
	DSN    string      `mapstructure:"dsn"`
	LogSQL bool        `mapstructure:"log_sql"`
	Redis  RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds the redis connection used by the redis storage driver.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	Namespace string `mapstructure:"namespace"`
}

// ResultsConfig selects where finished sessions are logged and how long they are kept.
type ResultsConfig struct {
	Driver        string        `mapstructure:"driver"`
	DSN           string        `mapstructure:"dsn"`
	Retention     time.Duration `mapstructure:"retention"`
	PruneInterval time.Duration `mapstructure:"prune_interval"`
}

// DataConfig describes where vocabulary is loaded from.
type DataConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Path      string        `mapstructure:"path"`
	ItemsPath string        `mapstructure:"items_path"`
	File      string        `mapstructure:"file"`
	Excel     string        `mapstructure:"excel"`
	Sheet     string        `mapstructure:"sheet"`
	Embedded  string        `mapstructure:"embedded"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GameConfig declares one game and the scheduler settings it starts with.
type GameConfig struct {
	Name             string `mapstructure:"name"`
	Filter           string `mapstructure:"filter"`
	Mode             string `mapstructure:"mode"`
	Lang             string `mapstructure:"lang"`
	Prioritize       *bool  `mapstructure:"prioritize"`
	LockedSize       int    `mapstructure:"locked_size"`
	BoardSize        int    `mapstructure:"board_size"`
	LookaheadTurns   int    `mapstructure:"lookahead_turns"`
	MaxPriorityChain int    `mapstructure:"max_priority_chain"`
	RecentSets       int    `mapstructure:"recent_sets"`
}

// PrioritizeOrDefault reports whether mistakes are bumped; unset means yes.
func (g GameConfig) PrioritizeOrDefault() bool {
	return g.Prioritize == nil || *g.Prioritize
}

// Load reads configuration from .env, an optional lvgames config file and
// LVGAMES_* environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	viper.SetConfigName("lvgames")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set default values
	setDefaults()

	// Enable reading from environment variables
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read configuration file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("server.cors_origins", []string{"*"})
	viper.SetDefault("server.shutdown_timeout", "10s")

	// Storage defaults
	viper.SetDefault("storage.driver", "sqlite3")
	viper.SetDefault("storage.dsn", "file:lvgames.db?_fk=1")
	viper.SetDefault("storage.log_sql", false)
	viper.SetDefault("storage.redis.addr", "localhost:6379")
	viper.SetDefault("storage.redis.db", 0)
	viper.SetDefault("storage.redis.namespace", "lvgames")

	// Results defaults; an empty driver follows storage.driver.
	viper.SetDefault("results.driver", "")
	viper.SetDefault("results.dsn", "")
	viper.SetDefault("results.retention", "2160h")
	viper.SetDefault("results.prune_interval", "1h")

	// Data defaults
	viper.SetDefault("data.base_url", "")
	viper.SetDefault("data.path", "data/words.json")
	viper.SetDefault("data.items_path", "")
	viper.SetDefault("data.timeout", "10s")

	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")

	viper.SetDefault("games", []map[string]any{
		{"name": "match", "filter": "'match' in games || size(games) == 0", "mode": "locked", "lang": "en"},
		{"name": "translate", "filter": "'translate' in games", "mode": "random", "lang": "en", "board_size": 1},
	})
}

var (
	storageDrivers = []string{"memory", "sqlite3", "postgres", "redis"}
	resultDrivers  = []string{"memory", "sqlite3", "postgres"}
)

// Validate checks driver names and game declarations.
func (c *Config) Validate() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if !contains(storageDrivers, c.Storage.Driver) {
		return fmt.Errorf("unsupported storage driver %q (want one of %s)", c.Storage.Driver, strings.Join(storageDrivers, ", "))
	}
	if driver := c.ResultsDriver(); !contains(resultDrivers, driver) {
		return fmt.Errorf("unsupported results driver %q (want one of %s)", driver, strings.Join(resultDrivers, ", "))
	}
	if len(c.Games) == 0 {
		return errors.New("no games configured")
	}
	seen := make(map[string]struct{}, len(c.Games))
	for i := range c.Games {
		name := strings.TrimSpace(c.Games[i].Name)
		if name == "" {
			return fmt.Errorf("game #%d has no name", i+1)
		}
		if strings.ContainsAny(name, "_*?[] ") {
			return fmt.Errorf("game name %q must not contain underscores, spaces or glob characters", name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("game %q configured twice", name)
		}
		seen[name] = struct{}{}
		c.Games[i].Name = name
	}
	return nil
}

// ResultsDriver returns the driver of the result log. It follows the storage
// driver when unset, with redis falling back to memory.
func (c *Config) ResultsDriver() string {
	driver := strings.ToLower(strings.TrimSpace(c.Results.Driver))
	if driver != "" {
		return driver
	}
	if c.Storage.Driver == "redis" {
		return "memory"
	}
	return c.Storage.Driver
}

// ResultsDSN returns the DSN of the result log, defaulting to the storage DSN.
func (c *Config) ResultsDSN() string {
	if dsn := strings.TrimSpace(c.Results.DSN); dsn != "" {
		return dsn
	}
	return c.Storage.DSN
}

// GameNames lists the configured game names in declaration order.
func (c *Config) GameNames() []string {
	names := make([]string, len(c.Games))
	for i, g := range c.Games {
		names[i] = g.Name
	}
	return names
}

// Game returns the declaration of name.
func (c *Config) Game(name string) (GameConfig, bool) {
	for _, g := range c.Games {
		if g.Name == name {
			return g, true
		}
	}
	return GameConfig{}, false
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
