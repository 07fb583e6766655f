package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != "sqlite3" {
		t.Fatalf("expected sqlite3 storage, got %q", cfg.Storage.Driver)
	}
	if cfg.ResultsDriver() != "sqlite3" || cfg.ResultsDSN() != cfg.Storage.DSN {
		t.Fatalf("results should follow storage, got %q %q", cfg.ResultsDriver(), cfg.ResultsDSN())
	}
	if cfg.Results.Retention != 90*24*time.Hour {
		t.Fatalf("unexpected retention %v", cfg.Results.Retention)
	}
	if got := cfg.GameNames(); len(got) != 2 || got[0] != "match" || got[1] != "translate" {
		t.Fatalf("unexpected games %v", got)
	}
	match, ok := cfg.Game("match")
	if !ok || !match.PrioritizeOrDefault() {
		t.Fatalf("expected match game with prioritization, got %#v", match)
	}
}

func TestLoadFromEnv(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())
	t.Cleanup(viper.Reset)
	t.Setenv("LVGAMES_STORAGE_DRIVER", "redis")
	t.Setenv("LVGAMES_LOG_LEVEL", "debug")
	t.Setenv("LVGAMES_DATA_BASE_URL", "https://example.com/lv/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != "redis" || cfg.ResultsDriver() != "memory" {
		t.Fatalf("unexpected drivers %q %q", cfg.Storage.Driver, cfg.ResultsDriver())
	}
	if cfg.Log.Level != "debug" || cfg.Data.BaseURL != "https://example.com/lv/" {
		t.Fatalf("env overrides not applied: %#v", cfg)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Storage: StorageConfig{Driver: "memory"},
			Games:   []GameConfig{{Name: "match"}},
		}
	}

	cfg := valid()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config: %v", err)
	}

	cases := map[string]func(*Config){
		"storage driver": func(c *Config) { c.Storage.Driver = "mongo" },
		"results driver": func(c *Config) { c.Results.Driver = "redis" },
		"no games":       func(c *Config) { c.Games = nil },
		"empty name":     func(c *Config) { c.Games = []GameConfig{{Name: " "}} },
		"underscore":     func(c *Config) { c.Games = []GameConfig{{Name: "word_match"}} },
		"duplicate":      func(c *Config) { c.Games = []GameConfig{{Name: "a"}, {Name: "a"}} },
	}
	for name, mutate := range cases {
		cfg := valid()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
