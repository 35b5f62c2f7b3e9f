// Package config loads runtime settings with viper: built-in defaults,
// then an optional YAML file, then VCQ_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/query"
	"github.com/roach88/vcq/internal/tx"
)

// EnvPrefix prefixes environment overrides, e.g. VCQ_STORAGE_BACKEND.
const EnvPrefix = "VCQ"

// Storage backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

type Config struct {
	Query   QueryConfig   `mapstructure:"query"`
	Storage StorageConfig `mapstructure:"storage"`
	Batch   BatchConfig   `mapstructure:"batch"`
	Graph   GraphConfig   `mapstructure:"graph"`
	Log     LogConfig     `mapstructure:"log"`
}

type QueryConfig struct {
	HardMaxLimit         int  `mapstructure:"hard_max_limit"`
	DirectionMultiplier  int  `mapstructure:"direction_multiplier"`
	ModificationSlack    int  `mapstructure:"modification_slack"`
	MaxSortIteration     int  `mapstructure:"max_sort_iteration"`
	IgnoreUndefinedTypes bool `mapstructure:"ignore_undefined_types"`
}

type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	// Path is the SQLite file or badger directory. Empty means in-memory.
	Path string `mapstructure:"path"`
}

type BatchConfig struct {
	// Workers bounds concurrent reads of a multi-vertex prefetch on
	// stores without native multi-key slices.
	Workers int `mapstructure:"workers"`
}

type GraphConfig struct {
	// Representatives is the number of representatives of a partitioned vertex.
	Representatives int `mapstructure:"representatives"`
	// LocalPartitions restricts partitioned fan-out to these representative
	// indexes. Empty means all.
	LocalPartitions []int `mapstructure:"local_partitions"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults installs the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	l := query.DefaultLimits()
	v.SetDefault("query.hard_max_limit", l.HardMaxLimit)
	v.SetDefault("query.direction_multiplier", l.DirectionMultiplier)
	v.SetDefault("query.modification_slack", l.ModificationSlack)
	v.SetDefault("query.max_sort_iteration", l.MaxSortIteration)
	v.SetDefault("query.ignore_undefined_types", true)
	v.SetDefault("storage.backend", BackendMemory)
	v.SetDefault("storage.path", "")
	v.SetDefault("batch.workers", 8)
	v.SetDefault("graph.representatives", 4)
	v.SetDefault("graph.local_partitions", []int{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (if non-empty) into v and decodes the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with no file and no environment.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: defaults do not decode: %v", err))
	}
	return &cfg
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Query.HardMaxLimit <= 0 {
		errs = append(errs, errors.New("query.hard_max_limit must be positive"))
	}
	if c.Query.DirectionMultiplier < 1 {
		errs = append(errs, errors.New("query.direction_multiplier must be at least 1"))
	}
	if c.Query.ModificationSlack < 0 {
		errs = append(errs, errors.New("query.modification_slack must not be negative"))
	}
	if c.Query.MaxSortIteration <= 0 {
		errs = append(errs, errors.New("query.max_sort_iteration must be positive"))
	}
	switch c.Storage.Backend {
	case BackendMemory, BackendSQLite, BackendBadger:
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q must be one of memory, sqlite, badger", c.Storage.Backend))
	}
	if c.Storage.Backend == BackendSQLite && c.Storage.Path == "" {
		errs = append(errs, errors.New("storage.path is required for the sqlite backend"))
	}
	if c.Batch.Workers < 1 {
		errs = append(errs, errors.New("batch.workers must be at least 1"))
	}
	if c.Graph.Representatives < 1 || c.Graph.Representatives > graph.MaxRepresentatives {
		errs = append(errs, fmt.Errorf("graph.representatives must be in [1,%d]", graph.MaxRepresentatives))
	}
	for _, p := range c.Graph.LocalPartitions {
		if p < 0 || p >= c.Graph.Representatives {
			errs = append(errs, fmt.Errorf("graph.local_partitions: %d is not a representative index", p))
		}
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Limits returns the query limit settings.
func (c *Config) Limits() query.Limits {
	return query.Limits{
		HardMaxLimit:        c.Query.HardMaxLimit,
		DirectionMultiplier: c.Query.DirectionMultiplier,
		ModificationSlack:   c.Query.ModificationSlack,
		MaxSortIteration:    c.Query.MaxSortIteration,
	}
}

// GraphOptions returns the options a graph is opened with.
func (c *Config) GraphOptions() tx.Options {
	return tx.Options{
		Representatives:      c.Graph.Representatives,
		LocalPartitions:      c.Graph.LocalPartitions,
		Workers:              c.Batch.Workers,
		Limits:               c.Limits(),
		IgnoreUndefinedTypes: c.Query.IgnoreUndefinedTypes,
	}
}

// SlogLevel parses the configured level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", l.Level, err)
	}
	return lvl, nil
}
