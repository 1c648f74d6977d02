package snapshot

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"histodb/codec"
	"histodb/window"
)

type StoreConfig struct {
	// Path of the badger directory, ignored when InMemory is set.
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`

	CacheEnabled     bool  `yaml:"cache_enabled"`
	CacheNumCounters int64 `yaml:"cache_num_counters"`
	CacheMaxCost     int64 `yaml:"cache_max_cost"`

	Codec string `yaml:"codec"`
	// Workers bounds the fill pipeline; 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`

	// Compaction is the window layout Compact folds shards into.
	Compaction window.Config `yaml:"compaction"`
}

func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		InMemory:         true,
		CacheEnabled:     true,
		CacheNumCounters: 1e6,
		CacheMaxCost:     1 << 28,
		Codec:            codec.Msgpack,
		Compaction: window.Config{
			Kind: window.Exponential,
			Base: 2,
		},
	}
}

func (config StoreConfig) Validate() error {
	var errs error
	if !config.InMemory && config.Path == "" {
		errs = multierr.Append(errs, errors.New("path is required unless in_memory is set"))
	}
	if config.CacheEnabled {
		if config.CacheNumCounters <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("cache_num_counters must be positive, got %d", config.CacheNumCounters))
		}
		if config.CacheMaxCost <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("cache_max_cost must be positive, got %d", config.CacheMaxCost))
		}
	}
	if _, err := codec.ByName(config.Codec); err != nil {
		errs = multierr.Append(errs, err)
	}
	if config.Workers < 0 {
		errs = multierr.Append(errs, fmt.Errorf("workers must not be negative, got %d", config.Workers))
	}
	if err := config.Compaction.Validate(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("compaction: %w", err))
	}
	return errs
}

// ParseStoreConfig reads YAML over the defaults and validates the result.
func ParseStoreConfig(buf []byte) (StoreConfig, error) {
	config := DefaultStoreConfig()
	if err := yaml.Unmarshal(buf, &config); err != nil {
		return StoreConfig{}, err
	}
	if err := config.Validate(); err != nil {
		return StoreConfig{}, err
	}
	return config, nil
}

func LoadStoreConfig(path string) (StoreConfig, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return StoreConfig{}, err
	}
	return ParseStoreConfig(buf)
}
