// Package config loads the worker and starter settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Run modes understood by main.
const (
	RunModeWorker   = "WORKER"
	RunModeStarter  = "STARTER"
	RunModeCombined = ""
)

// Config holds the process settings
type Config struct {
	RunMode  string         `yaml:"runMode" validate:"omitempty,oneof=WORKER STARTER"`
	LogLevel string         `yaml:"logLevel" validate:"omitempty,oneof=debug info warn error"`
	Temporal TemporalConfig `yaml:"temporal"`
	Storage  StorageConfig  `yaml:"storage"`
	Cache    CacheConfig    `yaml:"cache"`
	// WorkflowFile is the document the starter publishes. Empty publishes the sample.
	WorkflowFile string `yaml:"workflowFile"`
}

type TemporalConfig struct {
	HostPort  string `yaml:"hostPort" validate:"required,hostname_port"`
	Namespace string `yaml:"namespace" validate:"required"`
	TaskQueue string `yaml:"taskQueue" validate:"required"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" validate:"required,oneof=memory sqlite"`
	Path   string `yaml:"path" validate:"required_if=Driver sqlite"`
}

type CacheConfig struct {
	Size int64         `yaml:"size" validate:"gte=0"`
	TTL  time.Duration `yaml:"ttl" validate:"gte=0"`
}

// Default returns the settings used when no file is given
func Default() Config {
	return Config{
		LogLevel: "info",
		Temporal: TemporalConfig{
			HostPort:  "localhost:7233",
			Namespace: "default",
			TaskQueue: "approval-flow-task-queue",
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   "approval-flow.db",
		},
		Cache: CacheConfig{
			Size: 1024,
			TTL:  10 * time.Minute,
		},
	}
}

var validate = validator.New()

// Load reads the YAML file at path over the defaults, applies environment overrides and
// validates the result. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config file %q: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to unmarshal config file %q: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	overrides := map[string]*string{
		"RUN_MODE":           &cfg.RunMode,
		"LOG_LEVEL":          &cfg.LogLevel,
		"TEMPORAL_HOST_PORT": &cfg.Temporal.HostPort,
		"TEMPORAL_NAMESPACE": &cfg.Temporal.Namespace,
		"TASK_QUEUE":         &cfg.Temporal.TaskQueue,
		"STORAGE_DRIVER":     &cfg.Storage.Driver,
		"STORAGE_PATH":       &cfg.Storage.Path,
		"WORKFLOW_FILE":      &cfg.WorkflowFile,
	}
	for key, target := range overrides {
		if v, ok := lookup(key); ok {
			*target = v
		}
	}

	if v, ok := lookup("CACHE_SIZE"); ok {
		size, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid CACHE_SIZE %q: %w", v, err)
		}
		cfg.Cache.Size = size
	}
	if v, ok := lookup("CACHE_TTL"); ok {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CACHE_TTL %q: %w", v, err)
		}
		cfg.Cache.TTL = ttl
	}
	return nil
}
