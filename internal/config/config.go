// Package config holds plantbot's runtime configuration.
//
// Values come from DefaultConfig, then PLANTBOT_* environment variables,
// then command-line flags (applied by the cli package).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/HendryAvila/plantbot/internal/blob"
	"github.com/HendryAvila/plantbot/internal/history"
	"github.com/HendryAvila/plantbot/internal/model"
	"github.com/HendryAvila/plantbot/internal/synth"
)

// Config holds every tunable of the program.
type Config struct {
	DataDir       string
	StorageDriver string // fs | s3 | memory
	S3            blob.S3Config
	HistoryDriver string // json | sqlite | postgres
	PostgresDSN   string

	SampleCount int
	Trees       int
	Seed        uint64
	MaxDepth    int // 0 means unlimited

	AsyncRetrain bool
	MetricsAddr  string // empty disables the /metrics listener
}

// DefaultConfig returns the defaults: local files under ~/.plantbot, JSON
// history, 2000 samples, 100 trees, seed 42.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:       filepath.Join(home, ".plantbot"),
		StorageDriver: string(blob.DriverFilesystem),
		HistoryDriver: string(history.DriverJSON),
		SampleCount:   synth.DefaultCount,
		Trees:         100,
		Seed:          42,
	}
}

// FromEnv returns DefaultConfig overridden by the environment.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()
	cfg.S3 = blob.S3ConfigFromEnv()

	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	str("PLANTBOT_DATA_DIR", &cfg.DataDir)
	str("PLANTBOT_STORAGE", &cfg.StorageDriver)
	str("PLANTBOT_HISTORY", &cfg.HistoryDriver)
	str("PLANTBOT_POSTGRES_DSN", &cfg.PostgresDSN)
	str("PLANTBOT_METRICS_ADDR", &cfg.MetricsAddr)

	ints := []struct {
		key string
		dst *int
	}{
		{"PLANTBOT_SAMPLES", &cfg.SampleCount},
		{"PLANTBOT_TREES", &cfg.Trees},
		{"PLANTBOT_MAX_DEPTH", &cfg.MaxDepth},
	}
	for _, e := range ints {
		v := strings.TrimSpace(os.Getenv(e.key))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", e.key, err)
		}
		*e.dst = n
	}

	if v := strings.TrimSpace(os.Getenv("PLANTBOT_SEED")); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("config: PLANTBOT_SEED: %w", err)
		}
		cfg.Seed = n
	}
	if v := strings.TrimSpace(os.Getenv("PLANTBOT_ASYNC_RETRAIN")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: PLANTBOT_ASYNC_RETRAIN: %w", err)
		}
		cfg.AsyncRetrain = b
	}
	return cfg, nil
}

// Validate rejects unknown drivers and non-positive sizes.
func (c Config) Validate() error {
	storage, err := blob.ParseDriver(c.StorageDriver)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if storage == blob.DriverS3 && c.S3.Bucket == "" {
		return fmt.Errorf("config: s3 storage needs PLANTBOT_S3_BUCKET")
	}
	if storage == blob.DriverFilesystem && c.DataDir == "" {
		return fmt.Errorf("config: data dir is required for fs storage")
	}
	hist, err := history.ParseDriver(c.HistoryDriver)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if hist == history.DriverPostgres && c.PostgresDSN == "" {
		return fmt.Errorf("config: postgres history needs PLANTBOT_POSTGRES_DSN")
	}
	if hist == history.DriverSQLite && c.DataDir == "" {
		return fmt.Errorf("config: data dir is required for sqlite history")
	}
	if c.SampleCount <= 0 {
		return fmt.Errorf("config: sample count must be positive, got %d", c.SampleCount)
	}
	if c.Trees <= 0 {
		return fmt.Errorf("config: tree count must be positive, got %d", c.Trees)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("config: max depth must be >= 0, got %d", c.MaxDepth)
	}
	return nil
}

// BlobOptions selects the document store. Call after Validate.
func (c Config) BlobOptions() blob.Options {
	d, _ := blob.ParseDriver(c.StorageDriver)
	return blob.Options{Driver: d, Dir: c.DataDir, S3: c.S3}
}

// HistoryOptions selects the history backend over blobs. Call after Validate.
func (c Config) HistoryOptions(blobs blob.Store) history.Options {
	d, _ := history.ParseDriver(c.HistoryDriver)
	return history.Options{Driver: d, DataDir: c.DataDir, PostgresDSN: c.PostgresDSN, Blobs: blobs}
}

// ModelOptions returns the training options.
func (c Config) ModelOptions() model.Options {
	return model.Options{
		Samples:  c.SampleCount,
		Trees:    c.Trees,
		Seed:     c.Seed,
		MaxDepth: c.MaxDepth,
	}
}
