package tasks

import (
	"time"

	"github.com/mrlokans/papersync/internal/config"
)

// Config holds configuration for the task queue system.
type Config struct {
	// Workers is the number of concurrent task workers. Default: 1
	Workers int

	// ReleaseAfter is when stuck tasks are released back to queue. Default: 30m
	ReleaseAfter time.Duration

	// CleanupInterval is how often to clean up completed tasks. Default: 1h
	CleanupInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults. A single worker
// keeps queued passes from competing with each other.
func DefaultConfig() Config {
	return Config{
		Workers:         1,
		ReleaseAfter:    30 * time.Minute,
		CleanupInterval: 1 * time.Hour,
	}
}

// ConfigFrom fills a Config from application settings, keeping defaults for
// unset values.
func ConfigFrom(c config.Tasks) Config {
	cfg := DefaultConfig()
	if c.Workers > 0 {
		cfg.Workers = c.Workers
	}
	if c.ReleaseAfter > 0 {
		cfg.ReleaseAfter = c.ReleaseAfter
	}
	if c.CleanupInterval > 0 {
		cfg.CleanupInterval = c.CleanupInterval
	}
	return cfg
}
