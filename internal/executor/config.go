package executor

import "time"

// Config controls the scheduled-action sweep loop. A sweep always picks
// up every row that is due; MaxConcurrency bounds how many execute at
// once, not how many are selected.
type Config struct {
	PollInterval   time.Duration
	MaxConcurrency int
	RunTimeout     time.Duration
}

func DefaultConfig() Config {
	return Config{
		PollInterval:   time.Minute,
		MaxConcurrency: 4,
		RunTimeout:     45 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = defaults.PollInterval
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = defaults.MaxConcurrency
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = defaults.RunTimeout
	}
	return c
}
