package config

import (
	"fmt"
	"time"
)

// Config holds service configuration.
type Config struct {
	ListenAddr  string
	MetricsAddr string

	// DatabaseDSN selects postgres when set; otherwise the service
	// falls back to a local sqlite file at SQLitePath.
	DatabaseDSN string
	SQLitePath  string

	ScrapeInterval  time.Duration
	SearchRotation  []string
	ResultsPerQuery int
	QueryDelay      time.Duration
	ScrapeCooldown  time.Duration

	ScrapeTimeout   time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
	RetryBackoffMax time.Duration
	UserAgent       string

	Verbose bool
}

// DefaultConfig returns conservative defaults for local development.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:     ":8000",
		MetricsAddr:    "",
		DatabaseDSN:    "",
		SQLitePath:     "data/bookflipfinder.db",
		ScrapeInterval: 6 * time.Hour,
		SearchRotation: []string{
			"python programming",
			"data science",
			"machine learning",
			"web development",
			"javascript",
			"artificial intelligence",
		},
		ResultsPerQuery: 10,
		QueryDelay:      2 * time.Second,
		ScrapeCooldown:  15 * time.Minute,
		ScrapeTimeout:   10 * time.Second,
		MaxRetries:      2,
		RetryBackoff:    200 * time.Millisecond,
		RetryBackoffMax: 2 * time.Second,
		UserAgent:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		Verbose:         false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if c.DatabaseDSN == "" && c.SQLitePath == "" {
		return fmt.Errorf("either a database DSN or a sqlite path is required")
	}
	if c.ScrapeInterval <= 0 {
		return fmt.Errorf("scrape interval must be positive")
	}
	if len(c.SearchRotation) == 0 {
		return fmt.Errorf("search rotation cannot be empty")
	}
	if c.ResultsPerQuery <= 0 {
		return fmt.Errorf("results per query must be positive")
	}
	if c.QueryDelay < 0 {
		return fmt.Errorf("query delay cannot be negative")
	}
	if c.ScrapeCooldown < 0 {
		return fmt.Errorf("scrape cooldown cannot be negative")
	}
	if c.ScrapeTimeout <= 0 {
		return fmt.Errorf("scrape timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	return nil
}
