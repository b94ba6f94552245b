package core

import (
	"fmt"
	"strings"
	"time"
)

type VerificationConfig struct {
	NonceTTL     time.Duration `koanf:"nonce_ttl" mapstructure:"nonce_ttl"`
	InitialDelay time.Duration `koanf:"initial_delay" mapstructure:"initial_delay"`
	RetryDelay   time.Duration `koanf:"retry_delay" mapstructure:"retry_delay"`
	MaxRetries   int           `koanf:"max_retries" mapstructure:"max_retries"`
	FeedPageSize int           `koanf:"feed_page_size" mapstructure:"feed_page_size"`
	Concurrency  int           `koanf:"concurrency" mapstructure:"concurrency"`
}

type ManifestConfig struct {
	FetchTimeout    time.Duration `koanf:"fetch_timeout" mapstructure:"fetch_timeout"`
	MaxBytes        int64         `koanf:"max_bytes" mapstructure:"max_bytes"`
	RefreshInterval time.Duration `koanf:"refresh_interval" mapstructure:"refresh_interval"`
	Concurrency     int           `koanf:"concurrency" mapstructure:"concurrency"`
}

type Config struct {
	ServiceName  string             `koanf:"service_name" mapstructure:"service_name"`
	Verification VerificationConfig `koanf:"verification" mapstructure:"verification"`
	Manifest     ManifestConfig     `koanf:"manifest" mapstructure:"manifest"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "botdir",
		Verification: VerificationConfig{
			NonceTTL:     15 * time.Minute,
			InitialDelay: 30 * time.Second,
			RetryDelay:   60 * time.Second,
			MaxRetries:   10,
			FeedPageSize: 30,
			Concurrency:  3,
		},
		Manifest: ManifestConfig{
			FetchTimeout:    15 * time.Second,
			MaxBytes:        512 * 1024,
			RefreshInterval: 6 * time.Hour,
			Concurrency:     5,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Verification.NonceTTL <= 0 {
		return fmt.Errorf("core: verification.nonce_ttl must be positive")
	}
	if c.Verification.MaxRetries < 1 {
		return fmt.Errorf("core: verification.max_retries must be at least 1")
	}
	if c.Verification.FeedPageSize < 1 {
		return fmt.Errorf("core: verification.feed_page_size must be at least 1")
	}
	if c.Manifest.FetchTimeout <= 0 {
		return fmt.Errorf("core: manifest.fetch_timeout must be positive")
	}
	if c.Manifest.MaxBytes <= 0 {
		return fmt.Errorf("core: manifest.max_bytes must be positive")
	}
	return nil
}
