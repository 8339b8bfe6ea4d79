package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// BuildConfigFile is the optional tunables file read from the working
// directory.
const BuildConfigFile = "siteforge.build.yaml"

// BuildConfig contains all tunable optimization parameters.
// These can be overridden via siteforge.build.yaml.
type BuildConfig struct {
	// Worker settings
	MaxWorkers   int `yaml:"maxWorkers"`   // Maximum worker pool size (default: 32)
	HTMLWorkers  int `yaml:"htmlWorkers"`  // Parallel HTML minification workers (default: 12)
	ImageWorkers int `yaml:"imageWorkers"` // Parallel image encoding workers (default: 8)

	// Limits
	MaxFileSize int `yaml:"maxFileSize"` // Max file size to load in memory (default: 50MB)

	// Timeouts
	ShutdownTimeout  time.Duration `yaml:"shutdownTimeout"`  // Server shutdown timeout (default: 5s)
	DebounceDuration time.Duration `yaml:"debounceDuration"` // File watcher debounce (default: 500ms)
	FetchTimeout     time.Duration `yaml:"fetchTimeout"`     // Install-time asset fetch timeout (default: 30s)
	StoreTimeout     time.Duration `yaml:"storeTimeout"`     // BoltDB open timeout (default: 10s)

	// Service worker
	Precache    []string `yaml:"precache"`    // Extra manifest entries beyond the core assets
	WebPQuality float32  `yaml:"webpQuality"` // WebP encode quality (default: 80)

	// Site identity, used by the web manifest
	SiteName        string `yaml:"siteName"`
	SiteDescription string `yaml:"siteDescription"`
}

// DefaultBuildConfig returns the default optimization configuration.
func DefaultBuildConfig() *BuildConfig {
	return &BuildConfig{
		MaxWorkers:   32,
		HTMLWorkers:  12,
		ImageWorkers: 8,

		MaxFileSize: 50 * 1024 * 1024, // 50MB

		ShutdownTimeout:  5 * time.Second,
		DebounceDuration: 500 * time.Millisecond,
		FetchTimeout:     30 * time.Second,
		StoreTimeout:     10 * time.Second,

		WebPQuality: 80,

		SiteName:        "siteforge site",
		SiteDescription: "An offline-ready static site",
	}
}

// LoadBuildConfig loads configuration from siteforge.build.yaml.
// Returns defaults if the file doesn't exist or fails to parse.
func LoadBuildConfig() *BuildConfig {
	cfg := DefaultBuildConfig()

	data, err := os.ReadFile(BuildConfigFile)
	if err != nil {
		return cfg
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return DefaultBuildConfig()
	}

	cfg.validate()
	return cfg
}

// validate clamps configuration values to reasonable bounds.
func (c *BuildConfig) validate() {
	if c.MaxWorkers < 1 {
		c.MaxWorkers = 1
	}
	if c.MaxWorkers > 256 {
		c.MaxWorkers = 256
	}
	if c.HTMLWorkers < 1 {
		c.HTMLWorkers = 1
	}
	if c.HTMLWorkers > c.MaxWorkers {
		c.HTMLWorkers = c.MaxWorkers
	}
	if c.ImageWorkers < 1 {
		c.ImageWorkers = 1
	}
	if c.ImageWorkers > 64 {
		c.ImageWorkers = 64
	}

	if c.MaxFileSize < 1024 {
		c.MaxFileSize = 1024
	}

	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	if c.DebounceDuration <= 0 {
		c.DebounceDuration = 500 * time.Millisecond
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 30 * time.Second
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = 10 * time.Second
	}

	if c.WebPQuality <= 0 || c.WebPQuality > 100 {
		c.WebPQuality = 80
	}

	if c.SiteName == "" {
		c.SiteName = "siteforge site"
	}
	if c.SiteDescription == "" {
		c.SiteDescription = "An offline-ready static site"
	}
}
