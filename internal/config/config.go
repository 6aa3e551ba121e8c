package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Slide sources. One of SlidesDir, SlidesURL or BundlePath must be
	// set; BundlePath wins when several are.
	SlidesDir  string
	SlidesURL  string
	BundlePath string
	SlideCount int

	// Durable local cache.
	CachePath string

	// Editing mode. Empty token disables the editing endpoints.
	AdminToken string

	// Default slide-display container size used when the client does
	// not report its viewport.
	ViewportWidth  float64
	ViewportHeight float64

	// Initial annotation load.
	LoadTimeout time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8085"),

		SlidesDir:  os.Getenv("SLIDES_DIR"),
		SlidesURL:  os.Getenv("SLIDES_URL"),
		BundlePath: os.Getenv("BUNDLE_PATH"),
		SlideCount: envInt("SLIDE_COUNT", 0),

		CachePath: envOr("CACHE_PATH", "svgdeck-cache.db"),

		AdminToken: os.Getenv("ADMIN_TOKEN"),

		ViewportWidth:  envFloat("VIEWPORT_WIDTH", 960),
		ViewportHeight: envFloat("VIEWPORT_HEIGHT", 720),

		LoadTimeout: envDuration("LOAD_TIMEOUT", 15*time.Second),
	}

	if cfg.ViewportWidth <= 0 {
		cfg.ViewportWidth = 960
	}
	if cfg.ViewportHeight <= 0 {
		cfg.ViewportHeight = 720
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = 15 * time.Second
	}

	return cfg
}

func (c Config) Validate() error {
	if c.SlidesDir == "" && c.SlidesURL == "" && c.BundlePath == "" {
		return fmt.Errorf("one of SLIDES_DIR, SLIDES_URL or BUNDLE_PATH is required")
	}
	if c.CachePath == "" {
		return fmt.Errorf("CACHE_PATH is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
