// Linkdeck - Personal Bookmarks Dashboard for Notion
// Copyright 2026 M. Robles (mrobles)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mrobles/linkdeck

// Package config loads Linkdeck configuration from layered sources via
// Koanf v2: built-in defaults, an optional YAML config file, and
// environment variables (highest priority).
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config is the root configuration for the Linkdeck server.
type Config struct {
	Notion    NotionConfig    `koanf:"notion"`
	Storage   StorageConfig   `koanf:"storage"`
	Mirror    MirrorConfig    `koanf:"mirror"`
	WriteBack WriteBackConfig `koanf:"writeback"`
	Server    ServerConfig    `koanf:"server"`
	Cache     CacheConfig     `koanf:"cache"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// NotionConfig holds credentials and database identifiers for the Notion
// workspace acting as the system of record.
type NotionConfig struct {
	// Token is the Notion integration token (NOTION_API_KEY).
	Token string `koanf:"token"`

	// BookmarksDBID is the bookmarks database identifier.
	BookmarksDBID string `koanf:"bookmarks_db_id"`

	// CategoriesDBID is the categories database identifier.
	CategoriesDBID string `koanf:"categories_db_id"`

	// Version is the Notion-Version header value sent with every request.
	Version string `koanf:"version"`
}

// StorageConfig holds S3-compatible object storage settings for mirrored
// bookmark images.
type StorageConfig struct {
	Region          string `koanf:"region"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	Bucket          string `koanf:"bucket"`

	// BaseURL is the public base under which mirrored objects are served,
	// e.g. https://cdn.example.com. URLs with this prefix are canonical.
	BaseURL string `koanf:"base_url"`
}

// MirrorConfig controls the image mirroring pipeline.
type MirrorConfig struct {
	// Enabled toggles background image synchronization entirely.
	Enabled bool `koanf:"enabled"`

	// Concurrency caps the number of bookmarks mirrored concurrently
	// within a sync batch.
	Concurrency int `koanf:"concurrency"`

	// DownloadTimeout bounds a single source image download.
	DownloadTimeout time.Duration `koanf:"download_timeout"`
}

// WriteBackConfig controls pacing of the canonical-URL write-back queue.
// Notion allows roughly 3 requests per second, hence the 350ms default
// spacing between page updates.
type WriteBackConfig struct {
	Interval time.Duration `koanf:"interval"`
	Burst    int           `koanf:"burst"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port    int           `koanf:"port"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"`

	// Environment is "development" or "production". In production the
	// server additionally serves the static frontend with SPA fallback.
	Environment string `koanf:"environment"`

	// StaticDir is the directory holding built frontend assets.
	StaticDir string `koanf:"static_dir"`
}

// CacheConfig controls the in-memory TTL cache for Notion query results.
type CacheConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// SecurityConfig holds API protection settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs in production mode.
func (c *ServerConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Validate checks the configuration for missing or inconsistent values.
// It fails fast so misconfiguration surfaces at startup, not on the first
// request.
func (c *Config) Validate() error {
	if c.Notion.Token == "" {
		return fmt.Errorf("notion token is required (NOTION_API_KEY)")
	}
	if c.Notion.BookmarksDBID == "" {
		return fmt.Errorf("notion bookmarks database id is required (NOTION_BOOKMARKS_DB_ID)")
	}
	if c.Notion.CategoriesDBID == "" {
		return fmt.Errorf("notion categories database id is required (NOTION_CATEGORIES_DB_ID)")
	}

	if c.Mirror.Enabled {
		switch {
		case c.Storage.Bucket == "":
			return fmt.Errorf("storage bucket is required when mirroring is enabled (AWS_S3_BUCKET)")
		case c.Storage.Region == "":
			return fmt.Errorf("storage region is required when mirroring is enabled (AWS_REGION)")
		case c.Storage.BaseURL == "":
			return fmt.Errorf("storage base url is required when mirroring is enabled (AWS_S3_BASE_URL)")
		}
		if u, err := url.Parse(c.Storage.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("storage base url %q is not an absolute URL", c.Storage.BaseURL)
		}
		if c.Mirror.Concurrency < 1 {
			return fmt.Errorf("mirror concurrency must be at least 1, got %d", c.Mirror.Concurrency)
		}
		if c.Mirror.DownloadTimeout <= 0 {
			return fmt.Errorf("mirror download timeout must be positive, got %s", c.Mirror.DownloadTimeout)
		}
	}

	if c.WriteBack.Interval <= 0 {
		return fmt.Errorf("writeback interval must be positive, got %s", c.WriteBack.Interval)
	}
	if c.WriteBack.Burst < 1 {
		return fmt.Errorf("writeback burst must be at least 1, got %d", c.WriteBack.Burst)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.IsProduction() && c.Server.StaticDir == "" {
		return fmt.Errorf("static dir is required in production (STATIC_DIR)")
	}

	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative, got %s", c.Cache.TTL)
	}

	return nil
}
