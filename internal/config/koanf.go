// Linkdeck - Personal Bookmarks Dashboard for Notion
// Copyright 2026 M. Robles (mrobles)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mrobles/linkdeck

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envPrefix is the prefix for generic LINKDECK_* environment overrides.
const envPrefix = "LINKDECK_"

// envAliases maps well-known, unprefixed environment variable names to
// koanf paths. These match the names operators already export for the
// Notion and AWS tooling, so a deployment needs no duplicate variables.
var envAliases = map[string]string{
	"NOTION_API_KEY":            "notion.token",
	"NOTION_BOOKMARKS_DB_ID":    "notion.bookmarks_db_id",
	"NOTION_CATEGORIES_DB_ID":   "notion.categories_db_id",
	"AWS_REGION":                "storage.region",
	"AWS_ACCESS_KEY_ID":         "storage.access_key_id",
	"AWS_SECRET_ACCESS_KEY":     "storage.secret_access_key",
	"AWS_S3_BUCKET":             "storage.bucket",
	"AWS_S3_BASE_URL":           "storage.base_url",
	"HTTP_PORT":                 "server.port",
	"PORT":                      "server.port",
	"ENVIRONMENT":               "server.environment",
	"NODE_ENV":                  "server.environment",
	"STATIC_DIR":                "server.static_dir",
	"LOG_LEVEL":                 "logging.level",
	"LOG_FORMAT":                "logging.format",
	"IMAGE_SYNC_ENABLED":        "mirror.enabled",
	"IMAGE_SYNC_CONCURRENCY":    "mirror.concurrency",
	"NOTION_WRITEBACK_INTERVAL": "writeback.interval",
	"CACHE_TTL":                 "cache.ttl",
}

// defaultConfig returns the built-in defaults, the lowest-priority layer.
func defaultConfig() *Config {
	return &Config{
		Notion: NotionConfig{
			Version: "2022-06-28",
		},
		Mirror: MirrorConfig{
			Enabled:         true,
			Concurrency:     5,
			DownloadTimeout: 30 * time.Second,
		},
		WriteBack: WriteBackConfig{
			Interval: 350 * time.Millisecond,
			Burst:    1,
		},
		Server: ServerConfig{
			Port:        3003,
			Host:        "0.0.0.0",
			Timeout:     60 * time.Second,
			Environment: "development",
			StaticDir:   "frontend/dist",
		},
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
		Security: SecurityConfig{
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration by layering defaults, an optional YAML
// file, and environment variables, then validates the result.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path := findConfigFile(configPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	normalizeSlices(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// envTransform maps an environment variable name to a koanf path. It
// recognizes the unprefixed aliases first, then LINKDECK_* variables
// where underscores after the prefix separate path components, e.g.
// LINKDECK_SERVER_PORT -> server.port. Unrecognized variables are
// dropped.
func envTransform(s string) string {
	if path, ok := envAliases[s]; ok {
		return path
	}
	if !strings.HasPrefix(s, envPrefix) {
		return ""
	}
	rest := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	// Only the first underscore separates section from key; keys
	// themselves may contain underscores (e.g. rate_limit_reqs).
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 {
		return rest
	}
	return parts[0] + "." + parts[1]
}

// findConfigFile returns the first existing config file: the explicit
// path when given, otherwise a small set of conventional locations.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	candidates := []string{
		"linkdeck.yaml",
		"linkdeck.yml",
		"config/linkdeck.yaml",
		"/etc/linkdeck/linkdeck.yaml",
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

// normalizeSlices splits comma-separated string values that arrived via
// environment variables into proper slices.
func normalizeSlices(cfg *Config) {
	if len(cfg.Security.CORSOrigins) == 1 && strings.Contains(cfg.Security.CORSOrigins[0], ",") {
		parts := strings.Split(cfg.Security.CORSOrigins[0], ",")
		origins := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				origins = append(origins, p)
			}
		}
		cfg.Security.CORSOrigins = origins
	}
}
