// Linkdeck - Personal Bookmarks Dashboard for Notion
// Copyright 2026 M. Robles (mrobles)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mrobles/linkdeck

// Package api implements the HTTP surface of Linkdeck: the bookmarks and
// categories endpoints consumed by the dashboard frontend, health and
// metrics endpoints, and static frontend serving in production.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/mrobles/linkdeck/internal/cache"
	"github.com/mrobles/linkdeck/internal/config"
	"github.com/mrobles/linkdeck/internal/logging"
	"github.com/mrobles/linkdeck/internal/metrics"
	"github.com/mrobles/linkdeck/internal/mirror"
	"github.com/mrobles/linkdeck/internal/models"
	"github.com/mrobles/linkdeck/internal/notion"
)

const (
	cacheKeyBookmarks  = "bookmarks"
	cacheKeyCategories = "categories"
)

// Handler holds the dependencies of all HTTP handlers.
type Handler struct {
	cfg       *config.Config
	notion    notion.ClientInterface
	cache     *cache.Cache
	syncer    *mirror.Syncer
	startTime time.Time
}

// NewHandler creates the API handler. syncer may be nil when image
// mirroring is disabled.
func NewHandler(cfg *config.Config, client notion.ClientInterface, c *cache.Cache, syncer *mirror.Syncer) *Handler {
	return &Handler{
		cfg:       cfg,
		notion:    client,
		cache:     c,
		syncer:    syncer,
		startTime: time.Now(),
	}
}

// bookmarksRequest carries the validated query parameters of
// GET /api/bookmarks.
type bookmarksRequest struct {
	Sync string `validate:"omitempty,oneof=true false"`
}

// Bookmarks handles GET /api/bookmarks. Results are served from the TTL
// cache when fresh. Unless ?sync=false is given, a background image
// sync is launched after the response: it mirrors external images into
// object storage, refreshes the cached bookmarks with canonical URLs
// and enqueues write-back patches for Notion. The response never waits
// for mirroring.
func (h *Handler) Bookmarks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req := bookmarksRequest{Sync: r.URL.Query().Get("sync")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}
	wantSync := req.Sync != "false"

	if cached, ok := h.cache.Get(cacheKeyBookmarks); ok {
		metrics.CacheHits.WithLabelValues(cacheKeyBookmarks).Inc()
		bookmarks := cached.([]models.Bookmark)
		h.respondBookmarks(w, bookmarks, start, true)
		if wantSync {
			h.launchImageSync(bookmarks)
		}
		return
	}
	metrics.CacheMisses.WithLabelValues(cacheKeyBookmarks).Inc()

	bookmarks, err := h.notion.FetchBookmarks(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "NOTION_ERROR", "Failed to fetch bookmarks", err)
		return
	}
	h.cache.Set(cacheKeyBookmarks, bookmarks)

	h.respondBookmarks(w, bookmarks, start, false)

	if wantSync {
		h.launchImageSync(bookmarks)
	}
}

func (h *Handler) respondBookmarks(w http.ResponseWriter, bookmarks []models.Bookmark, start time.Time, cached bool) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   bookmarks,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			Cached:      cached,
		},
	})
}

// launchImageSync mirrors bookmark images in the background, detached
// from the request lifecycle. The sync operates on a copy so concurrent
// readers of the cached slice never observe a mid-sync mutation; the
// cache entry is swapped for the updated copy once the batch finished,
// unless a newer fetch already replaced it.
func (h *Handler) launchImageSync(bookmarks []models.Bookmark) {
	if h.syncer == nil {
		return
	}

	snapshot := make([]models.Bookmark, len(bookmarks))
	copy(snapshot, bookmarks)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				logging.Error().Interface("panic", rec).Msg("Image sync panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if changed := h.syncer.SyncBatch(ctx, snapshot); changed > 0 {
			h.publishSyncedBookmarks(bookmarks, snapshot)
		}
	}()
}

// publishSyncedBookmarks swaps the cached bookmarks for the synced
// snapshot, but only while the cache still holds the slice the sync
// started from. A sync can outlive the cache TTL; overwriting an entry
// written by a later fetch would re-serve older records.
func (h *Handler) publishSyncedBookmarks(origin, snapshot []models.Bookmark) {
	cached, ok := h.cache.Get(cacheKeyBookmarks)
	if !ok {
		return
	}
	current, ok := cached.([]models.Bookmark)
	if !ok || !sameBookmarkSlice(current, origin) {
		return
	}
	h.cache.Set(cacheKeyBookmarks, snapshot)
}

// sameBookmarkSlice reports whether a and b are the same slice, compared
// by identity rather than content.
func sameBookmarkSlice(a, b []models.Bookmark) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

// Categories handles GET /api/categories, returning categories sorted
// by their Order property.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if cached, ok := h.cache.Get(cacheKeyCategories); ok {
		metrics.CacheHits.WithLabelValues(cacheKeyCategories).Inc()
		respondJSON(w, http.StatusOK, &models.APIResponse{
			Status: "success",
			Data:   cached.([]models.Category),
			Metadata: models.Metadata{
				Timestamp:   time.Now(),
				QueryTimeMS: time.Since(start).Milliseconds(),
				Cached:      true,
			},
		})
		return
	}
	metrics.CacheMisses.WithLabelValues(cacheKeyCategories).Inc()

	categories, err := h.notion.FetchCategories(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "NOTION_ERROR", "Failed to fetch categories", err)
		return
	}
	h.cache.Set(cacheKeyCategories, categories)

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   categories,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// healthStatus is the payload of the health endpoints.
type healthStatus struct {
	Status    string      `json:"status"`
	Uptime    string      `json:"uptime"`
	Cache     cacheHealth `json:"cache"`
	Timestamp time.Time   `json:"timestamp"`
}

type cacheHealth struct {
	Keys    int64   `json:"keys"`
	HitRate float64 `json:"hit_rate"`
}

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats := h.cache.GetStats()
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: healthStatus{
			Status: "ok",
			Uptime: time.Since(h.startTime).Round(time.Second).String(),
			Cache: cacheHealth{
				Keys:    stats.TotalKeys,
				HitRate: h.cache.HitRate(),
			},
			Timestamp: time.Now(),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthLive handles GET /api/health/live: the process is up.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"alive"}`))
}

// HealthReady handles GET /api/health/ready: the server can serve
// traffic. Notion reachability is not probed here; an unreachable
// Notion surfaces per-request through the circuit breaker instead of
// taking the whole instance out of rotation.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}
