// Linkdeck - Personal Bookmarks Dashboard for Notion
// Copyright 2026 M. Robles (mrobles)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mrobles/linkdeck

package mirror

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mrobles/linkdeck/internal/config"
	"github.com/mrobles/linkdeck/internal/logging"
	"github.com/mrobles/linkdeck/internal/metrics"
	"github.com/mrobles/linkdeck/internal/storage"
)

// maxImageBytes caps a single download. Bookmark images are icons and
// screenshots; anything beyond this is not worth mirroring.
const maxImageBytes = 20 << 20

const defaultContentType = "image/jpeg"

// Engine mirrors single images from external URLs into object storage.
type Engine struct {
	store      storage.ObjectStore
	canonical  storage.CanonicalBase
	httpClient *http.Client
}

// NewEngine creates a mirror engine over the given store. The HTTP
// client timeout bounds each source download.
func NewEngine(store storage.ObjectStore, canonical storage.CanonicalBase, cfg *config.MirrorConfig) *Engine {
	return &Engine{
		store:     store,
		canonical: canonical,
		httpClient: &http.Client{
			Timeout: cfg.DownloadTimeout,
		},
	}
}

// Mirror copies the image at sourceURL into object storage and returns
// the canonical URL it is served from. ok is false when mirroring
// failed; the failure is logged here and the caller keeps the previous
// URL, so one broken image never aborts its siblings.
//
// Repeated calls for the same (bookmark, URL) transfer zero bytes after
// the first success: a canonical sourceURL short-circuits immediately,
// and an existing object is detected by a metadata probe before any
// download.
func (e *Engine) Mirror(ctx context.Context, bookmarkID, sourceURL string) (string, bool) {
	if e.canonical.IsCanonical(sourceURL) {
		metrics.MirrorOperationsTotal.WithLabelValues("canonical").Inc()
		return sourceURL, true
	}

	start := time.Now()
	key := DeriveKey(bookmarkID, sourceURL)

	exists, err := e.store.Exists(ctx, key)
	if err != nil {
		metrics.MirrorOperationsTotal.WithLabelValues("failed").Inc()
		logging.Warn().Err(err).Str("bookmark_id", bookmarkID).Str("key", key).Msg("Image store probe failed")
		return "", false
	}
	if exists {
		metrics.MirrorOperationsTotal.WithLabelValues("reused").Inc()
		return e.canonical.URLFor(key), true
	}

	data, contentType, err := e.download(ctx, sourceURL)
	if err != nil {
		metrics.MirrorOperationsTotal.WithLabelValues("failed").Inc()
		logging.Warn().Err(err).Str("bookmark_id", bookmarkID).Str("source_url", sourceURL).Msg("Image download failed")
		return "", false
	}

	if err := e.store.Put(ctx, key, data, contentType); err != nil {
		metrics.MirrorOperationsTotal.WithLabelValues("failed").Inc()
		logging.Warn().Err(err).Str("bookmark_id", bookmarkID).Str("key", key).Msg("Image upload failed")
		return "", false
	}

	metrics.MirrorOperationsTotal.WithLabelValues("uploaded").Inc()
	metrics.MirrorBytesTotal.Add(float64(len(data)))
	metrics.MirrorDuration.Observe(time.Since(start).Seconds())

	canonicalURL := e.canonical.URLFor(key)
	logging.Info().Str("bookmark_id", bookmarkID).Str("key", key).
		Int("bytes", len(data)).Msg("Mirrored image")
	return canonicalURL, true
}

// download fetches the source image, returning its bytes and declared
// content type. Non-2xx statuses, network errors and timeouts all
// surface as a single download-failed error.
func (e *Engine) download(ctx context.Context, sourceURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating download request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("download failed: status %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("download failed: reading body: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, "", fmt.Errorf("download failed: image exceeds %d bytes", maxImageBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}
	return data, contentType, nil
}
