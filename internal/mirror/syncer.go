// Linkdeck - Personal Bookmarks Dashboard for Notion
// Copyright 2026 M. Robles (mrobles)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mrobles/linkdeck

package mirror

import (
	"context"
	"sync"

	"github.com/mrobles/linkdeck/internal/logging"
	"github.com/mrobles/linkdeck/internal/metrics"
	"github.com/mrobles/linkdeck/internal/models"
	"github.com/mrobles/linkdeck/internal/notion"
)

// PatchEnqueuer receives write-back patches produced by a sync batch.
// Implemented by the writeback queue.
type PatchEnqueuer interface {
	Enqueue(patch notion.ImagePatch)
}

// Syncer fans a collection of bookmarks out to the mirror engine under a
// concurrency cap and enqueues a write-back patch for every bookmark
// whose served image URLs changed.
type Syncer struct {
	engine      *Engine
	queue       PatchEnqueuer
	concurrency int
}

// NewSyncer creates a batch syncer. concurrency caps how many bookmarks
// are mirrored at once; each bookmark may still mirror its light and
// dark image concurrently.
func NewSyncer(engine *Engine, queue PatchEnqueuer, concurrency int) *Syncer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Syncer{engine: engine, queue: queue, concurrency: concurrency}
}

// SyncBatch mirrors every eligible image in bookmarks, updating the
// slice in place, and returns how many bookmarks changed. Bookmarks are
// processed in batches of the concurrency cap; the next batch starts
// only after the previous one finished, bounding peak outbound
// connections regardless of collection size.
//
// A failed mirror of one image never blocks the other image of the same
// bookmark or any sibling bookmark; it simply contributes no field to
// that bookmark's write-back patch.
func (s *Syncer) SyncBatch(ctx context.Context, bookmarks []models.Bookmark) int {
	eligible := make([]int, 0, len(bookmarks))
	for i := range bookmarks {
		if s.eligible(&bookmarks[i]) {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		return 0
	}

	logging.Debug().Int("total", len(bookmarks)).Int("eligible", len(eligible)).
		Int("concurrency", s.concurrency).Msg("Starting image sync batch")

	changed := 0
	for start := 0; start < len(eligible); start += s.concurrency {
		end := start + s.concurrency
		if end > len(eligible) {
			end = len(eligible)
		}

		var wg sync.WaitGroup
		results := make([]bool, end-start)
		for n, idx := range eligible[start:end] {
			wg.Add(1)
			go func(n, idx int) {
				defer wg.Done()
				results[n] = s.syncOne(ctx, &bookmarks[idx])
			}(n, idx)
		}
		wg.Wait()

		for _, didChange := range results {
			if didChange {
				changed++
			}
		}
	}

	metrics.SyncBatchesTotal.Inc()
	metrics.SyncBookmarksChanged.Add(float64(changed))
	if changed > 0 {
		logging.Info().Int("changed", changed).Msg("Image sync batch complete")
	}
	return changed
}

// eligible reports whether the bookmark has at least one original image
// URL that still needs mirroring.
func (s *Syncer) eligible(b *models.Bookmark) bool {
	return s.needsMirror(b.OriginalImageURL) || s.needsMirror(b.OriginalImageURLDark)
}

func (s *Syncer) needsMirror(originalURL string) bool {
	return originalURL != "" && !s.engine.canonical.IsCanonical(originalURL)
}

// syncOne mirrors the light and dark image of a single bookmark
// concurrently, updates its served URLs and enqueues a write-back patch
// when anything changed.
func (s *Syncer) syncOne(ctx context.Context, b *models.Bookmark) bool {
	var (
		wg                sync.WaitGroup
		lightURL, darkURL string
		lightOK, darkOK   bool
	)

	if s.needsMirror(b.OriginalImageURL) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lightURL, lightOK = s.engine.Mirror(ctx, b.ID, b.OriginalImageURL)
		}()
	}
	if s.needsMirror(b.OriginalImageURLDark) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			darkURL, darkOK = s.engine.Mirror(ctx, b.ID, b.OriginalImageURLDark)
		}()
	}
	wg.Wait()

	patch := notion.ImagePatch{PageID: b.ID}
	if lightOK && lightURL != b.ImageURL {
		b.ImageURL = lightURL
		patch.ImageS3 = &lightURL
	}
	if darkOK && darkURL != b.ImageURLDark {
		b.ImageURLDark = darkURL
		patch.ImageS3Dark = &darkURL
	}

	if patch.Empty() {
		return false
	}
	s.queue.Enqueue(patch)
	return true
}
