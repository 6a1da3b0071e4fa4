// Linkdeck - Personal Bookmarks Dashboard for Notion
// Copyright 2026 M. Robles (mrobles)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mrobles/linkdeck

// Package writeback propagates mirrored image URLs back to Notion
// through a coalescing, rate-limited background queue.
package writeback

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mrobles/linkdeck/internal/config"
	"github.com/mrobles/linkdeck/internal/logging"
	"github.com/mrobles/linkdeck/internal/metrics"
	"github.com/mrobles/linkdeck/internal/notion"
)

// Updater is the slice of the Notion client the queue needs.
type Updater interface {
	UpdateBookmarkImages(ctx context.Context, patch notion.ImagePatch) error
}

// Queue collects image patches from concurrent sync batches and applies
// them to Notion sequentially, paced to the API's rate limit (roughly 3
// requests per second, hence the 350ms default interval).
//
// Single-flight is structural: exactly one Serve goroutine ever drains,
// so concurrent Enqueue calls only ever touch the pending slice under
// the mutex. The snapshot-and-clear in drain is one atomic step relative
// to Enqueue, so no patch is lost or applied twice. Patches enqueued
// while a drain is running are picked up by an immediate follow-up
// cycle.
type Queue struct {
	updater Updater
	limiter *rate.Limiter

	mu      sync.Mutex
	pending []notion.ImagePatch

	// wake nudges the Serve loop; buffered so Enqueue never blocks.
	wake chan struct{}
}

// NewQueue creates a write-back queue. Serve must be running for
// enqueued patches to be applied.
func NewQueue(updater Updater, cfg *config.WriteBackConfig) *Queue {
	return &Queue{
		updater: updater,
		limiter: rate.NewLimiter(rate.Every(cfg.Interval), cfg.Burst),
		wake:    make(chan struct{}, 1),
	}
}

// Enqueue appends a patch for the next drain cycle. Safe for concurrent
// use; never blocks.
func (q *Queue) Enqueue(patch notion.ImagePatch) {
	if patch.Empty() {
		return
	}

	q.mu.Lock()
	q.pending = append(q.pending, patch)
	depth := len(q.pending)
	q.mu.Unlock()

	metrics.WriteBackQueueDepth.Set(float64(depth))

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Depth returns the number of patches currently pending.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Serve runs the drain loop until ctx is cancelled. It implements
// suture.Service and is restarted by the supervisor on panic.
func (q *Queue) Serve(ctx context.Context) error {
	logging.Info().Msg("Write-back queue started")

	for {
		select {
		case <-ctx.Done():
			if n := q.Depth(); n > 0 {
				logging.Warn().Int("pending", n).Msg("Write-back queue stopping with patches pending")
			}
			return ctx.Err()
		case <-q.wake:
			q.drainAll(ctx)
		}
	}
}

// String implements fmt.Stringer; suture uses it in log messages.
func (q *Queue) String() string {
	return "writeback-queue"
}

// drainAll runs drain cycles until the pending slice stays empty, so
// patches enqueued mid-drain are written in the immediately following
// cycle rather than waiting for the next external wake.
func (q *Queue) drainAll(ctx context.Context) {
	for {
		batch := q.snapshot()
		if len(batch) == 0 {
			return
		}
		if !q.drain(ctx, batch) {
			return
		}
	}
}

// snapshot atomically takes ownership of the pending slice, leaving the
// queue empty for concurrent enqueuers.
func (q *Queue) snapshot() []notion.ImagePatch {
	q.mu.Lock()
	defer q.mu.Unlock()
	batch := q.pending
	q.pending = nil
	return batch
}

// drain applies one snapshot sequentially, one patch per rate-limiter
// token. Individual failures are counted but never stop the cycle; a
// patch that fails here is not retried, the next full sync re-derives
// it from scratch. Returns false when ctx was cancelled mid-cycle.
func (q *Queue) drain(ctx context.Context, batch []notion.ImagePatch) bool {
	start := time.Now()
	applied, failed := 0, 0

	for i, patch := range batch {
		if err := q.limiter.Wait(ctx); err != nil {
			// Cancelled mid-cycle; remaining patches are dropped, same
			// as individual failures.
			failed += len(batch) - i
			logging.Warn().Int("dropped", len(batch)-i).Msg("Write-back drain cancelled")
			break
		}

		if err := q.updater.UpdateBookmarkImages(ctx, patch); err != nil {
			failed++
			logging.Warn().Err(err).Str("page_id", patch.PageID).Msg("Write-back patch failed")
			continue
		}
		applied++
	}

	metrics.WriteBackDrainsTotal.Inc()
	metrics.WriteBackAppliedTotal.Add(float64(applied))
	metrics.WriteBackFailedTotal.Add(float64(failed))
	metrics.WriteBackQueueDepth.Set(float64(q.Depth()))

	logging.Info().Int("applied", applied).Int("failed", failed).
		Dur("took", time.Since(start)).Msg("Write-back drain cycle complete")

	return ctx.Err() == nil
}
