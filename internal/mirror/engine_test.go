// Linkdeck - Personal Bookmarks Dashboard for Notion
// Copyright 2026 M. Robles (mrobles)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mrobles/linkdeck

package mirror

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mrobles/linkdeck/internal/config"
	"github.com/mrobles/linkdeck/internal/storage"
)

const testBase = "https://cdn.test.example"

func newTestEngine(store storage.ObjectStore) *Engine {
	return NewEngine(store, storage.NewCanonicalBase(testBase), &config.MirrorConfig{
		Enabled:         true,
		Concurrency:     5,
		DownloadTimeout: 5 * time.Second,
	})
}

// imageServer serves a fixed payload and counts downloads.
func imageServer(t *testing.T, contentType string, body []byte) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var downloads atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downloads.Add(1)
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &downloads
}

func TestMirrorUploadsAndReturnsCanonicalURL(t *testing.T) {
	srv, _ := imageServer(t, "image/png", []byte("png-bytes"))
	store := storage.NewMemoryStore()
	engine := newTestEngine(store)

	sourceURL := srv.URL + "/logo.png"
	got, ok := engine.Mirror(context.Background(), "bm1", sourceURL)
	if !ok {
		t.Fatal("Mirror failed")
	}
	if !strings.HasPrefix(got, testBase+"/bookmarks/bm1/") {
		t.Errorf("canonical URL %q not under %s/bookmarks/bm1/", got, testBase)
	}
	if !strings.HasSuffix(got, ".png") {
		t.Errorf("canonical URL %q should keep the png extension", got)
	}

	key := strings.TrimPrefix(got, testBase+"/")
	data, contentType, found := store.Get(key)
	if !found {
		t.Fatalf("object %q not stored", key)
	}
	if string(data) != "png-bytes" {
		t.Errorf("stored bytes = %q, want %q", data, "png-bytes")
	}
	if contentType != "image/png" {
		t.Errorf("stored content type = %q, want image/png", contentType)
	}
}

func TestMirrorIdempotentAfterFirstSuccess(t *testing.T) {
	srv, downloads := imageServer(t, "image/png", []byte("png-bytes"))
	store := storage.NewMemoryStore()
	engine := newTestEngine(store)

	sourceURL := srv.URL + "/logo.png"
	first, ok := engine.Mirror(context.Background(), "bm1", sourceURL)
	if !ok {
		t.Fatal("first Mirror failed")
	}
	second, ok := engine.Mirror(context.Background(), "bm1", sourceURL)
	if !ok {
		t.Fatal("second Mirror failed")
	}

	if first != second {
		t.Errorf("repeated mirror returned different URLs: %q vs %q", first, second)
	}
	if n := downloads.Load(); n != 1 {
		t.Errorf("source downloaded %d times, want 1", n)
	}
	if n := store.PutCalls(); n != 1 {
		t.Errorf("store received %d puts, want 1", n)
	}
}

func TestMirrorCanonicalShortCircuit(t *testing.T) {
	store := storage.NewMemoryStore()
	engine := newTestEngine(store)

	canonical := testBase + "/bookmarks/bm1/deadbeef.png"
	got, ok := engine.Mirror(context.Background(), "bm1", canonical)
	if !ok {
		t.Fatal("Mirror of canonical URL failed")
	}
	if got != canonical {
		t.Errorf("canonical URL changed: got %q, want %q", got, canonical)
	}
	if n := store.PutCalls(); n != 0 {
		t.Errorf("short-circuit performed %d puts, want 0", n)
	}
}

func TestMirrorDownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	store := storage.NewMemoryStore()
	engine := newTestEngine(store)

	_, ok := engine.Mirror(context.Background(), "bm1", srv.URL+"/gone.png")
	if ok {
		t.Error("Mirror should fail on 404 download")
	}
	if n := store.PutCalls(); n != 0 {
		t.Errorf("failed download still performed %d puts", n)
	}
}

func TestMirrorNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	engine := newTestEngine(storage.NewMemoryStore())

	if _, ok := engine.Mirror(context.Background(), "bm1", srv.URL+"/logo.png"); ok {
		t.Error("Mirror should fail on connection error")
	}
}

func TestMirrorDefaultContentType(t *testing.T) {
	var body [4]byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Suppress Go's content sniffing header.
		w.Header()["Content-Type"] = nil
		_, _ = w.Write(body[:])
	}))
	t.Cleanup(srv.Close)

	store := storage.NewMemoryStore()
	engine := newTestEngine(store)

	got, ok := engine.Mirror(context.Background(), "bm1", srv.URL+"/raw")
	if !ok {
		t.Fatal("Mirror failed")
	}
	_, contentType, found := store.Get(strings.TrimPrefix(got, testBase+"/"))
	if !found {
		t.Fatal("object not stored")
	}
	if contentType != "image/jpeg" {
		t.Errorf("content type = %q, want default image/jpeg", contentType)
	}
}

// failingStore wraps a MemoryStore and fails existence probes, either
// for every key or only for keys containing failProbeFor. A probe error
// is distinct from not-found: the store answered, but with neither yes
// nor no.
type failingStore struct {
	*storage.MemoryStore
	failProbeFor string
}

func (f *failingStore) Exists(ctx context.Context, key string) (bool, error) {
	if f.failProbeFor == "" || strings.Contains(key, f.failProbeFor) {
		return false, errors.New("probe: access denied")
	}
	return f.MemoryStore.Exists(ctx, key)
}

func TestMirrorProbeFailure(t *testing.T) {
	srv, downloads := imageServer(t, "image/png", []byte("img"))
	store := &failingStore{MemoryStore: storage.NewMemoryStore()}
	engine := newTestEngine(store)

	_, ok := engine.Mirror(context.Background(), "bm1", srv.URL+"/logo.png")
	if ok {
		t.Error("Mirror should fail when the store probe errors")
	}
	if n := downloads.Load(); n != 0 {
		t.Errorf("probe failure still downloaded %d times, want 0", n)
	}
	if n := store.PutCalls(); n != 0 {
		t.Errorf("probe failure still performed %d puts", n)
	}
}

func TestMirrorDownloadSizeCap(t *testing.T) {
	huge := make([]byte, maxImageBytes+1)
	srv, _ := imageServer(t, "image/jpeg", huge)
	store := storage.NewMemoryStore()
	engine := newTestEngine(store)

	_, ok := engine.Mirror(context.Background(), "bm1", srv.URL+"/huge.jpg")
	if ok {
		t.Error("Mirror should fail for oversized images")
	}
	if n := store.PutCalls(); n != 0 {
		t.Errorf("oversized download still performed %d puts", n)
	}
}

func TestMirrorReusesExistingObject(t *testing.T) {
	store := storage.NewMemoryStore()
	sourceURL := "https://ext.example/logo.png"
	key := DeriveKey("bm1", sourceURL)
	if err := store.Put(context.Background(), key, []byte("old"), "image/png"); err != nil {
		t.Fatal(err)
	}

	engine := newTestEngine(store)

	// No HTTP server behind sourceURL: a download attempt would fail, so
	// success proves the probe short-circuited.
	got, ok := engine.Mirror(context.Background(), "bm1", sourceURL)
	if !ok {
		t.Fatal("Mirror failed despite existing object")
	}
	if want := testBase + "/" + key; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
