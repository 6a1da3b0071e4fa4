// Linkdeck - Personal Bookmarks Dashboard for Notion
// Copyright 2026 M. Robles (mrobles)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mrobles/linkdeck

// Package storage abstracts the object store holding mirrored bookmark
// images behind a small interface, with an S3 implementation for
// production and an in-memory implementation for tests.
package storage

import (
	"context"
	"strings"
)

// ObjectStore is the minimal surface the mirror engine needs: an
// existence probe and an idempotent write.
type ObjectStore interface {
	// Exists reports whether an object is already stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// Put stores data under key with the given content type. Writing the
	// same key twice is allowed; the content is content-addressed so both
	// writes carry identical bytes.
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// CanonicalBase resolves public URLs for stored objects and recognizes
// URLs that already point into the mirror.
type CanonicalBase struct {
	base string
}

// NewCanonicalBase creates a resolver for the given public base URL,
// e.g. https://cdn.example.com.
func NewCanonicalBase(baseURL string) CanonicalBase {
	return CanonicalBase{base: strings.TrimSuffix(baseURL, "/")}
}

// URLFor returns the public URL serving the object stored under key.
func (c CanonicalBase) URLFor(key string) string {
	return c.base + "/" + key
}

// IsCanonical reports whether url already points into the mirror. A
// canonical URL never needs mirroring again.
func (c CanonicalBase) IsCanonical(url string) bool {
	return c.base != "" && strings.HasPrefix(url, c.base)
}
