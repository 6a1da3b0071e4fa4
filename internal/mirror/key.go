// Linkdeck - Personal Bookmarks Dashboard for Notion
// Copyright 2026 M. Robles (mrobles)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mrobles/linkdeck

// Package mirror implements the image mirroring pipeline: deriving
// content-addressed storage keys, copying external images into object
// storage, and fanning sync work across a bookmark collection.
package mirror

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"path"
	"strings"
)

// allowedExtensions are the image extensions preserved in storage keys.
// Anything else (query-string URLs, extensionless CDN paths) falls back
// to jpg.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".svg":  true,
}

const defaultExtension = ".jpg"

// DeriveKey computes the storage key for a bookmark's image. The key is
// content-addressed on the source URL: the same (bookmark, URL) pair
// always maps to the same key, and a changed source URL maps to a new
// key, leaving the old object behind as a stale but harmless orphan.
//
// Shape: bookmarks/{bookmarkID}/{md5(url)[:8]}{ext}
func DeriveKey(bookmarkID, sourceURL string) string {
	sum := md5.Sum([]byte(sourceURL))
	hash := hex.EncodeToString(sum[:])[:8]
	return "bookmarks/" + bookmarkID + "/" + hash + extensionFor(sourceURL)
}

// extensionFor extracts a lowercase file extension from the URL path,
// defaulting to jpg when the URL is unparseable or the extension is not
// a known image type.
func extensionFor(sourceURL string) string {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return defaultExtension
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if allowedExtensions[ext] {
		return ext
	}
	return defaultExtension
}
