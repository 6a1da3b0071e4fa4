// Linkdeck - Personal Bookmarks Dashboard for Notion
// Copyright 2026 M. Robles (mrobles)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mrobles/linkdeck

package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// spaHandler serves the built frontend from staticDir. Requests for
// existing files are served as-is; anything else falls back to
// index.html so client-side routing works on deep links.
func spaHandler(staticDir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(staticDir))
	index := filepath.Join(staticDir, "index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Reject path traversal before touching the filesystem.
		cleaned := filepath.Clean(r.URL.Path)
		if strings.Contains(cleaned, "..") {
			http.NotFound(w, r)
			return
		}

		full := filepath.Join(staticDir, cleaned)
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}

		http.ServeFile(w, r, index)
	}
}
