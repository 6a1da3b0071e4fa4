// Linkdeck - Personal Bookmarks Dashboard for Notion
// Copyright 2026 M. Robles (mrobles)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mrobles/linkdeck

package notion

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/mrobles/linkdeck/internal/config"
)

func testClient(srv *httptest.Server) *Client {
	c := NewClient(&config.NotionConfig{
		Token:          "secret-token",
		Version:        "2022-06-28",
		BookmarksDBID:  "db-bookmarks",
		CategoriesDBID: "db-categories",
	})
	c.baseURL = srv.URL
	return c
}

func titleProp(text string) map[string]interface{} {
	return map[string]interface{}{
		"type":  "title",
		"title": []map[string]interface{}{{"plain_text": text}},
	}
}

func urlProp(u string) map[string]interface{} {
	return map[string]interface{}{"type": "url", "url": u}
}

func numberProp(n float64) map[string]interface{} {
	return map[string]interface{}{"type": "number", "number": n}
}

func TestFetchBookmarksPagination(t *testing.T) {
	var gotAuth, gotVersion string
	requests := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("Notion-Version")

		if r.URL.Path != "/v1/databases/db-bookmarks/query" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req["page_size"].(float64) != 100 {
			t.Errorf("page_size = %v, want 100", req["page_size"])
		}

		w.Header().Set("Content-Type", "application/json")
		if req["start_cursor"] == nil {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"results": []map[string]interface{}{{
					"id": "page-1",
					"properties": map[string]interface{}{
						"Name": titleProp("First"),
						"URL":  urlProp("https://example.com/1"),
					},
				}},
				"has_more":    true,
				"next_cursor": "cursor-2",
			})
			return
		}

		if req["start_cursor"] != "cursor-2" {
			t.Errorf("start_cursor = %v, want cursor-2", req["start_cursor"])
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{{
				"id": "page-2",
				"properties": map[string]interface{}{
					"Name": titleProp("Second"),
					"URL":  urlProp("https://example.com/2"),
				},
			}},
			"has_more":    false,
			"next_cursor": nil,
		})
	}))
	t.Cleanup(srv.Close)

	bookmarks, err := testClient(srv).FetchBookmarks(context.Background())
	if err != nil {
		t.Fatalf("FetchBookmarks: %v", err)
	}

	if requests != 2 {
		t.Errorf("made %d requests, want 2", requests)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotVersion != "2022-06-28" {
		t.Errorf("Notion-Version = %q", gotVersion)
	}

	if len(bookmarks) != 2 {
		t.Fatalf("got %d bookmarks, want 2", len(bookmarks))
	}
	if bookmarks[0].Name != "First" || bookmarks[1].Name != "Second" {
		t.Errorf("names = %q, %q", bookmarks[0].Name, bookmarks[1].Name)
	}
	if bookmarks[0].Status != "Not started" {
		t.Errorf("missing status should default to Not started, got %q", bookmarks[0].Status)
	}
}

func TestFetchBookmarksSkipsUndecodablePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{
					"id": "page-bad",
					"properties": map[string]interface{}{
						// Name drifted from title to rich_text.
						"Name": map[string]interface{}{
							"type":      "rich_text",
							"rich_text": []map[string]interface{}{{"plain_text": "oops"}},
						},
					},
				},
				{
					"id": "page-good",
					"properties": map[string]interface{}{
						"Name": titleProp("Good"),
					},
				},
			},
			"has_more": false,
		})
	}))
	t.Cleanup(srv.Close)

	bookmarks, err := testClient(srv).FetchBookmarks(context.Background())
	if err != nil {
		t.Fatalf("FetchBookmarks: %v", err)
	}
	if len(bookmarks) != 1 || bookmarks[0].ID != "page-good" {
		t.Fatalf("got %+v, want only page-good", bookmarks)
	}
}

func TestFetchCategoriesSortedByOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/databases/db-categories/query" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"id": "c2", "properties": map[string]interface{}{"Name": titleProp("Second"), "Order": numberProp(2)}},
				{"id": "c1", "properties": map[string]interface{}{"Name": titleProp("First"), "Order": numberProp(1)}},
				{"id": "c3", "properties": map[string]interface{}{"Name": titleProp("Third"), "Order": numberProp(3)}},
			},
			"has_more": false,
		})
	}))
	t.Cleanup(srv.Close)

	categories, err := testClient(srv).FetchCategories(context.Background())
	if err != nil {
		t.Fatalf("FetchCategories: %v", err)
	}
	if len(categories) != 3 {
		t.Fatalf("got %d categories, want 3", len(categories))
	}
	for i, want := range []string{"c1", "c2", "c3"} {
		if categories[i].ID != want {
			t.Errorf("position %d = %s, want %s", i, categories[i].ID, want)
		}
	}
}

func TestUpdateBookmarkImagesPatchBody(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]map[string]map[string]*string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Fatalf("decoding body %s: %v", body, err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{}"))
	}))
	t.Cleanup(srv.Close)

	light := "https://cdn.test.example/bookmarks/p1/abcd1234.png"
	cleared := ""
	err := testClient(srv).UpdateBookmarkImages(context.Background(), ImagePatch{
		PageID:      "p1",
		ImageS3:     &light,
		ImageS3Dark: &cleared,
	})
	if err != nil {
		t.Fatalf("UpdateBookmarkImages: %v", err)
	}

	if gotMethod != http.MethodPatch {
		t.Errorf("method = %s, want PATCH", gotMethod)
	}
	if gotPath != "/v1/pages/p1" {
		t.Errorf("path = %s", gotPath)
	}

	props := gotBody["properties"]
	if v := props["imageS3"]["url"]; v == nil || *v != light {
		t.Errorf("imageS3 url = %v, want %q", v, light)
	}
	// An explicit empty value clears the column: url must be JSON null.
	if v, ok := props["imageS3Dark"]["url"]; !ok || v != nil {
		t.Errorf("imageS3Dark url = %v, want null", v)
	}
}

func TestUpdateBookmarkImagesEmptyPatchSkipsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("empty patch should not hit the API")
	}))
	t.Cleanup(srv.Close)

	if err := testClient(srv).UpdateBookmarkImages(context.Background(), ImagePatch{PageID: "p1"}); err != nil {
		t.Fatalf("UpdateBookmarkImages: %v", err)
	}
}

func TestDoRequestErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"rate limited"}`, http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	_, err := testClient(srv).FetchBookmarks(context.Background())
	if err == nil {
		t.Fatal("expected error on 429 response")
	}
}
