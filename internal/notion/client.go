// Linkdeck - Personal Bookmarks Dashboard for Notion
// Copyright 2026 M. Robles (mrobles)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mrobles/linkdeck

/*
client.go - Notion REST API Client

Implements database queries (with cursor pagination) against the bookmarks
and categories databases, and sparse page updates for mirrored image URLs.

API Reference: https://developers.notion.com/reference
*/

package notion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/mrobles/linkdeck/internal/config"
	"github.com/mrobles/linkdeck/internal/logging"
	"github.com/mrobles/linkdeck/internal/models"
)

const defaultBaseURL = "https://api.notion.com"

// pageSize is the maximum Notion allows per database query.
const pageSize = 100

// ClientInterface defines the operations the rest of the server needs
// from Notion. Both Client and CircuitBreakerClient implement it.
type ClientInterface interface {
	FetchBookmarks(ctx context.Context) ([]models.Bookmark, error)
	FetchCategories(ctx context.Context) ([]models.Category, error)
	UpdateBookmarkImages(ctx context.Context, patch ImagePatch) error
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// ImagePatch is a sparse update of a bookmark page's mirrored image
// columns. A nil field is left untouched; a non-nil empty string clears
// the column (url: null).
type ImagePatch struct {
	PageID      string
	ImageS3     *string
	ImageS3Dark *string
}

// Empty reports whether the patch would change nothing.
func (p ImagePatch) Empty() bool {
	return p.ImageS3 == nil && p.ImageS3Dark == nil
}

// Client provides access to the Notion REST API.
type Client struct {
	baseURL        string
	token          string
	version        string
	bookmarksDBID  string
	categoriesDBID string
	httpClient     *http.Client
}

// NewClient creates a Notion API client from configuration.
func NewClient(cfg *config.NotionConfig) *Client {
	return &Client{
		baseURL:        defaultBaseURL,
		token:          cfg.Token,
		version:        cfg.Version,
		bookmarksDBID:  cfg.BookmarksDBID,
		categoriesDBID: cfg.CategoriesDBID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// queryRequest is the body of POST /v1/databases/{id}/query.
type queryRequest struct {
	StartCursor string `json:"start_cursor,omitempty"`
	PageSize    int    `json:"page_size"`
}

// queryResponse is a page of database query results.
type queryResponse struct {
	Results    []page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

type page struct {
	ID         string     `json:"id"`
	Properties Properties `json:"properties"`
}

// FetchBookmarks retrieves every page of the bookmarks database. Pages
// whose properties no longer match the expected schema are skipped with
// a warning rather than fed half-decoded into the mirror pipeline.
func (c *Client) FetchBookmarks(ctx context.Context) ([]models.Bookmark, error) {
	var bookmarks []models.Bookmark

	err := c.queryAll(ctx, c.bookmarksDBID, func(p page) {
		b, err := mapBookmark(p.ID, p.Properties)
		if err != nil {
			var derr *DecodeError
			if errors.As(err, &derr) {
				logging.Warn().Str("page_id", p.ID).Str("property", derr.Property).
					Str("want", derr.Want).Str("got", derr.Got).
					Msg("Skipping bookmark with mismatched property type")
				return
			}
			logging.Warn().Err(err).Str("page_id", p.ID).Msg("Skipping undecodable bookmark")
			return
		}
		bookmarks = append(bookmarks, b)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching bookmarks: %w", err)
	}

	return bookmarks, nil
}

// FetchCategories retrieves every page of the categories database,
// sorted ascending by their Order property.
func (c *Client) FetchCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category

	err := c.queryAll(ctx, c.categoriesDBID, func(p page) {
		cat, err := mapCategory(p.ID, p.Properties)
		if err != nil {
			logging.Warn().Err(err).Str("page_id", p.ID).Msg("Skipping undecodable category")
			return
		}
		categories = append(categories, cat)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching categories: %w", err)
	}

	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].Order < categories[j].Order
	})

	return categories, nil
}

// queryAll walks a database's query pagination, invoking visit for each
// page of results.
func (c *Client) queryAll(ctx context.Context, databaseID string, visit func(page)) error {
	cursor := ""
	for {
		body := queryRequest{StartCursor: cursor, PageSize: pageSize}

		var qr queryResponse
		endpoint := fmt.Sprintf("/v1/databases/%s/query", databaseID)
		if err := c.doRequest(ctx, http.MethodPost, endpoint, body, &qr); err != nil {
			return err
		}

		for _, p := range qr.Results {
			visit(p)
		}

		if !qr.HasMore || qr.NextCursor == nil {
			return nil
		}
		cursor = *qr.NextCursor
	}
}

// urlValue serializes as {"url": string|null}, the shape Notion expects
// when writing a url property.
type urlValue struct {
	URL *string `json:"url"`
}

// UpdateBookmarkImages applies a sparse image-column patch to a bookmark
// page. An empty patch is a no-op and performs no request.
func (c *Client) UpdateBookmarkImages(ctx context.Context, patch ImagePatch) error {
	if patch.Empty() {
		return nil
	}

	properties := map[string]urlValue{}
	if patch.ImageS3 != nil {
		properties[propImageS3] = urlValue{URL: nullableURL(*patch.ImageS3)}
	}
	if patch.ImageS3Dark != nil {
		properties[propImageS3Dark] = urlValue{URL: nullableURL(*patch.ImageS3Dark)}
	}

	body := map[string]interface{}{"properties": properties}
	endpoint := fmt.Sprintf("/v1/pages/%s", patch.PageID)
	if err := c.doRequest(ctx, http.MethodPatch, endpoint, body, nil); err != nil {
		return fmt.Errorf("updating page %s: %w", patch.PageID, err)
	}

	logging.Debug().Str("page_id", patch.PageID).Msg("Updated mirrored image URLs")
	return nil
}

// nullableURL maps an empty string to JSON null, clearing the column.
func nullableURL(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// doRequest performs an authenticated Notion API request, marshaling the
// body and decoding the response into out when non-nil.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notion request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if readErr != nil {
			return fmt.Errorf("notion returned status %d (failed to read body)", resp.StatusCode)
		}
		return fmt.Errorf("notion returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode notion response: %w", err)
	}
	return nil
}
