// Linkdeck - Personal Bookmarks Dashboard for Notion
// Copyright 2026 M. Robles (mrobles)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mrobles/linkdeck

package models

// Bookmark statuses as defined by the Notion "Status" select property.
const (
	StatusNotStarted = "Not started"
	StatusInProgress = "In progress"
	StatusDone       = "Done"
)

// Bookmark is a single entry from the Notion bookmarks database.
//
// ImageURL and ImageURLDark hold the URLs actually served to clients. When an
// image has been mirrored into object storage they point at the canonical
// mirror URL; otherwise they fall back to whatever Notion holds.
//
// OriginalImageURL and OriginalImageURLDark carry the as-read, possibly
// external source URLs used by the mirror pipeline. They are internal state
// and are never serialized in API responses. Invariant: once ImageURL (or
// ImageURLDark) is canonical it is never overwritten with a non-canonical
// value.
type Bookmark struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	URL            string   `json:"url"`
	AlternateURL   string   `json:"alternateUrl,omitempty"`
	Subtitle       string   `json:"subtitle,omitempty"`
	Tags           []string `json:"tags"`
	CategoryID     string   `json:"categoryId,omitempty"`
	VisibleAtStart bool     `json:"visibleAtStart"`
	Status         string   `json:"status"`
	Valoration     string   `json:"valoration,omitempty"`
	ImageURL       string   `json:"imageUrl,omitempty"`
	ImageURLDark   string   `json:"imageUrlDark,omitempty"`
	CreatedTime    string   `json:"createdTime,omitempty"`

	OriginalImageURL     string `json:"-"`
	OriginalImageURLDark string `json:"-"`
}

// Category is a single entry from the Notion categories database. Categories
// form a tree via the "Padre"/"Hijo" relation properties; the JSON field
// names follow that schema because the dashboard frontend consumes them
// verbatim.
type Category struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Order    float64  `json:"order"`
	Level    float64  `json:"level,omitempty"`
	ParentID string   `json:"padreId,omitempty"`
	ChildIDs []string `json:"hijoIds,omitempty"`
}
