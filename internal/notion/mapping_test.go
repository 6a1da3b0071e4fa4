// Linkdeck - Personal Bookmarks Dashboard for Notion
// Copyright 2026 M. Robles (mrobles)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mrobles/linkdeck

package notion

import (
	"errors"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestMapBookmarkFull(t *testing.T) {
	checked := true
	num := 2.0
	props := Properties{
		"Name":             {Type: "title", Title: []RichText{{PlainText: "Docs"}}},
		"URL":              {Type: "url", URL: strPtr("https://example.com")},
		"AlternateURL":     {Type: "url", URL: strPtr("https://alt.example.com")},
		"Subtitle":         {Type: "rich_text", RichText: []RichText{{PlainText: "reference"}}},
		"Tags":             {Type: "multi_select", MultiSelect: []SelectOption{{Name: "dev"}, {Name: "go"}}},
		"Category":         {Type: "relation", Relation: []Relation{{ID: "cat-1"}}},
		"Visible at Start": {Type: "checkbox", Checkbox: &checked},
		"Status":           {Type: "select", Select: &SelectOption{Name: "In progress"}},
		"Valoration":       {Type: "select", Select: &SelectOption{Name: "⭐⭐⭐"}},
		"Created time":     {Type: "created_time", CreatedTime: "2026-01-15T10:00:00.000Z"},
		"Order":            {Type: "number", Number: &num},
	}

	b, err := mapBookmark("page-1", props)
	if err != nil {
		t.Fatalf("mapBookmark: %v", err)
	}

	if b.ID != "page-1" || b.Name != "Docs" || b.URL != "https://example.com" {
		t.Errorf("identity fields wrong: %+v", b)
	}
	if b.AlternateURL != "https://alt.example.com" || b.Subtitle != "reference" {
		t.Errorf("optional fields wrong: %+v", b)
	}
	if len(b.Tags) != 2 || b.Tags[0] != "dev" {
		t.Errorf("tags = %v", b.Tags)
	}
	if b.CategoryID != "cat-1" || !b.VisibleAtStart {
		t.Errorf("category/visibility wrong: %+v", b)
	}
	if b.Status != "In progress" || b.Valoration != "⭐⭐⭐" {
		t.Errorf("status/valoration wrong: %+v", b)
	}
	if b.CreatedTime != "2026-01-15T10:00:00.000Z" {
		t.Errorf("created time = %q", b.CreatedTime)
	}
}

func TestMapBookmarkImagePreference(t *testing.T) {
	tests := []struct {
		name         string
		props        Properties
		wantServed   string
		wantOriginal string
	}{
		{
			name: "url column wins over formula and files",
			props: Properties{
				"imageUrlBase": {Type: "url", URL: strPtr("https://ext.example/base.png")},
				"imageUrl":     {Type: "formula", Formula: &Formula{Type: "string", String: strPtr("https://ext.example/formula.png")}},
				"image":        {Type: "files", Files: []File{{Type: "external", External: &ExternalFile{URL: "https://ext.example/file.png"}}}},
			},
			wantServed:   "https://ext.example/base.png",
			wantOriginal: "https://ext.example/base.png",
		},
		{
			name: "formula when url column empty",
			props: Properties{
				"imageUrl": {Type: "formula", Formula: &Formula{Type: "string", String: strPtr("https://ext.example/formula.png")}},
			},
			wantServed:   "https://ext.example/formula.png",
			wantOriginal: "https://ext.example/formula.png",
		},
		{
			name: "files attachment as last resort",
			props: Properties{
				"image": {Type: "files", Files: []File{{Type: "file", File: &HostedFile{URL: "https://notion.example/hosted.png"}}}},
			},
			wantServed:   "https://notion.example/hosted.png",
			wantOriginal: "https://notion.example/hosted.png",
		},
		{
			name: "mirrored column beats original for serving",
			props: Properties{
				"imageS3":      {Type: "url", URL: strPtr("https://cdn.test.example/bookmarks/p/aa.png")},
				"imageUrlBase": {Type: "url", URL: strPtr("https://ext.example/base.png")},
			},
			wantServed:   "https://cdn.test.example/bookmarks/p/aa.png",
			wantOriginal: "https://ext.example/base.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := mapBookmark("p", tt.props)
			if err != nil {
				t.Fatalf("mapBookmark: %v", err)
			}
			if b.ImageURL != tt.wantServed {
				t.Errorf("ImageURL = %q, want %q", b.ImageURL, tt.wantServed)
			}
			if b.OriginalImageURL != tt.wantOriginal {
				t.Errorf("OriginalImageURL = %q, want %q", b.OriginalImageURL, tt.wantOriginal)
			}
		})
	}
}

func TestMapBookmarkDarkVariant(t *testing.T) {
	props := Properties{
		"imageS3Dark":      {Type: "url", URL: strPtr("https://cdn.test.example/bookmarks/p/dark.png")},
		"imageUrlBaseDark": {Type: "url", URL: strPtr("https://ext.example/dark-orig.png")},
	}

	b, err := mapBookmark("p", props)
	if err != nil {
		t.Fatalf("mapBookmark: %v", err)
	}
	if b.ImageURLDark != "https://cdn.test.example/bookmarks/p/dark.png" {
		t.Errorf("ImageURLDark = %q", b.ImageURLDark)
	}
	if b.OriginalImageURLDark != "https://ext.example/dark-orig.png" {
		t.Errorf("OriginalImageURLDark = %q", b.OriginalImageURLDark)
	}
}

func TestMapBookmarkDecodeError(t *testing.T) {
	props := Properties{
		// Name should be a title.
		"Name": {Type: "rich_text", RichText: []RichText{{PlainText: "drifted"}}},
	}

	_, err := mapBookmark("p", props)
	if err == nil {
		t.Fatal("expected decode error")
	}

	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("error %v is not a *DecodeError", err)
	}
	if derr.Property != "Name" || derr.Want != "title" || derr.Got != "rich_text" {
		t.Errorf("decode error fields: %+v", derr)
	}
}

func TestMapBookmarkMissingPropertiesAreZero(t *testing.T) {
	b, err := mapBookmark("p", Properties{})
	if err != nil {
		t.Fatalf("mapBookmark: %v", err)
	}
	if b.Name != "" || b.URL != "" || len(b.Tags) != 0 {
		t.Errorf("absent properties should decode to zero values: %+v", b)
	}
	if b.Status != "Not started" {
		t.Errorf("status default = %q, want Not started", b.Status)
	}
}

func TestMapCategory(t *testing.T) {
	order := 1.5
	level := 2.0
	props := Properties{
		"Name":  {Type: "title", Title: []RichText{{PlainText: "Tools"}}},
		"Order": {Type: "number", Number: &order},
		"Level": {Type: "number", Number: &level},
		"Padre": {Type: "relation", Relation: []Relation{{ID: "parent-1"}}},
		"Hijo":  {Type: "relation", Relation: []Relation{{ID: "child-1"}, {ID: "child-2"}}},
	}

	c, err := mapCategory("cat-1", props)
	if err != nil {
		t.Fatalf("mapCategory: %v", err)
	}
	if c.Name != "Tools" || c.Order != 1.5 || c.Level != 2.0 {
		t.Errorf("fields wrong: %+v", c)
	}
	if c.ParentID != "parent-1" || len(c.ChildIDs) != 2 {
		t.Errorf("relations wrong: %+v", c)
	}
}

func TestJoinPlainConcatenatesFragments(t *testing.T) {
	p := Properties{
		"Name": {Type: "title", Title: []RichText{{PlainText: "Hello "}, {PlainText: "World"}}},
	}
	got, err := p.PlainTitle("Name")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Hello World" {
		t.Errorf("PlainTitle = %q", got)
	}
}
