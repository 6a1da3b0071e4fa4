// Linkdeck - Personal Bookmarks Dashboard for Notion
// Copyright 2026 M. Robles (mrobles)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mrobles/linkdeck

// Package notion implements the client for the Notion HTTP API: querying
// the bookmarks and categories databases and writing mirrored image URLs
// back onto pages.
package notion

import (
	"fmt"
)

// Property is a single Notion page property. Exactly one of the typed
// fields is populated, selected by Type.
type Property struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`

	Title       []RichText      `json:"title,omitempty"`
	RichText    []RichText      `json:"rich_text,omitempty"`
	URL         *string         `json:"url,omitempty"`
	MultiSelect []SelectOption  `json:"multi_select,omitempty"`
	Select      *SelectOption   `json:"select,omitempty"`
	Checkbox    *bool           `json:"checkbox,omitempty"`
	Number      *float64        `json:"number,omitempty"`
	Relation    []Relation      `json:"relation,omitempty"`
	CreatedTime string          `json:"created_time,omitempty"`
	Formula     *Formula        `json:"formula,omitempty"`
	Files       []File          `json:"files,omitempty"`
}

// RichText is a fragment of Notion rich text. Only the plain rendering
// is of interest here.
type RichText struct {
	PlainText string `json:"plain_text"`
}

// SelectOption is a select or multi-select option.
type SelectOption struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Relation references a page in another database.
type Relation struct {
	ID string `json:"id"`
}

// Formula is a computed property value.
type Formula struct {
	Type    string   `json:"type"`
	String  *string  `json:"string,omitempty"`
	Number  *float64 `json:"number,omitempty"`
	Boolean *bool    `json:"boolean,omitempty"`
}

// File is an attachment on a files property. Notion distinguishes
// workspace-hosted files from plain external URLs.
type File struct {
	Name     string        `json:"name,omitempty"`
	Type     string        `json:"type"`
	File     *HostedFile   `json:"file,omitempty"`
	External *ExternalFile `json:"external,omitempty"`
}

// HostedFile is a Notion-hosted file with an expiring URL.
type HostedFile struct {
	URL string `json:"url"`
}

// ExternalFile is an externally hosted file.
type ExternalFile struct {
	URL string `json:"url"`
}

// DecodeError reports a property whose type did not match what the
// schema mapping expected. The property name and both types are carried
// so a schema drift in the Notion database is diagnosable from logs.
type DecodeError struct {
	Property string
	Want     string
	Got      string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("notion property %q: want type %s, got %s", e.Property, e.Want, e.Got)
}

// Properties is the property map of a Notion page, with typed accessors.
// Accessors for optional values return zero values when the property is
// absent, and a *DecodeError when it exists with the wrong type.
type Properties map[string]Property

func (p Properties) get(name, want string) (*Property, error) {
	prop, ok := p[name]
	if !ok {
		return nil, nil
	}
	if prop.Type != want {
		return nil, &DecodeError{Property: name, Want: want, Got: prop.Type}
	}
	return &prop, nil
}

// PlainTitle returns the concatenated plain text of a title property.
func (p Properties) PlainTitle(name string) (string, error) {
	prop, err := p.get(name, "title")
	if prop == nil || err != nil {
		return "", err
	}
	return joinPlain(prop.Title), nil
}

// PlainRichText returns the concatenated plain text of a rich_text property.
func (p Properties) PlainRichText(name string) (string, error) {
	prop, err := p.get(name, "rich_text")
	if prop == nil || err != nil {
		return "", err
	}
	return joinPlain(prop.RichText), nil
}

// URLValue returns the value of a url property, or "" when unset.
func (p Properties) URLValue(name string) (string, error) {
	prop, err := p.get(name, "url")
	if prop == nil || err != nil || prop.URL == nil {
		return "", err
	}
	return *prop.URL, nil
}

// MultiSelectNames returns the option names of a multi_select property.
func (p Properties) MultiSelectNames(name string) ([]string, error) {
	prop, err := p.get(name, "multi_select")
	if prop == nil || err != nil {
		return nil, err
	}
	names := make([]string, 0, len(prop.MultiSelect))
	for _, opt := range prop.MultiSelect {
		names = append(names, opt.Name)
	}
	return names, nil
}

// SelectName returns the selected option name, or "" when unset.
func (p Properties) SelectName(name string) (string, error) {
	prop, err := p.get(name, "select")
	if prop == nil || err != nil || prop.Select == nil {
		return "", err
	}
	return prop.Select.Name, nil
}

// CheckboxValue returns the value of a checkbox property.
func (p Properties) CheckboxValue(name string) (bool, error) {
	prop, err := p.get(name, "checkbox")
	if prop == nil || err != nil || prop.Checkbox == nil {
		return false, err
	}
	return *prop.Checkbox, nil
}

// NumberValue returns the value of a number property, or 0 when unset.
func (p Properties) NumberValue(name string) (float64, error) {
	prop, err := p.get(name, "number")
	if prop == nil || err != nil || prop.Number == nil {
		return 0, err
	}
	return *prop.Number, nil
}

// RelationIDs returns the page IDs of a relation property.
func (p Properties) RelationIDs(name string) ([]string, error) {
	prop, err := p.get(name, "relation")
	if prop == nil || err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(prop.Relation))
	for _, r := range prop.Relation {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// CreatedTimeValue returns the ISO 8601 created_time value.
func (p Properties) CreatedTimeValue(name string) (string, error) {
	prop, err := p.get(name, "created_time")
	if prop == nil || err != nil {
		return "", err
	}
	return prop.CreatedTime, nil
}

// FormulaString returns the string result of a formula property, or ""
// when the formula is unset or yields a non-string.
func (p Properties) FormulaString(name string) (string, error) {
	prop, err := p.get(name, "formula")
	if prop == nil || err != nil || prop.Formula == nil || prop.Formula.String == nil {
		return "", err
	}
	return *prop.Formula.String, nil
}

// FirstFileURL returns the URL of the first attachment on a files
// property, preferring the hosted URL for workspace files.
func (p Properties) FirstFileURL(name string) (string, error) {
	prop, err := p.get(name, "files")
	if prop == nil || err != nil || len(prop.Files) == 0 {
		return "", err
	}
	f := prop.Files[0]
	switch {
	case f.File != nil:
		return f.File.URL, nil
	case f.External != nil:
		return f.External.URL, nil
	}
	return "", nil
}

func joinPlain(fragments []RichText) string {
	if len(fragments) == 1 {
		return fragments[0].PlainText
	}
	var out string
	for _, f := range fragments {
		out += f.PlainText
	}
	return out
}
