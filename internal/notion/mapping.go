// Linkdeck - Personal Bookmarks Dashboard for Notion
// Copyright 2026 M. Robles (mrobles)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mrobles/linkdeck

package notion

import (
	"github.com/mrobles/linkdeck/internal/models"
)

// Bookmark database property names. These mirror the column names in the
// Notion workspace.
const (
	propName           = "Name"
	propURL            = "URL"
	propAlternateURL   = "AlternateURL"
	propSubtitle       = "Subtitle"
	propTags           = "Tags"
	propCategory       = "Category"
	propVisibleAtStart = "Visible at Start"
	propStatus         = "Status"
	propValoration     = "Valoration"
	propCreatedTime    = "Created time"

	// Image columns. imageS3/imageS3Dark hold mirrored canonical URLs and
	// are the only columns this service writes. The original URL comes
	// from an explicit url column, a formula, or a files attachment, in
	// that order of preference.
	propImageS3       = "imageS3"
	propImageS3Dark   = "imageS3Dark"
	propImageURLBase  = "imageUrlBase"
	propImageFormula  = "imageUrl"
	propImageFiles    = "image"
	propImageURLBaseD = "imageUrlBaseDark"
	propImageFormulaD = "imageUrlDark"
	propImageFilesD   = "imageDark"
)

// Category database property names.
const (
	propOrder  = "Order"
	propLevel  = "Level"
	propParent = "Padre"
	propChild  = "Hijo"
)

// mapBookmark decodes a Notion page into a Bookmark. A DecodeError on
// any property aborts the mapping; schema drift must surface rather than
// feed half-decoded records into the mirroring pipeline.
func mapBookmark(pageID string, props Properties) (models.Bookmark, error) {
	var (
		b   models.Bookmark
		err error
	)
	b.ID = pageID

	if b.Name, err = props.PlainTitle(propName); err != nil {
		return b, err
	}
	if b.URL, err = props.URLValue(propURL); err != nil {
		return b, err
	}
	if b.AlternateURL, err = props.URLValue(propAlternateURL); err != nil {
		return b, err
	}
	if b.Subtitle, err = props.PlainRichText(propSubtitle); err != nil {
		return b, err
	}
	if b.Tags, err = props.MultiSelectNames(propTags); err != nil {
		return b, err
	}

	catIDs, err := props.RelationIDs(propCategory)
	if err != nil {
		return b, err
	}
	if len(catIDs) > 0 {
		b.CategoryID = catIDs[0]
	}

	if b.VisibleAtStart, err = props.CheckboxValue(propVisibleAtStart); err != nil {
		return b, err
	}
	if b.Status, err = props.SelectName(propStatus); err != nil {
		return b, err
	}
	if b.Status == "" {
		b.Status = models.StatusNotStarted
	}
	if b.Valoration, err = props.SelectName(propValoration); err != nil {
		return b, err
	}
	if b.CreatedTime, err = props.CreatedTimeValue(propCreatedTime); err != nil {
		return b, err
	}

	if b.OriginalImageURL, err = firstImageURL(props, propImageURLBase, propImageFormula, propImageFiles); err != nil {
		return b, err
	}
	if b.OriginalImageURLDark, err = firstImageURL(props, propImageURLBaseD, propImageFormulaD, propImageFilesD); err != nil {
		return b, err
	}

	// A mirrored URL, when present, wins over the original source URL.
	mirrored, err := props.URLValue(propImageS3)
	if err != nil {
		return b, err
	}
	mirroredDark, err := props.URLValue(propImageS3Dark)
	if err != nil {
		return b, err
	}
	b.ImageURL = firstNonEmpty(mirrored, b.OriginalImageURL)
	b.ImageURLDark = firstNonEmpty(mirroredDark, b.OriginalImageURLDark)

	return b, nil
}

// firstImageURL resolves an original image URL from a url column, then a
// string formula, then the first files attachment.
func firstImageURL(props Properties, urlProp, formulaProp, filesProp string) (string, error) {
	if u, err := props.URLValue(urlProp); err != nil || u != "" {
		return u, err
	}
	if u, err := props.FormulaString(formulaProp); err != nil || u != "" {
		return u, err
	}
	return props.FirstFileURL(filesProp)
}

// mapCategory decodes a Notion page into a Category.
func mapCategory(pageID string, props Properties) (models.Category, error) {
	var (
		c   models.Category
		err error
	)
	c.ID = pageID

	if c.Name, err = props.PlainTitle(propName); err != nil {
		return c, err
	}
	if c.Order, err = props.NumberValue(propOrder); err != nil {
		return c, err
	}
	if c.Level, err = props.NumberValue(propLevel); err != nil {
		return c, err
	}

	parents, err := props.RelationIDs(propParent)
	if err != nil {
		return c, err
	}
	if len(parents) > 0 {
		c.ParentID = parents[0]
	}
	if c.ChildIDs, err = props.RelationIDs(propChild); err != nil {
		return c, err
	}

	return c, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
