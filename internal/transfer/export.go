package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/roach88/quotesync/internal/engine"
	"github.com/roach88/quotesync/internal/model"
)

// ErrEmptyCollection is returned by Export when there is nothing to export.
var ErrEmptyCollection = errors.New("no quotes to export")

// Document is the export file format. Import accepts it as well as a bare
// array of quotes.
type Document struct {
	Quotes          []model.Record `json:"quotes"`
	Categories      []string       `json:"categories"`
	ExportDate      time.Time      `json:"exportDate"`
	TotalQuotes     int            `json:"totalQuotes"`
	TotalCategories int            `json:"totalCategories"`
}

// Export writes the collection to w as an indented Document.
//
// Categories are the registry's list followed by any category used by a
// record but missing from the registry. cats may be nil.
func Export(ctx context.Context, w io.Writer, store engine.LocalStore, cats engine.CategoryRegistry, now time.Time) (Document, error) {
	records, err := store.ReadAll(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("export: %w", err)
	}
	if len(records) == 0 {
		return Document{}, ErrEmptyCollection
	}

	var known []string
	if cats != nil {
		if known, err = cats.Known(ctx); err != nil {
			return Document{}, fmt.Errorf("export: %w", err)
		}
	}
	set := model.NewCategorySet(known...)
	categories := append([]string{}, known...)
	for _, c := range model.Categories(records) {
		if set.Add(c) {
			categories = append(categories, c)
		}
	}

	doc := Document{
		Quotes:          records,
		Categories:      categories,
		ExportDate:      now.UTC(),
		TotalQuotes:     len(records),
		TotalCategories: len(categories),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return Document{}, fmt.Errorf("export: encode: %w", err)
	}
	return doc, nil
}

// ExportFileName is the default file name for an export taken at now.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("quotes_%s.json", now.UTC().Format(time.DateOnly))
}
