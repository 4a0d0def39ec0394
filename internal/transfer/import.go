package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/quotesync/internal/engine"
	"github.com/roach88/quotesync/internal/model"
	"github.com/roach88/quotesync/internal/remote"
)

// ErrNoValidRecords is returned by Import when the file holds no record that
// passes validation.
var ErrNoValidRecords = errors.New("no valid quotes found in the file")

// ImportResult reports what an import did.
type ImportResult struct {
	Imported int `json:"imported"`

	// Skipped counts valid records whose exact key was already present.
	Skipped int `json:"skipped"`

	// Dropped counts elements that failed validation.
	Dropped int `json:"dropped"`

	NewCategories []string `json:"new_categories"`
}

// Import appends the records in data whose key is not yet in the store and
// registers their categories. name selects the format by extension (.yaml,
// .yml, otherwise JSON). cats may be nil.
func Import(ctx context.Context, name string, data []byte, store engine.LocalStore, cats engine.CategoryRegistry) (ImportResult, error) {
	p, err := remote.DecodeFile(name, data)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import %s: %w", name, err)
	}
	if len(p.Records) == 0 {
		return ImportResult{Dropped: p.Dropped}, ErrNoValidRecords
	}

	res := ImportResult{Dropped: p.Dropped}
	err = store.Update(ctx, func(local []model.Record) ([]model.Record, error) {
		out, added := appendAbsent(local, p.Records)
		res.Imported = added
		res.Skipped = len(p.Records) - added
		return out, nil
	})
	if err != nil {
		return ImportResult{}, fmt.Errorf("import %s: %w", name, err)
	}

	names := append(append([]string{}, p.Categories...), model.Categories(p.Records)...)
	res.NewCategories, err = register(ctx, cats, names)
	if err != nil {
		return res, fmt.Errorf("import %s: %w", name, err)
	}

	slog.Info("import complete",
		"file", name,
		"imported", res.Imported,
		"skipped", res.Skipped,
		"dropped", res.Dropped,
	)
	return res, nil
}

// appendAbsent appends each record whose exact key is not in local (or
// earlier in records) and returns the new slice and the number appended.
func appendAbsent(local, records []model.Record) ([]model.Record, int) {
	seen := make(map[model.Key]struct{}, len(local)+len(records))
	for _, r := range local {
		seen[r.Key()] = struct{}{}
	}

	out := model.Clone(local)
	added := 0
	for _, r := range records {
		if _, ok := seen[r.Key()]; ok {
			continue
		}
		seen[r.Key()] = struct{}{}
		out = append(out, r)
		added++
	}
	return out, added
}

// register adds names to cats and returns those that were new.
func register(ctx context.Context, cats engine.CategoryRegistry, names []string) ([]string, error) {
	if cats == nil || len(names) == 0 {
		return nil, nil
	}
	known, err := cats.Known(ctx)
	if err != nil {
		return nil, err
	}
	set := model.NewCategorySet(known...)

	var fresh []string
	for _, n := range names {
		if n != "" && set.Add(n) {
			fresh = append(fresh, n)
		}
	}
	if len(fresh) == 0 {
		return nil, nil
	}
	if err := cats.Register(ctx, fresh...); err != nil {
		return nil, err
	}
	return fresh, nil
}
