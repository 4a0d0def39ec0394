package engine

import "github.com/roach88/quotesync/internal/model"

// Overwrite replaces the local record at Index.
type Overwrite struct {
	Index  int          `json:"index"`
	Record model.Record `json:"record"`
}

// Plan is the outcome of merging one remote result into a local snapshot.
// Nothing in a Plan has been applied yet; see Apply.
type Plan struct {
	Additions     []model.Record   `json:"additions"`
	Overwrites    []Overwrite      `json:"overwrites"`
	Conflicts     []model.Conflict `json:"conflicts"`
	NewCategories []string         `json:"new_categories"`

	// Collapsed counts remote records dropped because a later record in the
	// same batch carried the same key.
	Collapsed int `json:"collapsed"`

	// Dropped counts remote records that failed shape validation, including
	// those already dropped by the fetcher.
	Dropped int `json:"dropped"`
}

// Empty reports whether applying the plan would change nothing.
func (p Plan) Empty() bool {
	return len(p.Additions) == 0 && len(p.Overwrites) == 0
}

// Merge compares a successful remote result against the local snapshot.
//
// For every remote record, in input order: a key absent locally becomes an
// addition; a key present with the same category is left alone; a key present
// with a different category is a conflict, resolved remote-wins by queueing an
// overwrite of the first matching local record.
//
// Merge is pure. It never mutates local or remote, and its output depends only
// on its inputs (conflict timestamps come from remote.Timestamp).
//
// Categories absent from known that the plan would introduce are listed once
// each in NewCategories, in first-seen order. known may be nil.
func Merge(local []model.Record, remote model.RemoteResult, known model.CategorySet) (Plan, error) {
	if !remote.Success {
		return Plan{}, ErrRemoteFailed
	}

	batch, collapsed, dropped := collapseBatch(remote.Records)
	plan := Plan{
		Collapsed: collapsed,
		Dropped:   remote.Dropped + dropped,
	}

	reported := make(model.CategorySet)
	noteCategory := func(c string) {
		if c == "" || known.Has(c) {
			return
		}
		if reported.Add(c) {
			plan.NewCategories = append(plan.NewCategories, c)
		}
	}

	idx := NewIndex(local)
	for _, r := range batch {
		i := idx.Lookup(r.Key())
		if i == NotFound {
			plan.Additions = append(plan.Additions, r)
			noteCategory(r.Category)
			continue
		}

		cur := local[i]
		if cur.Category == r.Category {
			continue
		}

		plan.Conflicts = append(plan.Conflicts, model.Conflict{
			Key:            r.Key(),
			LocalCategory:  cur.Category,
			RemoteCategory: r.Category,
			Resolution:     model.RemoteWins,
			DetectedAt:     remote.Timestamp,
		})
		cur.Category = r.Category
		plan.Overwrites = append(plan.Overwrites, Overwrite{Index: i, Record: cur})
		noteCategory(r.Category)
	}

	return plan, nil
}

// collapseBatch normalizes and validates remote records and folds duplicate
// keys into the position of their first occurrence, keeping the category of
// the last one.
func collapseBatch(records []model.Record) (out []model.Record, collapsed, dropped int) {
	pos := make(map[model.Key]int, len(records))
	out = make([]model.Record, 0, len(records))
	for _, r := range records {
		r = r.Normalize()
		if err := r.Validate(); err != nil {
			dropped++
			continue
		}
		if i, ok := pos[r.Key()]; ok {
			out[i].Category = r.Category
			collapsed++
			continue
		}
		pos[r.Key()] = len(out)
		out = append(out, r)
	}
	return out, collapsed, dropped
}
