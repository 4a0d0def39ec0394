package engine

import "github.com/roach88/quotesync/internal/model"

// Apply returns the record set that results from applying plan to local.
//
// Overwrites land at their index, additions are appended in plan order, and
// any later record sharing a key with an earlier one is collapsed into the
// earlier one. local is not modified.
func Apply(local []model.Record, plan Plan) []model.Record {
	out := make([]model.Record, len(local), len(local)+len(plan.Additions))
	copy(out, local)
	for _, ow := range plan.Overwrites {
		out[ow.Index] = ow.Record
	}
	out = append(out, plan.Additions...)
	deduped, _ := Dedupe(out)
	return deduped
}

// Dedupe keeps the first record for every key and reports how many later
// duplicates were removed. The input slice is reused.
func Dedupe(records []model.Record) ([]model.Record, int) {
	seen := make(map[model.Key]struct{}, len(records))
	out := records[:0]
	removed := 0
	for _, r := range records {
		if _, ok := seen[r.Key()]; ok {
			removed++
			continue
		}
		seen[r.Key()] = struct{}{}
		out = append(out, r)
	}
	return out, removed
}
