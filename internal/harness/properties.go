package harness

import (
	"fmt"
	"path/filepath"
	"reflect"
	"sort"

	"github.com/roach88/quotesync/internal/engine"
	"github.com/roach88/quotesync/internal/model"
)

// CheckSync verifies the properties every successful cycle must hold,
// given the store before and after the cycle and the remote result it merged.
// Returns one message per violated property.
func CheckSync(before, after []model.Record, remote model.RemoteResult, rep engine.Report) []string {
	var errs []string

	// Identity uniqueness: no two records share a key.
	afterIdx := make(map[model.Key]model.Record, len(after))
	for _, r := range after {
		if _, dup := afterIdx[r.Key()]; dup {
			errs = append(errs, fmt.Sprintf("identity: duplicate key %s after sync", r.Key()))
			continue
		}
		afterIdx[r.Key()] = r
	}

	// The last valid remote occurrence of each key decides its category.
	remoteCat := make(map[model.Key]string)
	for _, r := range remote.Records {
		r = r.Normalize()
		if r.Validate() != nil {
			continue
		}
		remoteCat[r.Key()] = r.Category
	}

	beforeCat := make(map[model.Key]string, len(before))
	for _, r := range before {
		if _, seen := beforeCat[r.Key()]; !seen {
			beforeCat[r.Key()] = r.Category
		}
	}

	// Addition correctness: every remote key is present with the remote category.
	for _, key := range sortedKeys(remoteCat) {
		got, ok := afterIdx[key]
		switch {
		case !ok:
			errs = append(errs, fmt.Sprintf("addition: remote record %s missing after sync", key))
		case got.Category != remoteCat[key]:
			errs = append(errs, fmt.Sprintf("addition: %s has category %q, remote sent %q",
				key, got.Category, remoteCat[key]))
		}
	}

	// Local preservation: keys the remote never mentioned keep their category.
	for _, key := range sortedKeys(beforeCat) {
		got, ok := afterIdx[key]
		if !ok {
			errs = append(errs, fmt.Sprintf("preservation: local record %s lost", key))
			continue
		}
		if _, touched := remoteCat[key]; !touched && got.Category != beforeCat[key] {
			errs = append(errs, fmt.Sprintf("preservation: %s changed from %q to %q without remote input",
				key, beforeCat[key], got.Category))
		}
	}

	if want := len(beforeCat) + rep.Added; len(afterIdx) != want {
		errs = append(errs, fmt.Sprintf("addition: expected %d distinct records, got %d", want, len(afterIdx)))
	}

	// Conflict correctness: one entry per divergent key, carrying both sides.
	wantConflicts := 0
	for key, cat := range remoteCat {
		if local, ok := beforeCat[key]; ok && local != cat {
			wantConflicts++
		}
	}
	if len(rep.Conflicts) != wantConflicts {
		errs = append(errs, fmt.Sprintf("conflicts: expected %d, got %d", wantConflicts, len(rep.Conflicts)))
	}
	for _, c := range rep.Conflicts {
		if c.LocalCategory != beforeCat[c.Key] || c.RemoteCategory != remoteCat[c.Key] {
			errs = append(errs, fmt.Sprintf("conflicts: %s recorded %q -> %q, store saw %q -> %q",
				c.Key, c.LocalCategory, c.RemoteCategory, beforeCat[c.Key], remoteCat[c.Key]))
		}
		if c.Resolution != model.RemoteWins || c.Overridden {
			errs = append(errs, fmt.Sprintf("conflicts: %s not auto-resolved remote-wins", c.Key))
		}
		if c.CycleID != rep.CycleID {
			errs = append(errs, fmt.Sprintf("conflicts: %s tagged %q, cycle is %q", c.Key, c.CycleID, rep.CycleID))
		}
	}

	// Idempotence: merging the same payload again changes nothing.
	plan, err := engine.Merge(after, remote, nil)
	if err != nil {
		errs = append(errs, fmt.Sprintf("idempotence: re-merge failed: %v", err))
	} else if !plan.Empty() || len(plan.Conflicts) > 0 {
		errs = append(errs, fmt.Sprintf("idempotence: re-merge would add %d, update %d, record %d conflicts",
			len(plan.Additions), len(plan.Overwrites), len(plan.Conflicts)))
	}

	return errs
}

// CheckUnchanged verifies that a failed cycle left the store and the ledger
// as they were.
func CheckUnchanged(before, after []model.Record, ledgerBefore, ledgerAfter int) []string {
	var errs []string
	if !reflect.DeepEqual(before, after) {
		errs = append(errs, fmt.Sprintf("failed cycle changed the store: %d records before, %d after",
			len(before), len(after)))
	}
	if ledgerBefore != ledgerAfter {
		errs = append(errs, fmt.Sprintf("failed cycle changed the ledger: %d entries before, %d after",
			ledgerBefore, ledgerAfter))
	}
	return errs
}

func sortedKeys(m map[model.Key]string) []model.Key {
	keys := make([]model.Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Text != keys[j].Text {
			return keys[i].Text < keys[j].Text
		}
		return keys[i].Author < keys[j].Author
	})
	return keys
}

// SuiteResult summarizes a directory of scenarios.
type SuiteResult struct {
	TotalScenarios int               `json:"total_scenarios"`
	Passed         int               `json:"passed"`
	Failed         int               `json:"failed"`
	Failures       []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure represents one scenario that did not pass.
type ScenarioFailure struct {
	ScenarioPath string `json:"scenario_path"`
	Error        string `json:"error"`
}

// RunDir loads and runs every *.yaml scenario in dir, in name order.
//
// For each scenario file:
// 1. Load and validate the scenario
// 2. Run it via Run
// 3. Collect and report results
func RunDir(dir string) (*SuiteResult, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	sort.Strings(paths)

	result := &SuiteResult{}
	for _, path := range paths {
		result.TotalScenarios++

		scenario, err := LoadScenario(path)
		if err != nil {
			result.Failed++
			result.Failures = append(result.Failures, ScenarioFailure{
				ScenarioPath: path,
				Error:        fmt.Sprintf("failed to load scenario: %v", err),
			})
			continue
		}

		runResult, err := Run(scenario)
		if err != nil {
			result.Failed++
			result.Failures = append(result.Failures, ScenarioFailure{
				ScenarioPath: path,
				Error:        fmt.Sprintf("scenario execution error: %v", err),
			})
			continue
		}

		if !runResult.Pass {
			result.Failed++
			result.Failures = append(result.Failures, ScenarioFailure{
				ScenarioPath: path,
				Error:        fmt.Sprintf("scenario failed: %v", runResult.Errors),
			})
			continue
		}

		result.Passed++
	}

	return result, nil
}
