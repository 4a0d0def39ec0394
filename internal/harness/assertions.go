package harness

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/quotesync/internal/model"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Records  []model.Record
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Records) > 0 {
		fmt.Fprintf(&buf, "\nLocal store:\n")
		for i, r := range e.Records {
			fmt.Fprintf(&buf, "  [%d] %s [%s]\n", i, r.Key(), r.Category)
		}
	}

	return buf.String()
}

// assertStoreCount checks the number of records in the local store.
func assertStoreCount(final FinalState, assertion Assertion) error {
	if len(final.Records) != assertion.Count {
		return &AssertionError{
			Type:     AssertStoreCount,
			Expected: fmt.Sprintf("%d records", assertion.Count),
			Actual:   fmt.Sprintf("%d records", len(final.Records)),
			Records:  final.Records,
		}
	}
	return nil
}

// assertStoreContains checks that exactly one record carries the key and,
// when a category is given, that it matches.
func assertStoreContains(final FinalState, assertion Assertion) error {
	want := assertion.Record.Normalize()
	var found []model.Record
	for _, r := range final.Records {
		if r.Key() == want.Key() {
			found = append(found, r)
		}
	}

	switch {
	case len(found) == 0:
		return &AssertionError{
			Type:     AssertStoreContains,
			Expected: fmt.Sprintf("record %s", want.Key()),
			Actual:   "not found in store",
			Records:  final.Records,
		}
	case len(found) > 1:
		return &AssertionError{
			Type:     AssertStoreContains,
			Expected: fmt.Sprintf("exactly one record %s", want.Key()),
			Actual:   fmt.Sprintf("%d records share the key", len(found)),
			Records:  final.Records,
		}
	case want.Category != "" && found[0].Category != want.Category:
		return &AssertionError{
			Type:     AssertStoreContains,
			Expected: fmt.Sprintf("%s with category %q", want.Key(), want.Category),
			Actual:   fmt.Sprintf("category %q", found[0].Category),
		}
	}
	return nil
}

// assertStoreAbsent checks that no record carries the key.
func assertStoreAbsent(final FinalState, assertion Assertion) error {
	key := assertion.Record.Normalize().Key()
	for _, r := range final.Records {
		if r.Key() == key {
			return &AssertionError{
				Type:     AssertStoreAbsent,
				Expected: fmt.Sprintf("no record %s", key),
				Actual:   fmt.Sprintf("found with category %q", r.Category),
			}
		}
	}
	return nil
}

// assertLedgerCount checks the number of ledger entries.
func assertLedgerCount(final FinalState, assertion Assertion) error {
	if len(final.Ledger) != assertion.Count {
		return &AssertionError{
			Type:     AssertLedgerCount,
			Expected: fmt.Sprintf("%d ledger entries", assertion.Count),
			Actual:   fmt.Sprintf("%d ledger entries", len(final.Ledger)),
		}
	}
	return nil
}

// assertLedgerEntry checks the entry at Index against Expect (subset
// semantics: only listed fields are compared).
func assertLedgerEntry(final FinalState, assertion Assertion) error {
	if assertion.Index >= len(final.Ledger) {
		return &AssertionError{
			Type:     AssertLedgerEntry,
			Expected: fmt.Sprintf("entry at index %d", assertion.Index),
			Actual:   fmt.Sprintf("ledger has %d entries", len(final.Ledger)),
		}
	}

	actual := entryFields(final.Ledger[assertion.Index])

	keys := make([]string, 0, len(assertion.Expect))
	for k := range assertion.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		expectedValue := assertion.Expect[key]
		actualValue, exists := actual[key]
		if !exists {
			return &AssertionError{
				Type:     AssertLedgerEntry,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q is not a ledger field", key),
			}
		}
		if !valuesEqual(expectedValue, actualValue) {
			return &AssertionError{
				Type:     AssertLedgerEntry,
				Expected: fmt.Sprintf("entry %d field %q = %v", assertion.Index, key, expectedValue),
				Actual:   fmt.Sprintf("entry %d field %q = %v", assertion.Index, key, actualValue),
			}
		}
	}
	return nil
}

// entryFields flattens a ledger entry into the field names scenarios use.
func entryFields(c ConflictTrace) map[string]any {
	return map[string]any{
		"seq":             c.Seq,
		"cycle_id":        c.CycleID,
		"text":            c.Key.Text,
		"author":          c.Key.Author,
		"local_category":  c.LocalCategory,
		"remote_category": c.RemoteCategory,
		"resolution":      string(c.Resolution),
		"overridden":      c.Overridden,
	}
}

// assertCategoriesContains checks that every listed name is registered.
func assertCategoriesContains(final FinalState, assertion Assertion) error {
	known := model.NewCategorySet(final.Categories...)
	var missing []string
	for _, n := range assertion.Names {
		if !known.Has(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return &AssertionError{
			Type:     AssertCategoriesContains,
			Expected: fmt.Sprintf("categories %v", assertion.Names),
			Actual:   fmt.Sprintf("missing %v from %v", missing, final.Categories),
		}
	}
	return nil
}

// valuesEqual compares a YAML-decoded expected value with an actual field.
// YAML integers decode as int; ledger sequence numbers are int64.
func valuesEqual(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}

	switch exp := expected.(type) {
	case int:
		if act, ok := actual.(int64); ok {
			return int64(exp) == act
		}
	case string:
		act, ok := actual.(string)
		return ok && exp == act
	case bool:
		act, ok := actual.(bool)
		return ok && exp == act
	}

	return reflect.DeepEqual(expected, actual)
}

// EvaluateAssertions evaluates all assertions against the final state.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(final FinalState, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertStoreCount:
			err = assertStoreCount(final, assertion)
		case AssertStoreContains:
			err = assertStoreContains(final, assertion)
		case AssertStoreAbsent:
			err = assertStoreAbsent(final, assertion)
		case AssertLedgerCount:
			err = assertLedgerCount(final, assertion)
		case AssertLedgerEntry:
			err = assertLedgerEntry(final, assertion)
		case AssertCategoriesContains:
			err = assertCategoriesContains(final, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
