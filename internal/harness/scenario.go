package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/quotesync/internal/model"
)

// Scenario defines a sync test scenario.
// Scenarios seed a local collection, run a sequence of sync cycles and
// overrides against the real engine, and assert on the resulting state.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Local is the initial local collection.
	Local []model.Record `yaml:"local,omitempty"`

	// Categories seeds the category registry.
	Categories []string `yaml:"categories,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	// Supported types: store_count, store_contains, store_absent,
	// ledger_count, ledger_entry, categories_contains
	Assertions []Assertion `yaml:"assertions"`

	// CyclePrefix prefixes the sequential cycle IDs. Defaults to "cycle".
	CyclePrefix string `yaml:"cycle_prefix,omitempty"`
}

// Step is one scenario action. Exactly one of Sync, Override and Remove
// must be set.
type Step struct {
	Sync     *SyncStep     `yaml:"sync,omitempty"`
	Override *OverrideStep `yaml:"override,omitempty"`
	Remove   *model.Key    `yaml:"remove,omitempty"`

	// Expect optionally checks the step outcome.
	Expect *StepExpect `yaml:"expect,omitempty"`
}

// SyncStep scripts the remote result for one cycle.
// Fail and Malformed are mutually exclusive; with neither set the fetch
// succeeds with Records.
type SyncStep struct {
	Records []model.Record `yaml:"records,omitempty"`

	// Dropped is the number of elements the fetcher already discarded.
	Dropped int `yaml:"dropped,omitempty"`

	// Fail makes the fetch fail with this message.
	Fail string `yaml:"fail,omitempty"`

	// Malformed makes the fetch report an unreadable payload.
	Malformed string `yaml:"malformed,omitempty"`
}

// OverrideStep applies a human choice to a ledger entry.
type OverrideStep struct {
	Index  int    `yaml:"index"`
	Choice string `yaml:"choice"`
}

// StepExpect holds expected step outcomes. Nil fields are not checked.
type StepExpect struct {
	Phase     string `yaml:"phase,omitempty"`
	Added     *int   `yaml:"added,omitempty"`
	Updated   *int   `yaml:"updated,omitempty"`
	Conflicts *int   `yaml:"conflicts,omitempty"`
	Dropped   *int   `yaml:"dropped,omitempty"`
	Collapsed *int   `yaml:"collapsed,omitempty"`

	// Error is the expected engine error code of an override, or "none".
	Error string `yaml:"error,omitempty"`

	// Category is the category an override leaves in place.
	Category string `yaml:"category,omitempty"`
}

// Assertion validates final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "store_count": The local store holds exactly Count records
	// - "store_contains": Record is present; category checked if non-empty
	// - "store_absent": No record has Record's key
	// - "ledger_count": The ledger holds exactly Count entries
	// - "ledger_entry": Entry at Index matches Expect (subset)
	// - "categories_contains": Every name in Names is registered
	Type string `yaml:"type"`

	Count  int            `yaml:"count,omitempty"`
	Record *model.Record  `yaml:"record,omitempty"`
	Index  int            `yaml:"index,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`
	Names  []string       `yaml:"names,omitempty"`
}

// Assertion type constants.
const (
	AssertStoreCount         = "store_count"
	AssertStoreContains      = "store_contains"
	AssertStoreAbsent        = "store_absent"
	AssertLedgerCount        = "ledger_count"
	AssertLedgerEntry        = "ledger_entry"
	AssertCategoriesContains = "categories_contains"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, s *Step) error {
	set := 0
	for _, present := range []bool{s.Sync != nil, s.Override != nil, s.Remove != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of sync, override or remove is required", index)
	}

	switch {
	case s.Sync != nil:
		if s.Sync.Fail != "" && s.Sync.Malformed != "" {
			return fmt.Errorf("steps[%d].sync: fail and malformed are mutually exclusive", index)
		}
		if s.Expect != nil && s.Expect.Phase != "" &&
			s.Expect.Phase != string(model.PhaseSuccess) && s.Expect.Phase != string(model.PhaseFailed) {
			return fmt.Errorf("steps[%d].expect: phase must be success or failed", index)
		}
	case s.Override != nil:
		if _, err := model.ParseChoice(s.Override.Choice); err != nil {
			return fmt.Errorf("steps[%d].override: %w", index, err)
		}
	case s.Remove != nil:
		if s.Remove.Text == "" {
			return fmt.Errorf("steps[%d].remove: text is required", index)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertStoreCount, AssertLedgerCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertStoreContains, AssertStoreAbsent:
		if a.Record == nil || a.Record.Text == "" {
			return fmt.Errorf("assertions[%d]: record with text is required for %s", index, a.Type)
		}
	case AssertLedgerEntry:
		if a.Index < 0 {
			return fmt.Errorf("assertions[%d]: index must be non-negative for ledger_entry", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for ledger_entry", index)
		}
	case AssertCategoriesContains:
		if len(a.Names) == 0 {
			return fmt.Errorf("assertions[%d]: names is required for categories_contains", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
