// Package harness runs scripted sync scenarios against the real engine.
//
// A scenario seeds a local collection, scripts what the remote returns on
// each cycle, interleaves overrides and local deletions, and asserts on the
// resulting store, ledger and category registry.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	categories: [wisdom]
//	local:
//	  - { text: "Know thyself", author: Socrates, category: wisdom }
//	steps:
//	  - sync:
//	      records:
//	        - { text: "Know thyself", author: Socrates, category: philosophy }
//	    expect: { phase: success, conflicts: 1 }
//	  - override: { index: 0, choice: local }
//	    expect: { category: wisdom }
//	assertions:
//	  - type: store_contains
//	    record: { text: "Know thyself", author: Socrates, category: wisdom }
//	  - type: ledger_entry
//	    index: 0
//	    expect: { resolution: local-wins, overridden: true }
//
// # Properties
//
// Every sync step is checked beyond its explicit expectations. A successful
// cycle must keep keys unique, carry every remote record with its remote
// category, keep local records the remote did not mention, record exactly
// one conflict per divergent key, and be idempotent: merging the same payload
// again must plan nothing. A failed cycle must leave the store and the ledger
// untouched.
//
// # Deterministic Testing
//
// The harness uses:
//   - Sequential cycle IDs ("cycle-1", "cycle-2", ... or a scenario prefix)
//   - A step clock starting at testutil.Epoch
//   - In-memory store, ledger and registry (isolated per run)
//
// Golden snapshots omit timestamps, so identical scenarios produce identical
// bytes.
package harness
