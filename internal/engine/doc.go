// Package engine implements the quotesync reconciliation engine.
//
// The engine pulls the remote record set on a schedule, compares it with the
// local collection, and writes back a merged collection plus an audit trail
// of the conflicts it resolved.
//
// ARCHITECTURE:
//
// Collaborators:
// The engine owns no storage. The local store, remote fetcher, conflict
// ledger, category registry and notification sink are interfaces
// (collaborators.go) supplied by the caller.
//
// Cycle Flow:
// 1. Scheduler acquires the busy flag (ticks and triggers that lose are dropped)
// 2. Fetcher returns a RemoteResult; failures end the cycle untouched
// 3. LocalStore.Update runs Merge + Apply against a consistent snapshot
// 4. Conflicts are appended to the Ledger, stamped with the cycle ID
// 5. New categories go to the CategoryRegistry
// 6. Notifier receives the report and the full ledger
//
// Resolution Override runs outside the cycle flow against the ledger and the
// store (override.go).
//
// CRITICAL PATTERNS:
//
// Identity:
// Two records are the same entity iff Text and Author match byte for byte.
// Category is the only field a merge ever changes.
//
// Remote Wins:
// Every detected conflict is resolved in favor of the remote category. A
// human may flip individual entries afterwards through an Overrider.
//
// Pure Merge:
// Merge and Apply never mutate their inputs and never perform I/O. Given the
// same local snapshot and remote result they produce the same plan, and a
// second merge of the same remote result is a no-op.
package engine
