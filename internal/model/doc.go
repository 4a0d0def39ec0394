// Package model defines the data exchanged between the sync engine and its
// collaborators.
//
// A Record is the unit of synchronization. Its entity key is the exact,
// case-sensitive (text, author) pair; category is the only attribute allowed to
// diverge between the local and remote copies of the same entity, and such a
// divergence is exactly what a Conflict records.
//
// All types serialize to plain JSON with snake_case field names so the store,
// the CLI and remote payloads share one wire shape.
package model
