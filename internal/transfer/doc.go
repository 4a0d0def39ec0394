// Package transfer works on the local collection outside of sync cycles:
// JSON export and import, the built-in sample set, manual additions,
// browsing and statistics, category deletion, resetting to the samples, and
// favorites.
//
// Every mutation of the collection goes through engine.LocalStore.Update, so
// these operations are atomic with respect to a concurrently running sync
// cycle and keep the one-record-per-key invariant.
package transfer
