// Package remote implements the remote side of a sync: fetching the
// authoritative record set and reading it into records.
//
// A payload is either a bare JSON array of records or an object of the form
//
//	{"quotes": [...], "categories": [...]}
//
// which is also the shape written by the export command. Each element is
// checked against a CUE schema (schema.go); elements that fail are dropped
// and counted, never fatal. A payload that is not an array or object at all
// fails the cycle as MALFORMED_PAYLOAD.
//
// Fetchers never return errors: HTTPFetcher and FileFetcher encode failures
// in model.RemoteResult so the scheduler classifies them uniformly.
package remote
