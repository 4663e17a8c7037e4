// Package billing serves the billing-account synchronization feed.
//
// It reads the billing transaction event log and projects, from one scan,
// both the authoritative event list (including deletions) and the convenience
// current-state views that exclude them. The combined movements response also
// carries the pending exportable-movement changes so a consumer syncs both
// feeds in a single round trip.
package billing
