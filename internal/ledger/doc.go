// Package ledger persists the finance domain entities: accounts,
// transactions, invoices and frequent-transaction templates.
//
// Entities are stored as JSON values under big-endian-keyed Pebble keys with
// per-store sequence counters. Mutations of transactions on the billing
// account additionally append a snapshot event to the billing change log in
// the same batch, so the entity write and its event are committed together.
package ledger
