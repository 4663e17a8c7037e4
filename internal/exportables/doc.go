// Package exportables manages exportable movements, the billing-account
// entries that an external bookkeeping system reconciles against.
//
// Every create, update and delete of a movement appends a change event to the
// movement change log in the same batch as the entity write, so the sync feed
// can never observe a movement without its event or vice versa. Consumers
// page through the feed with ListChanges and confirm processed events with
// Ack, which purges the confirmed prefix.
package exportables
