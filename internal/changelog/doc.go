// Package changelog implements the incremental change-feed core: an
// append-only log of entity mutation events with a single confirmed
// checkpoint per entity class.
//
// Each tracked entity class (exportable movements, billing transactions) owns
// one Log. Events are appended in the same Pebble batch as the entity
// mutation they record, so entity state and its change feed can never
// diverge. Consumers page through events with List, then confirm a
// checkpoint with Ack; a confirmed checkpoint atomically advances the
// tracker and (optionally) purges the confirmed prefix of the log.
//
// Event ids are gap-free, strictly increasing uint64 values and are never
// reused, even after a purge.
package changelog
