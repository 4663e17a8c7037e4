// Package client provides the `tally` command-line client.
//
// The CLI talks to the Tally HTTP API to perform common ledger and
// synchronization operations from a terminal. It is primarily intended
// for developers and operators.
//
// # Address configuration
//
// The HTTP base URL is discovered by the application that embeds the
// commands via a BaseURLFunc. When using the standalone binary, it reads
// the TALLY_HTTP environment variable and defaults to
// http://127.0.0.1:8080.
//
// Usage
//
//	tally account list
//	tally account list --include-inactive
//	tally account balances --as-of 2026-08-01
//	tally account summary --id 1
//
//	# Pull pending exportable movement changes, then confirm them
//	tally changes list --limit 100
//	tally changes list --filter 'event == "created"'
//	tally changes ack --checkpoint 42
//
//	# Pull the combined billing feed, confirm both windows, trim retained events
//	tally billing movements --limit 200 --changes-limit 100
//	tally billing ack --checkpoint 42 --changes-checkpoint 17
//	tally billing trim
//
// Notes
//
//   - changes list accepts --since to re-read from an explicit position
//     instead of the saved checkpoint; the checkpoint only moves on ack.
//   - billing ack advances the billing window without deleting events;
//     use billing trim to reclaim space once a checkpoint is confirmed.
//   - filter is a CEL expression evaluated server-side against each
//     change (id, entity_id, event, occurred_at_ms, text, json, now_ms).
package client
