// Package audit implements the buffered security/event trail.
//
// The [Writer] owns the only long-running flush goroutine in the engine:
// events accumulate in a bounded in-memory buffer and are bulk-inserted into
// a durable [Store] on a fixed interval. Critical events force an immediate
// flush. Persistence failures never propagate to request goroutines.
//
// # What this package must NOT do
//
//   - Block or return errors from Record.
//   - Grow the buffer without bound; overflow is counted, not queued.
package audit
