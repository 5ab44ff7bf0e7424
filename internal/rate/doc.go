// Package rate implements per-key, per-category request throttling with
// temporary blocking.
//
// Each category ("login", "api", "admin") carries a fixed window, a hit
// budget, and a block duration. The window counter is a single atomic Redis
// INCR: correctness under contention is the whole point, so the increment is
// never a read-then-write.
//
// # Failure policy
//
// The limiter fails open. When Redis is unreachable it degrades to a
// bounded, mutex-guarded in-process limiter that is pruned on a fixed
// interval, rather than vanishing or denying real traffic.
//
// # What this package must NOT do
//
//   - Block request goroutines on the pruning sweep.
//   - Reveal whether a given key exists prior to being limited.
package rate
