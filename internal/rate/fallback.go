package rate

import (
	"sync"
	"time"

	xrate "golang.org/x/time/rate"
)

const fallbackIdleEviction = 10 * time.Minute

// fallbackLimiter is the bounded in-process degradation path used while
// Redis is unreachable. It holds one token-bucket limiter per (key,
// category), guarded by a mutex; entries idle past fallbackIdleEviction are
// removed by a fixed-interval sweep goroutine.
//
// The bucket approximates the category budget (Max hits per Window). It is
// deliberately coarser than the Redis path: the point is to keep abusive
// keys bounded during an outage, not to preserve exact window semantics.
type fallbackLimiter struct {
	mu      sync.Mutex
	entries map[string]*fallbackEntry
	maxKeys int
	done    chan struct{}
	once    sync.Once
}

type fallbackEntry struct {
	limiter  *xrate.Limiter
	lastSeen time.Time
}

func newFallbackLimiter(maxKeys int, pruneEvery time.Duration) *fallbackLimiter {
	f := &fallbackLimiter{
		entries: make(map[string]*fallbackEntry),
		maxKeys: maxKeys,
		done:    make(chan struct{}),
	}

	go f.prune(pruneEvery)

	return f
}

func fallbackKey(key, category string) string {
	return category + ":" + key
}

func (f *fallbackLimiter) check(key, category string, cat Category, now time.Time) Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := fallbackKey(key, category)
	entry, ok := f.entries[k]
	if !ok {
		// At capacity, untracked keys are allowed: the fallback stays
		// bounded and fails open rather than evicting under contention.
		if len(f.entries) >= f.maxKeys {
			return Result{Remaining: cat.Max, ResetAt: now.Add(cat.Window)}
		}

		interval := cat.Window / time.Duration(cat.Max)
		if interval <= 0 {
			interval = time.Millisecond
		}
		entry = &fallbackEntry{
			limiter: xrate.NewLimiter(xrate.Every(interval), cat.Max),
		}
		f.entries[k] = entry
	}
	entry.lastSeen = now

	if !entry.limiter.Allow() {
		return Result{
			Blocked:    true,
			Remaining:  0,
			ResetAt:    now.Add(cat.Window),
			RetryAfter: cat.Window,
		}
	}

	remaining := int(entry.limiter.Tokens())
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Blocked:   false,
		Remaining: remaining,
		ResetAt:   now.Add(cat.Window),
	}
}

func (f *fallbackLimiter) reset(key, category string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.entries, fallbackKey(key, category))
}

func (f *fallbackLimiter) prune(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-fallbackIdleEviction)
			f.mu.Lock()
			for k, entry := range f.entries {
				if entry.lastSeen.Before(cutoff) {
					delete(f.entries, k)
				}
			}
			f.mu.Unlock()
		case <-f.done:
			return
		}
	}
}

func (f *fallbackLimiter) close() {
	f.once.Do(func() {
		close(f.done)
	})
}
