package ids

import (
	"sort"
	"sync"
	"testing"
)

func TestNewIsUniqueAndSortable(t *testing.T) {
	const n = 1000

	seen := make(map[string]struct{}, n)
	generated := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := New()
		if len(id) != 26 {
			t.Fatalf("unexpected id length %d for %q", len(id), id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
		generated = append(generated, id)
	}

	// Sequential generation from one process is monotonic, so the
	// generated order is already the sorted order.
	if !sort.StringsAreSorted(generated) {
		t.Fatal("sequential ids are not lexicographically ordered")
	}
}

func TestNewConcurrent(t *testing.T) {
	const workers = 8
	const perWorker = 200

	var mu sync.Mutex
	seen := make(map[string]struct{}, workers*perWorker)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				id := New()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Fatalf("expected %d unique ids, got %d", workers*perWorker, len(seen))
	}
}
