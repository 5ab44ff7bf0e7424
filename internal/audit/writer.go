package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/authcore/internal/ids"
)

// WriterConfig controls writer buffering behavior.
type WriterConfig struct {
	Enabled       bool
	BufferSize    int
	FlushInterval time.Duration
	FlushTimeout  time.Duration
}

// Writer buffers audit events and flushes them to the durable store in
// batches on a fixed interval. Record never blocks the caller and never
// surfaces persistence failures; failed batches are re-queued up to the
// buffer bound and counted as dropped beyond it.
//
// Critical-severity events kick an immediate out-of-band flush to minimize
// the loss window for high-value signals.
type Writer struct {
	cfg   WriterConfig
	store Store

	mu  sync.Mutex
	buf []Event

	// flushMu serializes flushes so a forced Flush cannot return while a
	// swapped batch is still in flight on the background loop.
	flushMu sync.Mutex

	kick      chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewWriter starts the flush loop and returns the writer. A nil writer is
// returned when auditing is disabled; all methods are nil-safe.
func NewWriter(cfg WriterConfig, store Store) *Writer {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Minute
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = 5 * time.Second
	}

	w := &Writer{
		cfg:   cfg,
		store: store,
		buf:   make([]Event, 0, cfg.BufferSize),
		kick:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}

	w.wg.Add(1)
	go w.run()

	return w
}

// Record appends the event to the buffer, assigning an id and timestamp
// when absent. It never blocks and never returns an error.
func (w *Writer) Record(event Event) {
	if w == nil {
		return
	}
	if w.closed.Load() {
		// Lost to shutdown, but still lost. Keep the counter honest.
		w.dropped.Add(1)
		return
	}

	if event.ID == "" {
		event.ID = ids.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	w.mu.Lock()
	if len(w.buf) >= w.cfg.BufferSize {
		w.dropped.Add(1)
		w.mu.Unlock()
		return
	}
	w.buf = append(w.buf, event)
	w.mu.Unlock()

	if event.Severity == SeverityCritical {
		select {
		case w.kick <- struct{}{}:
		default:
		}
	}
}

func (w *Writer) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.flush()
		case <-w.kick:
			w.flush()
		case <-w.done:
			w.flush()
			return
		}
	}
}

func (w *Writer) flush() {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	w.mu.Lock()
	if len(w.buf) == 0 {
		w.mu.Unlock()
		return
	}
	batch := w.buf
	w.buf = make([]Event, 0, w.cfg.BufferSize)
	w.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.FlushTimeout)
	err := w.store.InsertMany(ctx, batch)
	cancel()
	if err == nil {
		return
	}

	// Best-effort re-queue: keep what still fits, count the rest as dropped.
	w.mu.Lock()
	space := w.cfg.BufferSize - len(w.buf)
	if space > len(batch) {
		space = len(batch)
	}
	if space > 0 {
		w.buf = append(w.buf, batch[:space]...)
	}
	if lost := len(batch) - space; lost > 0 {
		w.dropped.Add(uint64(lost))
	}
	w.mu.Unlock()
}

// Flush forces a synchronous flush. Intended for tests and shutdown paths.
func (w *Writer) Flush() {
	if w == nil {
		return
	}
	w.flush()
}

// Buffered returns the number of events currently awaiting flush.
func (w *Writer) Buffered() int {
	if w == nil {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buf)
}

// Dropped returns the count of events lost to buffer pressure or
// persistent store failure.
func (w *Writer) Dropped() uint64 {
	if w == nil {
		return 0
	}
	return w.dropped.Load()
}

// Close stops the flush loop after a final drain.
func (w *Writer) Close() {
	if w == nil {
		return
	}
	w.closeOnce.Do(func() {
		w.closed.Store(true)
		close(w.done)
		w.wg.Wait()
	})
}
