package storage

import (
	"sync"
	"time"

	"semestercalc/internal/logging"
)

// DefaultWriteDebounce is how long a scheduled save waits for further
// changes to the same document before hitting the backend.
const DefaultWriteDebounce = 180 * time.Millisecond

// Writer coalesces document saves. Editing re-serializes the whole
// store on every keystroke, so writes are debounced per key and a
// save whose payload matches the last scheduled one for that key is
// dropped entirely. The latest payload always wins: scheduling again
// before the timer fires replaces the pending value and restarts the
// wait.
type Writer struct {
	mu       sync.Mutex
	gateway  Gateway
	debounce time.Duration

	pending map[string]string
	timers  map[string]*time.Timer
	// lastQueued is the last payload accepted per key, compared at
	// schedule time (a no-change save never arms a timer).
	lastQueued map[string]string
	closed     bool
}

// NewWriter wraps a gateway with debounced writes. debounce <= 0 uses
// the default window.
func NewWriter(gateway Gateway, debounce time.Duration) *Writer {
	if debounce <= 0 {
		debounce = DefaultWriteDebounce
	}
	return &Writer{
		gateway:    gateway,
		debounce:   debounce,
		pending:    make(map[string]string),
		timers:     make(map[string]*time.Timer),
		lastQueued: make(map[string]string),
	}
}

// Schedule queues a debounced save of value under key. Blank keys and
// payloads identical to the previous schedule for the key are ignored.
func (w *Writer) Schedule(key, value string) {
	if key == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if last, ok := w.lastQueued[key]; ok && last == value {
		logging.StoreDebug("Skipping unchanged save for %q", key)
		return
	}
	w.lastQueued[key] = value
	w.pending[key] = value

	if t, ok := w.timers[key]; ok {
		t.Stop()
	}
	w.timers[key] = time.AfterFunc(w.debounce, func() {
		w.flushKey(key)
	})
}

// SaveNow writes value under key immediately, superseding any pending
// debounced save for the key.
func (w *Writer) SaveNow(key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dropPendingLocked(key)
	w.lastQueued[key] = value
	return w.gateway.Save(key, value)
}

// DeleteNow removes the document under key immediately, discarding any
// pending save for it.
func (w *Writer) DeleteNow(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dropPendingLocked(key)
	delete(w.lastQueued, key)
	return w.gateway.Delete(key)
}

// Load reads through to the gateway.
func (w *Writer) Load(key string) (string, bool, error) {
	return w.gateway.Load(key)
}

// Flush synchronously writes every pending document.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushAllLocked()
}

// Close flushes pending writes and stops all timers. The underlying
// gateway is not closed; the owner closes it separately.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	err := w.flushAllLocked()
	w.closed = true
	return err
}

// PendingCount reports how many documents are waiting on a timer.
func (w *Writer) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

func (w *Writer) flushKey(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	value, ok := w.pending[key]
	if !ok {
		return
	}
	delete(w.pending, key)
	delete(w.timers, key)
	if err := w.gateway.Save(key, value); err != nil {
		logging.StoreError("Debounced save of %q failed: %v", key, err)
	}
}

func (w *Writer) flushAllLocked() error {
	var firstErr error
	for key, value := range w.pending {
		if t, ok := w.timers[key]; ok {
			t.Stop()
		}
		if err := w.gateway.Save(key, value); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	w.pending = make(map[string]string)
	w.timers = make(map[string]*time.Timer)
	return firstErr
}

func (w *Writer) dropPendingLocked(key string) {
	if t, ok := w.timers[key]; ok {
		t.Stop()
		delete(w.timers, key)
	}
	delete(w.pending, key)
}
