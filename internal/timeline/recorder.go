package timeline

import (
	"time"
)

// DefaultDebounce is the edit-coalescing window: row edits landing
// within it collapse into a single history entry.
const DefaultDebounce = 160 * time.Millisecond

// DefaultCap bounds the past stack; pushing beyond it evicts the oldest
// snapshots first.
const DefaultCap = 80

// Mode is the recorder's re-entrancy state. While Restoring, edit
// recording is suppressed so that installing an undone/redone/loaded
// document is never itself recorded as an undoable edit.
type Mode int

const (
	Idle Mode = iota
	Restoring
)

// Recorder maintains one history's past/future stacks and debounces
// edit pushes.
//
// The recorder is single-owner: every method must be called with the
// owning orchestrator's lock held. The debounce timer fires on its own
// goroutine, so it never touches the stacks directly — it only invokes
// the fire callback with a generation token, and the owner re-enters
// through CompletePush under its lock. A stale generation (edit batch
// cancelled, history switched) makes CompletePush a no-op, which is the
// guard against a straggling timer acting on the wrong history.
type Recorder struct {
	past   []Document
	future []Document

	cap      int
	debounce time.Duration
	mode     Mode

	timer      *time.Timer
	generation uint64
	pending    *Document
	fire       func(generation uint64)
}

// NewRecorder creates an empty recorder. fire is invoked from the
// debounce timer goroutine when a scheduled push matures; the owner is
// expected to relock and call CompletePush with the same generation.
func NewRecorder(cap int, debounce time.Duration, fire func(generation uint64)) *Recorder {
	if cap <= 0 {
		cap = DefaultCap
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Recorder{cap: cap, debounce: debounce, fire: fire}
}

// Load replaces the stacks with a persisted timeline, dropping any
// pending push (switching histories must not leak an edit across).
func (r *Recorder) Load(t Timeline) {
	r.CancelPending()
	r.past = append([]Document(nil), t.Past...)
	r.future = append([]Document(nil), t.Future...)
}

// Reset clears both stacks and any pending push.
func (r *Recorder) Reset() {
	r.CancelPending()
	r.past = nil
	r.future = nil
}

// SchedulePush debounces recording of the pre-edit snapshot. A push
// already pending is superseded: its timer is cancelled and the new
// snapshot takes its place, so a burst of edits costs one entry. No-op
// while restoring.
func (r *Recorder) SchedulePush(preEdit Document) {
	if r.mode == Restoring {
		return
	}
	r.CancelPending()
	snapshot := preEdit.Clone()
	r.pending = &snapshot
	generation := r.generation
	r.timer = time.AfterFunc(r.debounce, func() {
		r.fire(generation)
	})
}

// CancelPending discards any scheduled push. Undo/redo call this first:
// a half-scheduled push racing with a restore would corrupt ordering.
func (r *Recorder) CancelPending() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.pending = nil
	r.generation++
}

// CompletePush lands a matured pending push onto the past stack and
// clears the future queue. Returns false when the generation is stale
// or nothing is pending.
func (r *Recorder) CompletePush(generation uint64) bool {
	if generation != r.generation || r.pending == nil {
		return false
	}
	r.past = append(r.past, *r.pending)
	if overflow := len(r.past) - r.cap; overflow > 0 {
		r.past = append([]Document(nil), r.past[overflow:]...)
	}
	r.future = nil
	r.pending = nil
	r.timer = nil
	return true
}

// CompletePendingNow lands a pending push immediately instead of
// waiting out the debounce. Used at shutdown so a trailing edit batch
// is not lost.
func (r *Recorder) CompletePendingNow() bool {
	if r.pending == nil {
		return false
	}
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	return r.CompletePush(r.generation)
}

// Undo pops the most recent past snapshot. The caller's present
// document moves to the front of the future queue and the popped
// snapshot becomes the new present. Returns false when there is no
// past.
func (r *Recorder) Undo(present Document) (Document, bool) {
	r.CancelPending()
	if len(r.past) == 0 {
		return Document{}, false
	}
	restored := r.past[len(r.past)-1]
	r.past = r.past[:len(r.past)-1]
	r.future = append([]Document{present.Clone()}, r.future...)
	return restored, true
}

// Redo pops the head of the future queue; the present moves to the end
// of the past stack. Returns false when there is no future.
func (r *Recorder) Redo(present Document) (Document, bool) {
	r.CancelPending()
	if len(r.future) == 0 {
		return Document{}, false
	}
	restored := r.future[0]
	r.future = append([]Document(nil), r.future[1:]...)
	r.past = append(r.past, present.Clone())
	return restored, true
}

// PushNow records the given document immediately, bypassing the
// debounce. Used when the present is about to be replaced wholesale
// (restoring a named snapshot) and the pre-restore state must be
// undoable right away.
func (r *Recorder) PushNow(present Document) {
	r.CancelPending()
	r.past = append(r.past, present.Clone())
	if overflow := len(r.past) - r.cap; overflow > 0 {
		r.past = append([]Document(nil), r.past[overflow:]...)
	}
	r.future = nil
}

// BeginRestore enters Restoring mode; recording is suppressed until the
// matching EndRestore. The orchestrator holds the mode across an entire
// restore batch (state swap plus its synchronous side effects).
func (r *Recorder) BeginRestore() {
	r.mode = Restoring
}

// EndRestore returns to Idle.
func (r *Recorder) EndRestore() {
	r.mode = Idle
}

// ModeNow reports the current re-entrancy mode.
func (r *Recorder) ModeNow() Mode { return r.mode }

// CanUndo reports whether a past snapshot exists.
func (r *Recorder) CanUndo() bool { return len(r.past) > 0 }

// CanRedo reports whether an undone snapshot can be reapplied.
func (r *Recorder) CanRedo() bool { return len(r.future) > 0 }

// PastLen returns the past stack depth.
func (r *Recorder) PastLen() int { return len(r.past) }

// FutureLen returns the future queue depth.
func (r *Recorder) FutureLen() int { return len(r.future) }

// State copies the stacks for persistence.
func (r *Recorder) State() Timeline {
	return Timeline{
		Past:   append([]Document(nil), r.past...),
		Future: append([]Document(nil), r.future...),
	}
}
