package diskimg

import "github.com/google/uuid"

// Signal is returned by a ProgressFunc to request cancellation of the
// operation in progress (spec.md §5 "Cancellation").
type Signal int

const (
	SignalContinue Signal = iota
	SignalCancel
)

// ProgressFunc is invoked between logical units of work (per volume, per
// N entries) during a scan, format, create, or recompressing flush. count
// is the number of units completed so far. Callback invocations are
// synchronous from the engine's execution context; a callback must not
// reenter operations on the same DiskImage.
type ProgressFunc func(session uuid.UUID, message string, count int) Signal

// progressSink walks up to the nearest ancestor DiskImage carrying a
// ProgressFunc, per spec.md §9 ("child images walk up to the nearest
// ancestor that has one").
type progressSink struct {
	session uuid.UUID
	fn      ProgressFunc
}

func newProgressSink(fn ProgressFunc) *progressSink {
	if fn == nil {
		return nil
	}
	return &progressSink{session: uuid.New(), fn: fn}
}

// report invokes the callback and returns true if the caller requested
// cancellation.
func (p *progressSink) report(message string, count int) bool {
	if p == nil || p.fn == nil {
		return false
	}
	return p.fn(p.session, message, count) == SignalCancel
}
