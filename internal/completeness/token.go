package completeness

import "sync/atomic"

// CancelToken requests cooperative cancellation of an analysis run. The
// runner checks it between batches, so cancellation never interrupts a
// unit mid-write; everything checkpointed so far stays committed.
type CancelToken struct {
	cancelled atomic.Bool
}

// NewCancelToken returns a token in the not-cancelled state.
func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

// Cancel requests that the current run stop at the next batch boundary.
func (t *CancelToken) Cancel() {
	t.cancelled.Store(true)
}

// Cancelled reports whether cancellation has been requested.
func (t *CancelToken) Cancelled() bool {
	return t.cancelled.Load()
}

// Reset re-arms the token for a new run.
func (t *CancelToken) Reset() {
	t.cancelled.Store(false)
}
