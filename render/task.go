package render

import (
	"context"

	"github.com/cwbudde/algo-vocalmix/chain"
	"github.com/cwbudde/algo-vocalmix/dsp/buffer"
)

// Task is a render running in the background.
type Task struct {
	done   chan struct{}
	result *buffer.Audio
	err    error
}

// Start begins rendering buf through ch and returns immediately. The chain
// is copied before Start returns, so later live updates to ch do not reach
// the running render.
func Start(ctx context.Context, buf *buffer.Audio, ch *chain.Chain, opts ...Option) *Task {
	t := &Task{done: make(chan struct{})}

	if buf == nil || ch == nil {
		t.err = ErrNilInput
		close(t.done)

		return t
	}

	work, id, rate := ch.Clone(), ch.PresetID(), ch.SampleRate()
	o := applyOptions(opts)

	go func() {
		defer close(t.done)
		t.result, t.err = run(ctx, buf, work, id, rate, o)
	}()

	return t
}

// Done is closed when the render has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the render has finished and returns its result.
func (t *Task) Wait() (*buffer.Audio, error) {
	<-t.done
	return t.result, t.err
}
