package playback

import (
	"context"
	"fmt"

	"github.com/cwbudde/algo-vocalmix/chain"
	"github.com/cwbudde/algo-vocalmix/dsp/buffer"
	"github.com/cwbudde/algo-vocalmix/render"
)

// RenderProcessed starts an offline render of the loaded buffer through the
// current settings and returns immediately. Completion is reported as an
// EventRendered; a successful render becomes available to SetCompare and
// Processed. Starting a new render, loading a buffer or closing the engine
// discards the result of a render still in flight.
func (e *Engine) RenderProcessed(ctx context.Context) error {
	e.mu.Lock()
	defer e.unlock()

	if e.closed {
		return ErrClosed
	}

	if e.buf == nil {
		return ErrNotLoaded
	}

	ch := e.chain
	if ch == nil {
		var err error

		ch, err = chain.Build(e.cfg, e.buf.SampleRate())
		if err != nil {
			return fmt.Errorf("playback: build chain: %w", err)
		}
	}

	e.cancelRenderLocked()

	rctx, cancel := context.WithCancel(ctx)
	e.renderCancel = cancel
	gen := e.renderGen

	task := render.Start(rctx, e.buf, ch, render.WithLogger(e.logger))

	go e.awaitRender(gen, task, cancel)

	return nil
}

func (e *Engine) awaitRender(gen int, task *render.Task, cancel context.CancelFunc) {
	out, err := task.Wait()
	cancel()

	e.mu.Lock()
	defer e.unlock()

	if e.closed || gen != e.renderGen {
		return
	}

	e.renderCancel = nil

	if err != nil {
		e.logger.WithError(err).Warn("processed render failed")
	} else {
		e.processed = out
	}

	e.emitLocked(Event{Kind: EventRendered, State: e.state, Err: err})
}

// cancelRenderLocked abandons the running render, if any, and invalidates
// its result.
func (e *Engine) cancelRenderLocked() {
	if e.renderCancel != nil {
		e.renderCancel()
		e.renderCancel = nil
	}

	e.renderGen++
}

// SetCompare switches what Process plays. CompareProcessed requires a
// completed render and bypasses the live chain.
func (e *Engine) SetCompare(mode Compare) error {
	e.mu.Lock()
	defer e.unlock()

	if e.closed {
		return ErrClosed
	}

	switch mode {
	case CompareLive:
	case CompareProcessed:
		if e.processed == nil {
			return ErrNotRendered
		}
	default:
		return fmt.Errorf("playback: unknown compare mode %d", mode)
	}

	e.compare = mode

	return nil
}

// Compare returns the current compare mode.
func (e *Engine) Compare() Compare {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.compare
}

// Processed returns the last completed render, or nil.
func (e *Engine) Processed() *buffer.Audio {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.processed
}
