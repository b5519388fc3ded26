package render

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-vocalmix/chain"
	"github.com/cwbudde/algo-vocalmix/dsp/buffer"
)

// DefaultBlockSize is the number of frames handed to the chain per call.
const DefaultBlockSize = 1024

var (
	// ErrNilInput is returned when the buffer or chain is missing.
	ErrNilInput = errors.New("render: nil buffer or chain")
	// ErrSampleRate is returned when the chain was built for another rate.
	ErrSampleRate = errors.New("render: sample rate mismatch")
	// ErrInternal is wrapped by every Failure.
	ErrInternal = errors.New("render: internal failure")
)

// Failure reports an unexpected fault inside a node, such as a panic.
// The input buffer is untouched when it is returned.
type Failure struct {
	Channel int
	Value   any
	Stack   []byte
}

func (f *Failure) Error() string {
	return fmt.Sprintf("render: channel %d: %v", f.Channel, f.Value)
}

func (f *Failure) Unwrap() error { return ErrInternal }

// Option configures a render.
type Option func(*options)

type options struct {
	blockSize int
	logger    logrus.FieldLogger
}

// WithBlockSize sets the number of frames processed per chain call.
// Non-positive values select DefaultBlockSize.
func WithBlockSize(n int) Option {
	return func(o *options) {
		o.blockSize = n
	}
}

// WithLogger sets the logger used for render lifecycle messages.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func applyOptions(opts []Option) options {
	o := options{blockSize: DefaultBlockSize, logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	if o.blockSize <= 0 {
		o.blockSize = DefaultBlockSize
	}

	if o.logger == nil {
		o.logger = logrus.StandardLogger()
	}

	return o
}

// Render processes buf through a fresh copy of ch and returns the result.
// The state of ch itself is neither used nor changed, so the same inputs
// always produce the same output.
func Render(ctx context.Context, buf *buffer.Audio, ch *chain.Chain, opts ...Option) (*buffer.Audio, error) {
	if buf == nil || ch == nil {
		return nil, ErrNilInput
	}

	return run(ctx, buf, ch.Clone(), ch.PresetID(), ch.SampleRate(), applyOptions(opts))
}

// lanes is the part of a chain a render needs.
type lanes interface {
	EnsureLanes(n int) error
	Process(ch int, block []float64)
}

func run(ctx context.Context, buf *buffer.Audio, proc lanes, presetID string, sampleRate int, o options) (*buffer.Audio, error) {
	if buf.SampleRate() != sampleRate {
		return nil, fmt.Errorf("%w: buffer %d Hz, chain %d Hz", ErrSampleRate, buf.SampleRate(), sampleRate)
	}

	log := o.logger.WithFields(logrus.Fields{
		"preset":      presetID,
		"frames":      buf.Frames(),
		"channels":    buf.Channels(),
		"sample_rate": buf.SampleRate(),
	})
	log.Debug("render started")

	started := time.Now()

	if err := proc.EnsureLanes(buf.Channels()); err != nil {
		return nil, fmt.Errorf("render: prepare lanes: %w", err)
	}

	out := buf.Planar()

	g, gctx := errgroup.WithContext(ctx)
	for c := range out {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &Failure{Channel: c, Value: r, Stack: debug.Stack()}
				}
			}()

			return processChannel(gctx, proc, c, out[c], o.blockSize)
		})
	}

	if err := g.Wait(); err != nil {
		log.WithError(err).Warn("render failed")
		return nil, err
	}

	log.WithField("elapsed", time.Since(started)).Info("render finished")

	return buffer.Adopt(buf.SampleRate(), out)
}

func processChannel(ctx context.Context, proc lanes, c int, samples []float64, blockSize int) error {
	for start := 0; start < len(samples); start += blockSize {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("render: channel %d: %w", c, err)
		}

		end := min(start+blockSize, len(samples))
		proc.Process(c, samples[start:end])
	}

	return nil
}
