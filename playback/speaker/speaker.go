// Package speaker plays an Engine through the system audio output using
// the beep speaker mixer.
//
// The underlying mixer is process wide, so a Device allows one open stream
// at a time; a second Open fails with playback.ErrDeviceUnavailable until
// the first stream is closed.
package speaker

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/cwbudde/algo-vocalmix/playback"
)

// DefaultBufferDuration is the output latency requested from the mixer.
const DefaultBufferDuration = 100 * time.Millisecond

// outputChannels is the channel count of the beep mixer.
const outputChannels = 2

type output interface {
	start(sr beep.SampleRate, bufferSize int) error
	play(s beep.Streamer)
	clear()
	close()
}

type beepOutput struct{}

func (beepOutput) start(sr beep.SampleRate, n int) error { return speaker.Init(sr, n) }
func (beepOutput) play(s beep.Streamer)                  { speaker.Play(s) }
func (beepOutput) clear()                                { speaker.Clear() }
func (beepOutput) close()                                { speaker.Close() }

// Option configures a Device.
type Option func(*Device)

// WithBufferDuration sets the mixer buffer length. Non-positive values are
// ignored.
func WithBufferDuration(d time.Duration) Option {
	return func(dev *Device) {
		if d > 0 {
			dev.bufferDuration = d
		}
	}
}

// Device is a playback.Device backed by the beep speaker.
type Device struct {
	mu             sync.Mutex
	out            output
	bufferDuration time.Duration
	rate           int
	initialized    bool
	active         *stream
}

// New returns a speaker device. The mixer is initialized on the first Open
// and reinitialized when the sample rate changes.
func New(opts ...Option) *Device {
	d := &Device{
		out:            beepOutput{},
		bufferDuration: DefaultBufferDuration,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Open implements playback.Device. channels is informational; the mixer
// is always stereo and mono sources are duplicated by the engine.
func (d *Device) Open(sampleRate, channels int, src playback.Source) (playback.Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active != nil {
		return nil, fmt.Errorf("%w: speaker already in use", playback.ErrDeviceUnavailable)
	}

	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("%w: invalid format %d Hz, %d channels", playback.ErrDeviceUnavailable, sampleRate, channels)
	}

	if !d.initialized || d.rate != sampleRate {
		if d.initialized {
			d.out.close()
			d.initialized = false
		}

		sr := beep.SampleRate(sampleRate)
		if err := d.out.start(sr, sr.N(d.bufferDuration)); err != nil {
			return nil, fmt.Errorf("%w: %w", playback.ErrDeviceUnavailable, err)
		}

		d.initialized, d.rate = true, sampleRate
	}

	s := &stream{dev: d, src: src}
	d.active = s
	d.out.play(s)

	return s, nil
}

// Shutdown releases the mixer. Open may be called again afterwards.
func (d *Device) Shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized {
		d.out.close()
		d.initialized = false
	}

	d.active = nil
}

func (d *Device) release(s *stream) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active != s {
		return
	}

	d.active = nil

	if d.initialized {
		d.out.clear()
	}
}

// stream adapts a playback.Source to beep.Streamer.
type stream struct {
	dev    *Device
	src    playback.Source
	planar [outputChannels][]float64
	closed atomic.Bool
}

func (s *stream) Stream(samples [][2]float64) (int, bool) {
	if s.closed.Load() {
		return 0, false
	}

	n := len(samples)
	for c := range s.planar {
		if cap(s.planar[c]) < n {
			s.planar[c] = make([]float64, n)
		}

		s.planar[c] = s.planar[c][:n]
	}

	s.src.Process(s.planar[:])

	for i := range samples {
		samples[i][0] = s.planar[0][i]
		samples[i][1] = s.planar[1][i]
	}

	return n, true
}

func (s *stream) Err() error { return nil }

func (s *stream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	s.dev.release(s)

	return nil
}
