package meter

import (
	"fmt"
	"math"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-vocalmix/dsp/core"
	"github.com/cwbudde/algo-vocalmix/dsp/spectrum"
	"github.com/cwbudde/algo-vocalmix/dsp/window"
)

const (
	DefaultFFTSize   = 2048
	DefaultSmoothing = 0.8

	MinFFTSize = 32
	MaxFFTSize = 32768

	// Display range of FrequencyBytes, in dBFS.
	MinDecibels = -100.0
	MaxDecibels = -30.0
)

// Option configures an Analyser.
type Option func(*config)

type config struct {
	fftSize   int
	smoothing float64
	window    window.Type
}

// WithFFTSize sets the FFT length, a power of two in [32, 32768].
func WithFFTSize(n int) Option {
	return func(c *config) {
		c.fftSize = n
	}
}

// WithSmoothing sets the frame-to-frame smoothing constant in [0, 1).
func WithSmoothing(tau float64) Option {
	return func(c *config) {
		c.smoothing = tau
	}
}

// WithWindow selects the analysis window. The default is Hann.
func WithWindow(t window.Type) Option {
	return func(c *config) {
		c.window = t
	}
}

// forwardPlan is the part of an algo-fft plan the analyser uses.
type forwardPlan interface {
	Forward(dst, src []complex128) error
}

// Level is a level reading over the analysis window.
type Level struct {
	RMS    float64
	Peak   float64
	RMSDB  float64
	PeakDB float64
}

// Analyser is a ring buffer of recent mono samples with spectrum and level
// readouts over the last FFTSize samples.
type Analyser struct {
	mu sync.Mutex

	fftSize   int
	smoothing float64

	ring   []float64
	pos    int
	filled int

	plan   forwardPlan
	win    []float64
	norm   float64
	frame  []float64
	in     []complex128
	out    []complex128
	mags   []float64
	smooth []float64
}

// New creates an analyser with a 2048-point Hann-windowed FFT and 0.8
// smoothing unless options say otherwise.
func New(opts ...Option) (*Analyser, error) {
	cfg := config{fftSize: DefaultFFTSize, smoothing: DefaultSmoothing, window: window.TypeHann}
	for _, opt := range opts {
		opt(&cfg)
	}

	n := cfg.fftSize
	if n < MinFFTSize || n > MaxFFTSize || n&(n-1) != 0 {
		return nil, fmt.Errorf("meter: fft size must be a power of two in [%d, %d]: %d", MinFFTSize, MaxFFTSize, n)
	}

	if !(cfg.smoothing >= 0 && cfg.smoothing < 1) {
		return nil, fmt.Errorf("meter: smoothing must be in [0, 1): %f", cfg.smoothing)
	}

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("meter: fft plan: %w", err)
	}

	win := window.Generate(cfg.window, n, window.WithPeriodic())

	return &Analyser{
		fftSize:   n,
		smoothing: cfg.smoothing,
		ring:      make([]float64, n),
		plan:      plan,
		win:       win,
		norm:      2 / (float64(n) * window.CoherentGain(win)),
		frame:     make([]float64, n),
		in:        make([]complex128, n),
		out:       make([]complex128, n),
		mags:      make([]float64, n/2),
		smooth:    make([]float64, n/2),
	}, nil
}

// FFTSize returns the FFT length.
func (a *Analyser) FFTSize() int { return a.fftSize }

// BinCount returns the number of frequency bins, FFTSize/2.
func (a *Analyser) BinCount() int { return a.fftSize / 2 }

// BinFrequency returns the centre frequency of bin k in Hz.
func (a *Analyser) BinFrequency(k int, sampleRate float64) float64 {
	return float64(k) * sampleRate / float64(a.fftSize)
}

// Write appends a mono block. Non-finite samples are recorded as zero.
func (a *Analyser) Write(block []float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, x := range block {
		a.push(x)
	}
}

// WritePlanar appends the average of the given channels.
func (a *Analyser) WritePlanar(block [][]float64) {
	if len(block) == 0 {
		return
	}

	frames := len(block[0])
	for _, ch := range block[1:] {
		frames = min(frames, len(ch))
	}

	scale := 1 / float64(len(block))

	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range frames {
		sum := 0.0
		for _, ch := range block {
			sum += ch[i]
		}

		a.push(sum * scale)
	}
}

func (a *Analyser) push(x float64) {
	if !core.IsFinite(x) {
		x = 0
	}

	a.ring[a.pos] = x
	a.pos = (a.pos + 1) % a.fftSize
	a.filled = min(a.filled+1, a.fftSize)
}

// snapshot copies the ring into a.frame in chronological order, zero
// padded at the front while the ring is filling.
func (a *Analyser) snapshot() {
	n := copy(a.frame, a.ring[a.pos:])
	copy(a.frame[n:], a.ring[:a.pos])
}

// FrequencyBins returns FFTSize/2 smoothed linear magnitudes. A full-scale
// sine centred on a bin reads close to 1. Each call advances the smoothing
// by one frame, like a display refresh.
func (a *Analyser) FrequencyBins() []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]float64, len(a.smooth))
	if a.filled == 0 {
		return out
	}

	a.snapshot()

	if err := window.ApplyCoefficientsInPlace(a.frame, a.win); err != nil {
		return out
	}

	for i, x := range a.frame {
		a.in[i] = complex(x, 0)
	}

	if err := a.plan.Forward(a.out, a.in); err != nil {
		return out
	}

	spectrum.MagnitudeInto(a.mags, a.out)

	for i, m := range a.mags {
		m *= a.norm
		if !core.IsFinite(m) {
			m = 0
		}

		a.mags[i] = m
	}

	spectrum.SmoothTime(a.smooth, a.mags, a.smoothing)
	copy(out, a.smooth)

	return out
}

// FrequencyBinsDB returns FrequencyBins in dBFS, floored at MinDecibels.
func (a *Analyser) FrequencyBinsDB() []float64 {
	bins := a.FrequencyBins()
	spectrum.ToDecibels(bins, bins, MinDecibels)

	return bins
}

// FrequencyBytes maps FrequencyBinsDB linearly from [MinDecibels,
// MaxDecibels] onto [0, 255] for bar displays.
func (a *Analyser) FrequencyBytes() []byte {
	db := a.FrequencyBinsDB()
	out := make([]byte, len(db))

	for i, v := range db {
		scaled := 255 * (v - MinDecibels) / (MaxDecibels - MinDecibels)
		out[i] = byte(core.Clamp(math.Floor(scaled), 0, 255))
	}

	return out
}

// Level returns RMS and peak over the analysis window. Levels in dB are
// floored at MinDecibels.
func (a *Analyser) Level() Level {
	a.mu.Lock()
	defer a.mu.Unlock()

	return measure(a.ring[:a.filled])
}

// Waveform returns the last FFTSize samples in chronological order.
func (a *Analyser) Waveform() []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.snapshot()

	return append([]float64(nil), a.frame...)
}

// Reset discards recorded samples and smoothing history.
func (a *Analyser) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	core.Zero(a.ring)
	core.Zero(a.smooth)
	a.pos, a.filled = 0, 0
}

func measure(samples []float64) Level {
	if len(samples) == 0 {
		return Level{RMSDB: MinDecibels, PeakDB: MinDecibels}
	}

	sumSquares, peak := 0.0, 0.0
	for _, x := range samples {
		sumSquares += x * x
		peak = max(peak, math.Abs(x))
	}

	rms := math.Sqrt(sumSquares / float64(len(samples)))

	return Level{
		RMS:    rms,
		Peak:   peak,
		RMSDB:  toDB(rms),
		PeakDB: toDB(peak),
	}
}

func toDB(v float64) float64 {
	return max(core.LinearToDB(v), MinDecibels)
}
