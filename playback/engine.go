package playback

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-vocalmix/chain"
	"github.com/cwbudde/algo-vocalmix/codec"
	"github.com/cwbudde/algo-vocalmix/dsp/buffer"
	"github.com/cwbudde/algo-vocalmix/dsp/core"
	"github.com/cwbudde/algo-vocalmix/meter"
	"github.com/cwbudde/algo-vocalmix/preset"
)

// CompressionSettings maps a compression control value in [0, 100] to a
// threshold in [-50, 0] dB and a ratio in [2, 12].
func CompressionSettings(value float64) (thresholdDB, ratio float64) {
	return -50 + value/100*50, 2 + value/100*10
}

// Option configures an Engine.
type Option func(*Engine)

// WithCatalog sets the preset catalog. The default is preset.Default().
func WithCatalog(c *preset.Catalog) Option {
	return func(e *Engine) {
		if c != nil {
			e.catalog = c
		}
	}
}

// WithPreset selects the initial preset. Unknown ids fall back to the
// catalog default.
func WithPreset(id string) Option {
	return func(e *Engine) {
		e.presetID = id
	}
}

// WithLogger sets the logger for transport and lifecycle messages.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMeterOptions configures the post-chain analyser.
func WithMeterOptions(opts ...meter.Option) Option {
	return func(e *Engine) {
		e.meterOpts = append(e.meterOpts, opts...)
	}
}

type subscription struct {
	id int
	fn func(Event)
}

// Engine is a playback session. All methods are safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	device    Device
	catalog   *preset.Catalog
	presetID  string
	logger    logrus.FieldLogger
	meterOpts []meter.Option

	cfg    preset.Config
	bypass map[chain.Kind]bool

	state    State
	buf      *buffer.Audio
	playhead int
	chain    *chain.Chain
	gain     *chain.Gain
	analyser *meter.Analyser
	stream   Stream
	closed   bool

	processed    *buffer.Audio
	compare      Compare
	renderGen    int
	renderCancel context.CancelFunc

	subs    []subscription
	nextSub int

	// Drained by unlock once the mutex is released.
	pending  []Event
	detached []Stream
}

// New creates an idle engine that plays through device. A nil device
// makes Play fail with ErrDeviceUnavailable.
func New(device Device, opts ...Option) (*Engine, error) {
	e := &Engine{
		device:  device,
		catalog: preset.Default(),
		logger:  logrus.StandardLogger(),
		bypass:  make(map[chain.Kind]bool),
		gain:    chain.NewGain(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.cfg = e.catalog.Get(e.presetID)

	a, err := meter.New(e.meterOpts...)
	if err != nil {
		return nil, fmt.Errorf("playback: %w", err)
	}

	e.analyser = a

	return e, nil
}

// unlock releases the mutex, then closes detached streams and delivers
// queued events. Streams are closed outside the lock because a device may
// be blocked in Process waiting for it.
func (e *Engine) unlock() {
	events, streams := e.pending, e.detached
	e.pending, e.detached = nil, nil

	var subs []subscription
	if len(events) > 0 {
		subs = append(subs, e.subs...)
	}

	logger := e.logger
	e.mu.Unlock()

	for _, s := range streams {
		if err := s.Close(); err != nil {
			logger.WithError(err).Warn("closing output stream")
		}
	}

	for _, ev := range events {
		for _, sub := range subs {
			sub.fn(ev)
		}
	}
}

func (e *Engine) emitLocked(ev Event) {
	e.pending = append(e.pending, ev)
}

func (e *Engine) setStateLocked(s State) {
	e.state = s
	e.emitLocked(Event{Kind: EventState, State: s})
	e.logger.WithField("state", s.String()).Debug("transport")
}

func (e *Engine) detachStreamLocked() {
	if e.stream != nil {
		e.detached = append(e.detached, e.stream)
		e.stream = nil
	}
}

// Load replaces the loaded buffer and stops playback. A nil buffer is
// rejected with a *codec.DecodeError.
func (e *Engine) Load(buf *buffer.Audio) error {
	e.mu.Lock()
	defer e.unlock()

	if e.closed {
		return ErrClosed
	}

	if buf == nil {
		return &codec.DecodeError{Format: codec.FormatUnknown, Err: fmt.Errorf("%w: nil buffer", codec.ErrCorruptData)}
	}

	e.detachStreamLocked()
	e.cancelRenderLocked()

	e.buf = buf
	e.playhead = 0
	e.processed = nil
	e.compare = CompareLive

	if e.chain != nil {
		if e.chain.SampleRate() != buf.SampleRate() || e.chain.EnsureLanes(buf.Channels()) != nil {
			e.chain = nil
		} else {
			e.chain.Reset()
		}
	}

	e.analyser.Reset()

	e.logger.WithFields(logrus.Fields{
		"frames":      buf.Frames(),
		"channels":    buf.Channels(),
		"sample_rate": buf.SampleRate(),
	}).Info("buffer loaded")

	e.setStateLocked(StateLoaded)

	return nil
}

// Play starts or resumes playback. It is a no-op while playing. The live
// chain is built from the active preset on first use.
func (e *Engine) Play() error {
	e.mu.Lock()
	defer e.unlock()

	if e.closed {
		return ErrClosed
	}

	switch e.state {
	case StateIdle:
		return ErrNotLoaded
	case StatePlaying:
		return nil
	}

	if err := e.ensureChainLocked(); err != nil {
		return err
	}

	if e.stream == nil {
		if e.device == nil {
			return ErrDeviceUnavailable
		}

		s, err := e.device.Open(e.buf.SampleRate(), e.buf.Channels(), e)
		if err != nil {
			if !errors.Is(err, ErrDeviceUnavailable) {
				err = fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
			}

			e.logger.WithError(err).Warn("output device unavailable")

			return err
		}

		e.stream = s
	}

	e.setStateLocked(StatePlaying)

	return nil
}

func (e *Engine) ensureChainLocked() error {
	if e.chain != nil {
		return nil
	}

	c, err := chain.Build(e.cfg, e.buf.SampleRate(), chain.WithTopology(chain.TopologyBypass))
	if err != nil {
		return fmt.Errorf("playback: build chain: %w", err)
	}

	if err := c.EnsureLanes(e.buf.Channels()); err != nil {
		return fmt.Errorf("playback: build chain: %w", err)
	}

	for kind, b := range e.bypass {
		if err := c.SetBypass(kind, b); err != nil {
			return err
		}
	}

	e.chain = c
	e.logger.WithField("preset", e.cfg.ID).Debug("live chain built")

	return nil
}

// Pause holds the playhead. It only affects a playing engine.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.unlock()

	if e.state == StatePlaying {
		e.setStateLocked(StatePaused)
	}
}

// Stop releases the output, clears node state and rewinds to the start.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.unlock()

	if e.closed {
		return ErrClosed
	}

	e.detachStreamLocked()

	if e.buf == nil {
		return nil
	}

	e.playhead = 0

	if e.chain != nil {
		e.chain.Reset()
	}

	e.setStateLocked(StateLoaded)

	return nil
}

// Seek moves the playhead to seconds, clamped to [0, duration]. Playback
// continues from the new position when playing.
func (e *Engine) Seek(seconds float64) error {
	e.mu.Lock()
	defer e.unlock()

	if e.closed {
		return ErrClosed
	}

	if e.buf == nil {
		return ErrNotLoaded
	}

	if math.IsNaN(seconds) {
		seconds = 0
	}

	frame := math.Round(seconds * float64(e.buf.SampleRate()))
	e.playhead = int(core.Clamp(frame, 0, float64(e.buf.Frames())))

	return nil
}

// UpdateEQ sets the gain of one EQ band in dB.
func (e *Engine) UpdateEQ(band chain.Band, gainDB float64) error {
	e.mu.Lock()
	defer e.unlock()

	if err := e.liveLocked(); err != nil {
		return err
	}

	if err := e.chain.SetEQGain(band, gainDB); err != nil {
		return err
	}

	switch band {
	case chain.BandLow:
		e.cfg.EQ.Low = gainDB
	case chain.BandMid:
		e.cfg.EQ.Mid = gainDB
	case chain.BandHigh:
		e.cfg.EQ.High = gainDB
	}

	return nil
}

// UpdateCompression maps value in [0, 100] onto compressor threshold and
// ratio with CompressionSettings.
func (e *Engine) UpdateCompression(value float64) error {
	e.mu.Lock()
	defer e.unlock()

	if err := e.liveLocked(); err != nil {
		return err
	}

	if math.IsNaN(value) || value < 0 || value > 100 {
		return fmt.Errorf("%w: compression must be in [0, 100]: %g", chain.ErrInvalidParameter, value)
	}

	p, ok := e.chain.Params(chain.KindCompressor)
	if !ok {
		return fmt.Errorf("%w: %s", chain.ErrNodeAbsent, chain.KindCompressor)
	}

	cp := p.(chain.CompressorParams)
	cp.ThresholdDB, cp.Ratio = CompressionSettings(value)

	if err := e.chain.Update(cp); err != nil {
		return err
	}

	e.cfg.Compressor.ThresholdDB = cp.ThresholdDB
	e.cfg.Compressor.Ratio = cp.Ratio

	return nil
}

// UpdateVolume sets the linear output volume applied after the chain.
func (e *Engine) UpdateVolume(volume float64) error {
	e.mu.Lock()
	defer e.unlock()

	if err := e.liveLocked(); err != nil {
		return err
	}

	return e.gain.SetVolume(volume)
}

// SetEffectAmount sets the wet amount of the saturator, reverb or delay.
func (e *Engine) SetEffectAmount(kind chain.Kind, amount float64) error {
	e.mu.Lock()
	defer e.unlock()

	if err := e.liveLocked(); err != nil {
		return err
	}

	if err := e.chain.SetEffectAmount(kind, amount); err != nil {
		return err
	}

	switch kind {
	case chain.KindSaturator:
		e.cfg.Effects.Saturation = amount
	case chain.KindReverb:
		e.cfg.Effects.Reverb = amount
	case chain.KindDelay:
		e.cfg.Effects.Delay = amount
	}

	return nil
}

// SetBypass toggles a node of the live chain.
func (e *Engine) SetBypass(kind chain.Kind, bypass bool) error {
	e.mu.Lock()
	defer e.unlock()

	if err := e.liveLocked(); err != nil {
		return err
	}

	if err := e.chain.SetBypass(kind, bypass); err != nil {
		return err
	}

	e.bypass[kind] = bypass

	return nil
}

// SetPreset switches the active preset. An existing live chain is rebuilt
// and any processed render is discarded.
func (e *Engine) SetPreset(id string) error {
	e.mu.Lock()
	defer e.unlock()

	if e.closed {
		return ErrClosed
	}

	return e.setConfigLocked(e.catalog.Get(id))
}

// Snapshot returns the active preset id plus every field that differs from
// its catalog entry, for an external session store.
func (e *Engine) Snapshot() preset.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return preset.NewSnapshot(e.catalog, e.cfg)
}

// ApplySnapshot resolves s against the catalog and makes the result the
// active configuration, rebuilding the live chain like SetPreset. On error
// the engine is left unchanged.
func (e *Engine) ApplySnapshot(s preset.Snapshot) error {
	e.mu.Lock()
	defer e.unlock()

	if e.closed {
		return ErrClosed
	}

	cfg, err := s.Resolve(e.catalog)
	if err != nil {
		return fmt.Errorf("playback: apply snapshot: %w", err)
	}

	return e.setConfigLocked(cfg)
}

// setConfigLocked swaps in cfg and rebuilds an existing live chain. A
// failed rebuild restores the previous configuration and chain.
func (e *Engine) setConfigLocked(cfg preset.Config) error {
	prevCfg, prevChain := e.cfg, e.chain
	e.cfg = cfg

	if prevChain != nil {
		e.chain = nil
		if err := e.ensureChainLocked(); err != nil {
			e.cfg, e.chain = prevCfg, prevChain
			return err
		}
	}

	e.cancelRenderLocked()
	e.processed = nil
	e.compare = CompareLive

	return nil
}

func (e *Engine) liveLocked() error {
	if e.closed {
		return ErrClosed
	}

	if e.chain == nil {
		return ErrNoChain
	}

	return nil
}

// Process renders the next block into out. It is called by the device.
// Outside Playing it writes silence and the playhead does not move.
// Buffers with fewer channels than out are duplicated into the extra
// outputs.
func (e *Engine) Process(out [][]float64) {
	e.mu.Lock()
	defer e.unlock()

	if len(out) == 0 {
		return
	}

	if e.state != StatePlaying || e.buf == nil || e.chain == nil {
		for _, ch := range out {
			core.Zero(ch)
		}

		return
	}

	src := e.buf

	useProcessed := e.compare == CompareProcessed && e.processed != nil
	if useProcessed {
		src = e.processed
	}

	n := min(len(out[0]), src.Frames()-e.playhead)
	srcChannels := src.Channels()

	for c, dst := range out {
		if c >= srcChannels {
			copy(dst, out[srcChannels-1])
			continue
		}

		src.CopyFrames(dst[:n], c, e.playhead)
		core.Zero(dst[n:])

		if !useProcessed {
			e.chain.Process(c, dst[:n])
		}

		e.gain.Process(dst[:n])
	}

	e.analyser.WritePlanar(out)

	e.playhead += n
	if e.playhead >= src.Frames() {
		e.playhead = 0
		e.chain.Reset()
		e.emitLocked(Event{Kind: EventEnded, State: StateLoaded})
		e.setStateLocked(StateLoaded)
	}
}

// Subscribe registers fn for engine events and returns a function that
// removes it. fn runs on the goroutine that caused the event, which may be
// the device callback; it must not block and must not call back into the
// engine synchronously from the callback. Close drops all subscriptions.
func (e *Engine) Subscribe(fn func(Event)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.unlock()

	if e.closed || fn == nil {
		return func() {}
	}

	id := e.nextSub
	e.nextSub++
	e.subs = append(e.subs, subscription{id: id, fn: fn})

	var once sync.Once

	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.unlock()

			for i, s := range e.subs {
				if s.id == id {
					e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Close releases the output device, abandons any running render and drops
// all subscriptions. The engine is unusable afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.unlock()

	if e.closed {
		return nil
	}

	e.closed = true
	e.detachStreamLocked()
	e.cancelRenderLocked()

	e.subs = nil
	e.pending = nil
	e.buf, e.processed, e.chain = nil, nil, nil
	e.state = StateIdle
	e.analyser.Reset()

	e.logger.Debug("engine closed")

	return nil
}

// State returns the transport state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state
}

// Position returns the playhead in seconds.
func (e *Engine) Position() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.buf == nil {
		return 0
	}

	return float64(e.playhead) / float64(e.buf.SampleRate())
}

// Duration returns the length of the loaded buffer in seconds.
func (e *Engine) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.buf == nil {
		return 0
	}

	return e.buf.Seconds()
}

// Config returns the active preset including live changes.
func (e *Engine) Config() preset.Config {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.cfg
}

// Volume returns the linear output volume.
func (e *Engine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.gain.Volume()
}

// GainReduction returns the current compressor/limiter reduction in dB,
// zero before the chain exists.
func (e *Engine) GainReduction() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.chain == nil {
		return 0
	}

	return e.chain.GainReductionDB()
}

// Analyser returns the post-chain meter.
func (e *Engine) Analyser() *meter.Analyser {
	return e.analyser
}
