package chain

import (
	"fmt"

	"github.com/cwbudde/algo-vocalmix/dsp/effects/dynamics"
	"github.com/cwbudde/algo-vocalmix/preset"
)

// Option configures Build.
type Option func(*buildConfig)

type buildConfig struct {
	topology    Topology
	deEsserMode dynamics.DeEsserMode
}

// WithTopology selects how disabled effects are represented.
func WithTopology(t Topology) Option {
	return func(c *buildConfig) {
		c.topology = t
	}
}

// WithDeEsserMode selects split-band (default) or wideband de-essing.
func WithDeEsserMode(m dynamics.DeEsserMode) Option {
	return func(c *buildConfig) {
		c.deEsserMode = m
	}
}

// Node describes one node of a built chain.
type Node struct {
	Params   Params
	Bypassed bool
}

// Active reports whether the node currently processes audio: it is not
// bypassed and, for effects, its amount is above zero.
func (n Node) Active() bool {
	return !n.Bypassed && amount(n.Params) > 0
}

// Chain is a built processing chain.
type Chain struct {
	presetID   string
	sampleRate int
	topology   Topology
	nodes      []Node
	lanes      []lane
}

type lane []processor

// MaxCornerFraction caps preset corner frequencies at this fraction of the
// sample rate, so every preset builds at low rates.
const MaxCornerFraction = 0.45

// NodeParams returns the node parameters for cfg at sampleRate in chain
// order, without omitting anything. De-esser and EQ corners above
// MaxCornerFraction*sampleRate are lowered to that limit.
func NodeParams(cfg preset.Config, sampleRate int, mode dynamics.DeEsserMode) []Params {
	limit := MaxCornerFraction * float64(sampleRate)
	corner := func(hz float64) float64 { return min(hz, limit) }

	return []Params{
		HighPassParams{FrequencyHz: HighPassFrequencyHz, Q: HighPassQ},
		DeEsserParams{FrequencyHz: corner(cfg.DeEsser.FrequencyHz), ThresholdDB: cfg.DeEsser.ThresholdDB, Mode: mode},
		CompressorParams{
			ThresholdDB:    cfg.Compressor.ThresholdDB,
			KneeDB:         cfg.Compressor.KneeDB,
			Ratio:          cfg.Compressor.Ratio,
			AttackSeconds:  cfg.Compressor.AttackSeconds,
			ReleaseSeconds: cfg.Compressor.ReleaseSeconds,
		},
		EQBandParams{Band: BandLow, FrequencyHz: corner(cfg.EQ.LowFreqHz), GainDB: cfg.EQ.Low},
		EQBandParams{Band: BandMid, FrequencyHz: corner(cfg.EQ.MidFreqHz), GainDB: cfg.EQ.Mid, Q: cfg.EQ.MidQ},
		EQBandParams{Band: BandHigh, FrequencyHz: corner(cfg.EQ.HighFreqHz), GainDB: cfg.EQ.High},
		SaturatorParams{Amount: cfg.Effects.Saturation},
		ReverbParams{Amount: cfg.Effects.Reverb},
		DelayParams{Amount: cfg.Effects.Delay},
		LimiterParams{CeilingDB: LimiterCeilingDB},
	}
}

// Build validates cfg and assembles a chain for sampleRate. On error no
// chain is returned; parameter problems are reported as
// *InvalidParameterError.
func Build(cfg preset.Config, sampleRate int, opts ...Option) (*Chain, error) {
	bc := buildConfig{topology: TopologyConditional, deEsserMode: dynamics.DeEsserSplitBand}
	for _, opt := range opts {
		opt(&bc)
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be > 0: %d", ErrInvalidParameter, sampleRate)
	}

	sr := float64(sampleRate)
	c := &Chain{presetID: cfg.ID, sampleRate: sampleRate, topology: bc.topology}

	for _, p := range NodeParams(cfg, sampleRate, bc.deEsserMode) {
		if err := p.validate(sr); err != nil {
			return nil, err
		}

		if bc.topology == TopologyConditional && p.Kind().IsEffect() && amount(p) == 0 {
			continue
		}

		c.nodes = append(c.nodes, Node{Params: p})
	}

	// One lane up front surfaces constructor errors before anything runs.
	if err := c.EnsureLanes(1); err != nil {
		return nil, fmt.Errorf("chain: build %s: %w", cfg.ID, err)
	}

	return c, nil
}

// PresetID returns the id of the preset the chain was built from.
func (c *Chain) PresetID() string { return c.presetID }

// SampleRate returns the sample rate in Hz.
func (c *Chain) SampleRate() int { return c.sampleRate }

// Topology returns the topology the chain was built with.
func (c *Chain) Topology() Topology { return c.topology }

// Nodes returns a snapshot of the chain's nodes in order.
func (c *Chain) Nodes() []Node {
	return append([]Node(nil), c.nodes...)
}

// Kinds returns the node kinds in chain order.
func (c *Chain) Kinds() []Kind {
	out := make([]Kind, len(c.nodes))
	for i, n := range c.nodes {
		out[i] = n.Params.Kind()
	}

	return out
}

// Params returns the current parameters of the node of the given kind.
func (c *Chain) Params(kind Kind) (Params, bool) {
	i := c.index(kind)
	if i < 0 {
		return nil, false
	}

	return c.nodes[i].Params, true
}

// Update validates p and applies it to the matching node on every lane.
// Topology is never changed: updating an omitted node returns
// ErrNodeAbsent.
func (c *Chain) Update(p Params) error {
	i := c.index(p.Kind())
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNodeAbsent, p.Kind())
	}

	if err := p.validate(float64(c.sampleRate)); err != nil {
		return err
	}

	for _, l := range c.lanes {
		if err := l[i].apply(p, true); err != nil {
			return fmt.Errorf("chain: update %s: %w", p.Kind(), err)
		}
	}

	c.nodes[i].Params = p

	return nil
}

// SetBypass toggles the bypass flag of a node. Parameter updates to a
// bypassed node are still applied and take effect when it is re-enabled.
func (c *Chain) SetBypass(kind Kind, bypass bool) error {
	i := c.index(kind)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNodeAbsent, kind)
	}

	c.nodes[i].Bypassed = bypass

	return nil
}

// Bypassed reports whether the node of the given kind is bypassed.
func (c *Chain) Bypassed(kind Kind) bool {
	i := c.index(kind)
	return i >= 0 && c.nodes[i].Bypassed
}

// SetEQGain changes the gain of one EQ band.
func (c *Chain) SetEQGain(band Band, gainDB float64) error {
	p, ok := c.Params(band.Kind())
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeAbsent, band.Kind())
	}

	eq := p.(EQBandParams)
	eq.GainDB = gainDB

	return c.Update(eq)
}

// SetEffectAmount changes the amount of the saturator, reverb or delay.
func (c *Chain) SetEffectAmount(kind Kind, amount float64) error {
	switch kind {
	case KindSaturator:
		return c.Update(SaturatorParams{Amount: amount})
	case KindReverb:
		return c.Update(ReverbParams{Amount: amount})
	case KindDelay:
		return c.Update(DelayParams{Amount: amount})
	default:
		return invalid(kind, "amount", amount, "%s has no amount", kind)
	}
}

// EnsureLanes makes sure lanes for n channels exist.
func (c *Chain) EnsureLanes(n int) error {
	for len(c.lanes) < n {
		l := make(lane, len(c.nodes))

		for i, node := range c.nodes {
			proc, err := newProcessor(node.Params, float64(c.sampleRate))
			if err != nil {
				return err
			}

			l[i] = proc
		}

		c.lanes = append(c.lanes, l)
	}

	return nil
}

// Lanes returns the number of channel lanes created so far.
func (c *Chain) Lanes() int { return len(c.lanes) }

// Process runs block through the lane of channel ch in place. Lanes are
// created as needed; processing never fails.
func (c *Chain) Process(ch int, block []float64) {
	if err := c.EnsureLanes(ch + 1); err != nil {
		// Parameters were validated when they were set, so constructors
		// cannot reject them here.
		panic(fmt.Sprintf("chain: lane %d: %v", ch, err))
	}

	l := c.lanes[ch]
	for i, node := range c.nodes {
		if node.Active() {
			l[i].process(block)
		}
	}
}

// ProcessBlock runs every channel of a planar block in place.
func (c *Chain) ProcessBlock(block [][]float64) {
	for ch, samples := range block {
		c.Process(ch, samples)
	}
}

// Reset clears the filter, envelope and delay state of every lane.
func (c *Chain) Reset() {
	for _, l := range c.lanes {
		for _, p := range l {
			p.reset()
		}
	}
}

// Clone returns a chain with the same nodes and fresh state.
func (c *Chain) Clone() *Chain {
	return &Chain{
		presetID:   c.presetID,
		sampleRate: c.sampleRate,
		topology:   c.topology,
		nodes:      c.Nodes(),
	}
}

// ResponseDB returns the combined magnitude response in dB of the active
// high-pass and EQ nodes at freqHz. It is the curve an EQ display draws.
func (c *Chain) ResponseDB(freqHz float64) float64 {
	sr := float64(c.sampleRate)

	var total float64

	for _, n := range c.nodes {
		if !n.Active() {
			continue
		}

		if coeffs, ok := filterCoefficients(n.Params, sr); ok {
			total += coeffs.MagnitudeDB(freqHz, sr)
		}
	}

	return total
}

// GainReductionDB returns the deepest reduction currently applied by the
// compressor or limiter on any lane, in dB (zero or negative).
func (c *Chain) GainReductionDB() float64 {
	var deepest float64

	for _, l := range c.lanes {
		for i, p := range l {
			kind := c.nodes[i].Params.Kind()
			if (kind != KindCompressor && kind != KindLimiter) || !c.nodes[i].Active() {
				continue
			}

			if r, ok := p.(reducer); ok {
				deepest = min(deepest, r.gainReductionDB())
			}
		}
	}

	return deepest
}

func (c *Chain) index(kind Kind) int {
	for i, n := range c.nodes {
		if n.Params.Kind() == kind {
			return i
		}
	}

	return -1
}
