package chain

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vocalmix/dsp/core"
	"github.com/cwbudde/algo-vocalmix/dsp/effects"
	"github.com/cwbudde/algo-vocalmix/dsp/effects/dynamics"
	"github.com/cwbudde/algo-vocalmix/dsp/effects/reverb"
	"github.com/cwbudde/algo-vocalmix/dsp/filter/biquad"
	"github.com/cwbudde/algo-vocalmix/dsp/filter/design"
)

// Delay amount mapping.
const (
	delaySecondsPerAmount = 0.3
	minDelaySeconds       = 0.06
	feedbackPerAmount     = 0.6
)

// processor is the per-channel state of one node.
type processor interface {
	apply(p Params, live bool) error
	process(block []float64)
	reset()
}

// reducer is implemented by processors that report gain reduction.
type reducer interface {
	gainReductionDB() float64
}

func newProcessor(p Params, sampleRate float64) (processor, error) {
	var (
		proc processor
		err  error
	)

	switch p.(type) {
	case HighPassParams, EQBandParams:
		proc = &filterNode{section: biquad.NewSection(biquad.Identity()), sampleRate: sampleRate}
	case DeEsserParams:
		var d *dynamics.DeEsser
		d, err = dynamics.NewDeEsser(sampleRate)
		proc = &deEsserNode{d}
	case CompressorParams:
		var c *dynamics.Compressor
		c, err = dynamics.NewCompressor(sampleRate)
		proc = &compressorNode{c}
	case SaturatorParams:
		var s *effects.Saturator
		s, err = effects.NewSaturator(sampleRate)
		proc = &saturatorNode{s}
	case ReverbParams:
		var r *reverb.FDN
		r, err = reverb.NewFDN(sampleRate)
		proc = &reverbNode{r}
	case DelayParams:
		var d *effects.Delay
		d, err = effects.NewDelay(sampleRate)
		proc = &delayNode{d}
	case LimiterParams:
		var l *dynamics.Limiter
		l, err = dynamics.NewLimiter(sampleRate)
		proc = &limiterNode{l}
	default:
		return nil, fmt.Errorf("chain: unsupported params %T", p)
	}

	if err != nil {
		return nil, err
	}

	if err := proc.apply(p, false); err != nil {
		return nil, err
	}

	return proc, nil
}

type filterNode struct {
	section    *biquad.Section
	sampleRate float64
}

func (n *filterNode) apply(p Params, _ bool) error {
	if c, ok := filterCoefficients(p, n.sampleRate); ok {
		n.section.SetCoefficients(c)
	}

	return nil
}

// filterCoefficients designs the biquad for high-pass and EQ parameters.
func filterCoefficients(p Params, sampleRate float64) (biquad.Coefficients, bool) {
	switch v := p.(type) {
	case HighPassParams:
		return design.Highpass(v.FrequencyHz, v.Q, sampleRate), true
	case EQBandParams:
		switch v.Band {
		case BandLow:
			return design.LowShelf(v.FrequencyHz, v.GainDB, design.DefaultQ, sampleRate), true
		case BandMid:
			return design.Peak(v.FrequencyHz, v.GainDB, v.Q, sampleRate), true
		case BandHigh:
			return design.HighShelf(v.FrequencyHz, v.GainDB, design.DefaultQ, sampleRate), true
		}
	}

	return biquad.Coefficients{}, false
}

func (n *filterNode) process(block []float64) {
	core.SanitizeBlock(block)
	n.section.ProcessBlock(block)
}

func (n *filterNode) reset() { n.section.Reset() }

type deEsserNode struct{ d *dynamics.DeEsser }

func (n *deEsserNode) apply(p Params, _ bool) error {
	v := p.(DeEsserParams)

	return firstError(
		n.d.SetFrequency(v.FrequencyHz),
		n.d.SetThreshold(v.ThresholdDB),
		n.d.SetMode(v.Mode),
	)
}

func (n *deEsserNode) process(block []float64) { n.d.ProcessInPlace(block) }
func (n *deEsserNode) reset()                  { n.d.Reset() }
func (n *deEsserNode) gainReductionDB() float64 {
	return n.d.GainReductionDB()
}

type compressorNode struct{ c *dynamics.Compressor }

func (n *compressorNode) apply(p Params, _ bool) error {
	v := p.(CompressorParams)

	return firstError(
		n.c.SetThreshold(v.ThresholdDB),
		n.c.SetKnee(v.KneeDB),
		n.c.SetRatio(v.Ratio),
		n.c.SetAttack(v.AttackSeconds),
		n.c.SetRelease(v.ReleaseSeconds),
	)
}

func (n *compressorNode) process(block []float64) { n.c.ProcessInPlace(block) }
func (n *compressorNode) reset()                  { n.c.Reset() }
func (n *compressorNode) gainReductionDB() float64 {
	return n.c.GainReductionDB()
}

type limiterNode struct{ l *dynamics.Limiter }

func (n *limiterNode) apply(p Params, _ bool) error {
	return n.l.SetCeiling(p.(LimiterParams).CeilingDB)
}

func (n *limiterNode) process(block []float64) { n.l.ProcessInPlace(block) }
func (n *limiterNode) reset()                  { n.l.Reset() }
func (n *limiterNode) gainReductionDB() float64 {
	return n.l.GainReductionDB()
}

type saturatorNode struct{ s *effects.Saturator }

func (n *saturatorNode) apply(p Params, _ bool) error {
	a := p.(SaturatorParams).Amount
	return firstError(n.s.SetDrive(a), n.s.SetMix(a))
}

func (n *saturatorNode) process(block []float64) { n.s.ProcessInPlace(block) }
func (n *saturatorNode) reset()                  { n.s.Reset() }

type reverbNode struct{ r *reverb.FDN }

func (n *reverbNode) apply(p Params, _ bool) error {
	return n.r.SetAmount(p.(ReverbParams).Amount)
}

func (n *reverbNode) process(block []float64) { n.r.ProcessInPlace(block) }
func (n *reverbNode) reset()                  { n.r.Reset() }

type delayNode struct{ d *effects.Delay }

// DelayTime returns the echo time for a delay amount: 0.3 s per unit,
// never shorter than 60 ms.
func DelayTime(amount float64) float64 {
	return math.Max(delaySecondsPerAmount*amount, minDelaySeconds)
}

// DelayFeedback returns the echo feedback for a delay amount, capped
// below unity.
func DelayFeedback(amount float64) float64 {
	return math.Min(feedbackPerAmount*amount, effects.MaxDelayFeedback)
}

func (n *delayNode) apply(p Params, live bool) error {
	a := p.(DelayParams).Amount

	setTime := n.d.SetTime
	if live {
		setTime = n.d.SetTargetTime
	}

	return firstError(
		setTime(DelayTime(a)),
		n.d.SetFeedback(DelayFeedback(a)),
		n.d.SetMix(a),
	)
}

func (n *delayNode) process(block []float64) { n.d.ProcessInPlace(block) }
func (n *delayNode) reset()                  { n.d.Reset() }

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}
