package chain

import (
	"math"

	"github.com/cwbudde/algo-vocalmix/dsp/effects/dynamics"
)

// Fixed settings of the nodes that presets do not control.
const (
	HighPassFrequencyHz = 100.0
	HighPassQ           = 1.0
	LimiterCeilingDB    = -1.0

	MinGainDB = -12.0
	MaxGainDB = 12.0
)

// Params is the typed parameter record of one node. The concrete types
// are HighPassParams, DeEsserParams, CompressorParams, EQBandParams,
// SaturatorParams, ReverbParams, DelayParams and LimiterParams.
type Params interface {
	Kind() Kind
	validate(sampleRate float64) error
}

// HighPassParams configures the rumble filter.
type HighPassParams struct {
	FrequencyHz float64
	Q           float64
}

// DeEsserParams configures the sibilance reducer.
type DeEsserParams struct {
	FrequencyHz float64
	ThresholdDB float64
	Mode        dynamics.DeEsserMode
}

// CompressorParams configures the main compressor. Times are in seconds.
type CompressorParams struct {
	ThresholdDB    float64
	KneeDB         float64
	Ratio          float64
	AttackSeconds  float64
	ReleaseSeconds float64
}

// EQBandParams configures one EQ band. Q only applies to the mid peak.
type EQBandParams struct {
	Band        Band
	FrequencyHz float64
	GainDB      float64
	Q           float64
}

// SaturatorParams sets drive and wet amount of the saturator.
type SaturatorParams struct{ Amount float64 }

// ReverbParams sets wet amount and decay of the reverb.
type ReverbParams struct{ Amount float64 }

// DelayParams sets time, feedback and wet amount of the delay.
type DelayParams struct{ Amount float64 }

// LimiterParams sets the limiter ceiling.
type LimiterParams struct{ CeilingDB float64 }

func (HighPassParams) Kind() Kind   { return KindHighPass }
func (DeEsserParams) Kind() Kind    { return KindDeEsser }
func (CompressorParams) Kind() Kind { return KindCompressor }
func (p EQBandParams) Kind() Kind   { return p.Band.Kind() }
func (SaturatorParams) Kind() Kind  { return KindSaturator }
func (ReverbParams) Kind() Kind     { return KindReverb }
func (DelayParams) Kind() Kind      { return KindDelay }
func (LimiterParams) Kind() Kind    { return KindLimiter }

func (p HighPassParams) validate(sr float64) error {
	if err := checkFrequency(KindHighPass, "frequency", p.FrequencyHz, sr); err != nil {
		return err
	}

	return checkPositive(KindHighPass, "q", p.Q)
}

func (p DeEsserParams) validate(sr float64) error {
	if err := checkFrequency(KindDeEsser, "frequency", p.FrequencyHz, sr); err != nil {
		return err
	}

	if p.Mode != dynamics.DeEsserSplitBand && p.Mode != dynamics.DeEsserWideband {
		return invalid(KindDeEsser, "mode", float64(p.Mode), "unknown mode")
	}

	return checkRange(KindDeEsser, "threshold", p.ThresholdDB, dynamics.MinThresholdDB, dynamics.MaxThresholdDB)
}

func (p CompressorParams) validate(float64) error {
	checks := []struct {
		field  string
		v      float64
		lo, hi float64
	}{
		{"threshold", p.ThresholdDB, dynamics.MinThresholdDB, dynamics.MaxThresholdDB},
		{"knee", p.KneeDB, dynamics.MinKneeDB, dynamics.MaxKneeDB},
		{"ratio", p.Ratio, dynamics.MinRatio, dynamics.MaxRatio},
		{"attack", p.AttackSeconds, 0, dynamics.MaxTimeSeconds},
		{"release", p.ReleaseSeconds, 0, dynamics.MaxTimeSeconds},
	}

	for _, c := range checks {
		if err := checkRange(KindCompressor, c.field, c.v, c.lo, c.hi); err != nil {
			return err
		}
	}

	return nil
}

func (p EQBandParams) validate(sr float64) error {
	kind := p.Kind()

	if p.Band < BandLow || p.Band > BandHigh {
		return invalid(kind, "band", float64(p.Band), "unknown band")
	}

	if err := checkFrequency(kind, "frequency", p.FrequencyHz, sr); err != nil {
		return err
	}

	if p.Band == BandMid {
		if err := checkPositive(kind, "q", p.Q); err != nil {
			return err
		}
	}

	return checkRange(kind, "gain", p.GainDB, MinGainDB, MaxGainDB)
}

func (p SaturatorParams) validate(float64) error {
	return checkRange(KindSaturator, "amount", p.Amount, 0, 1)
}

func (p ReverbParams) validate(float64) error {
	return checkRange(KindReverb, "amount", p.Amount, 0, 1)
}

func (p DelayParams) validate(float64) error {
	return checkRange(KindDelay, "amount", p.Amount, 0, 1)
}

func (p LimiterParams) validate(float64) error {
	return checkRange(KindLimiter, "ceiling", p.CeilingDB, dynamics.MinThresholdDB, dynamics.MaxThresholdDB)
}

// amount returns the wet amount of effect params and 1 for the rest.
func amount(p Params) float64 {
	switch v := p.(type) {
	case SaturatorParams:
		return v.Amount
	case ReverbParams:
		return v.Amount
	case DelayParams:
		return v.Amount
	default:
		return 1
	}
}

func checkRange(kind Kind, field string, v, lo, hi float64) error {
	if math.IsNaN(v) || v < lo || v > hi {
		return invalid(kind, field, v, "must be in [%g, %g]", lo, hi)
	}

	return nil
}

func checkPositive(kind Kind, field string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return invalid(kind, field, v, "must be > 0")
	}

	return nil
}

func checkFrequency(kind Kind, field string, hz, sr float64) error {
	if !(hz > 0) || hz >= sr/2 {
		return invalid(kind, field, hz, "must be in (0, %g)", sr/2)
	}

	return nil
}
