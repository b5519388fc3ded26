// Package preset defines the genre presets that configure the vocal chain.
//
// A Config is a plain value: customizing a preset returns a new Config and
// never touches the catalog entry it came from.
package preset

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("preset: invalid config")

// Parameter ranges enforced by Validate.
const (
	MinGainDB      = -12.0
	MaxGainDB      = 12.0
	MinThresholdDB = -96.0
	MaxThresholdDB = 0.0
	MaxKneeDB      = 40.0
	MinRatio       = 1.0
	MaxRatio       = 100.0
	MaxTimeSeconds = 5.0
)

// Default EQ corner frequencies.
const (
	DefaultLowFreqHz  = 200.0
	DefaultMidFreqHz  = 1000.0
	DefaultMidQ       = 1.0
	DefaultHighFreqHz = 3000.0
)

// EQ holds the three-band equalizer gains in dB and their corners.
type EQ struct {
	Low  float64 `json:"low"`
	Mid  float64 `json:"mid"`
	High float64 `json:"high"`

	LowFreqHz  float64 `json:"lowFrequency"`
	MidFreqHz  float64 `json:"midFrequency"`
	MidQ       float64 `json:"midQ"`
	HighFreqHz float64 `json:"highFrequency"`
}

// Compressor holds the main compressor settings. Times are in seconds.
type Compressor struct {
	ThresholdDB    float64 `json:"threshold"`
	KneeDB         float64 `json:"knee"`
	Ratio          float64 `json:"ratio"`
	AttackSeconds  float64 `json:"attack"`
	ReleaseSeconds float64 `json:"release"`
}

// DeEsser holds the sibilance detector settings.
type DeEsser struct {
	FrequencyHz float64 `json:"frequency"`
	ThresholdDB float64 `json:"threshold"`
}

// Effects holds the wet amounts of the time-based and colour effects, each
// in [0, 1]. Zero disables the effect.
type Effects struct {
	Reverb     float64 `json:"reverb"`
	Delay      float64 `json:"delay"`
	Saturation float64 `json:"saturation"`
}

// Config is one complete preset.
type Config struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	EQ         EQ         `json:"eq"`
	Compressor Compressor `json:"compressor"`
	DeEsser    DeEsser    `json:"deEsser"`
	Effects    Effects    `json:"effects"`
}

// WithEQ returns a copy of c with the given EQ.
func (c Config) WithEQ(eq EQ) Config {
	c.EQ = eq
	return c
}

// WithCompressor returns a copy of c with the given compressor settings.
func (c Config) WithCompressor(comp Compressor) Config {
	c.Compressor = comp
	return c
}

// WithDeEsser returns a copy of c with the given de-esser settings.
func (c Config) WithDeEsser(d DeEsser) Config {
	c.DeEsser = d
	return c
}

// WithEffects returns a copy of c with the given effect amounts.
func (c Config) WithEffects(e Effects) Config {
	c.Effects = e
	return c
}

// Validate checks that every field is present and in range. Sample-rate
// dependent limits such as Nyquist are checked when a chain is built.
func (c Config) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalid)
	}

	checks := []struct {
		name   string
		v      float64
		lo, hi float64
	}{
		{"eq.low", c.EQ.Low, MinGainDB, MaxGainDB},
		{"eq.mid", c.EQ.Mid, MinGainDB, MaxGainDB},
		{"eq.high", c.EQ.High, MinGainDB, MaxGainDB},
		{"compressor.threshold", c.Compressor.ThresholdDB, MinThresholdDB, MaxThresholdDB},
		{"compressor.knee", c.Compressor.KneeDB, 0, MaxKneeDB},
		{"compressor.ratio", c.Compressor.Ratio, MinRatio, MaxRatio},
		{"compressor.attack", c.Compressor.AttackSeconds, 0, MaxTimeSeconds},
		{"compressor.release", c.Compressor.ReleaseSeconds, 0, MaxTimeSeconds},
		{"deEsser.threshold", c.DeEsser.ThresholdDB, MinThresholdDB, MaxThresholdDB},
		{"effects.reverb", c.Effects.Reverb, 0, 1},
		{"effects.delay", c.Effects.Delay, 0, 1},
		{"effects.saturation", c.Effects.Saturation, 0, 1},
	}

	for _, ch := range checks {
		if math.IsNaN(ch.v) || ch.v < ch.lo || ch.v > ch.hi {
			return fmt.Errorf("%w: %s %s must be in [%g, %g]: %g", ErrInvalid, c.ID, ch.name, ch.lo, ch.hi, ch.v)
		}
	}

	positive := []struct {
		name string
		v    float64
	}{
		{"eq.lowFrequency", c.EQ.LowFreqHz},
		{"eq.midFrequency", c.EQ.MidFreqHz},
		{"eq.midQ", c.EQ.MidQ},
		{"eq.highFrequency", c.EQ.HighFreqHz},
		{"deEsser.frequency", c.DeEsser.FrequencyHz},
	}

	for _, p := range positive {
		if !(p.v > 0) || math.IsInf(p.v, 0) {
			return fmt.Errorf("%w: %s %s must be > 0: %g", ErrInvalid, c.ID, p.name, p.v)
		}
	}

	return nil
}

// defaultEQ returns an EQ with the standard corners.
func defaultEQ(low, mid, high float64) EQ {
	return EQ{
		Low:        low,
		Mid:        mid,
		High:       high,
		LowFreqHz:  DefaultLowFreqHz,
		MidFreqHz:  DefaultMidFreqHz,
		MidQ:       DefaultMidQ,
		HighFreqHz: DefaultHighFreqHz,
	}
}
