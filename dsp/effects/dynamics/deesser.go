package dynamics

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vocalmix/dsp/core"
	"github.com/cwbudde/algo-vocalmix/dsp/filter/biquad"
	"github.com/cwbudde/algo-vocalmix/dsp/filter/design"
)

// DeEsserMode selects the gain reduction strategy.
type DeEsserMode int

const (
	// DeEsserSplitBand attenuates only the band above the detection
	// frequency and recombines it with the untouched low band.
	DeEsserSplitBand DeEsserMode = iota

	// DeEsserWideband attenuates the whole signal while sibilance is
	// detected.
	DeEsserWideband
)

const (
	defaultDeEsserFreqHz   = 7000.0
	defaultDeEsserThreshDB = -15.0
	defaultDeEsserKneeDB   = 3.0
	defaultDeEsserRangeDB  = -24.0
	defaultDeEsserOrder    = 2

	// Fixed detector dynamics.
	DeEsserRatio   = 8.0
	DeEsserAttack  = 0.001
	DeEsserRelease = 0.05

	minDeEsserRangeDB = -60.0
)

// DeEsserMetrics holds metering information for visualization.
type DeEsserMetrics struct {
	// DetectionLevel is the peak sidechain level since last reset.
	DetectionLevel float64
	// GainReduction is the minimum linear gain since last reset.
	GainReduction float64
}

// DeEsser reduces sibilance detected by a highpass sidechain.
//
// The sidechain is a cascade of highpass sections at the detection
// frequency feeding a fast 8:1 compressor. In split-band mode a lowpass at
// the same corner separates the signal into a low band and its complement;
// only the complement is scaled by the computed gain, which never exceeds
// one.
type DeEsser struct {
	freqHz      float64
	thresholdDB float64
	kneeDB      float64
	rangeDB     float64
	mode        DeEsserMode

	sampleRate float64

	detect []*biquad.Section
	split  *biquad.Section

	knee     softKnee
	env      follower
	rangeLin float64
	lastGain float64

	metrics DeEsserMetrics
}

// NewDeEsser creates a split-band de-esser at 7 kHz with a -15 dB threshold.
func NewDeEsser(sampleRate float64) (*DeEsser, error) {
	if err := validateSampleRate("de-esser", sampleRate); err != nil {
		return nil, err
	}

	d := &DeEsser{
		freqHz:      defaultDeEsserFreqHz,
		thresholdDB: defaultDeEsserThreshDB,
		kneeDB:      defaultDeEsserKneeDB,
		rangeDB:     defaultDeEsserRangeDB,
		mode:        DeEsserSplitBand,
		sampleRate:  sampleRate,
	}

	if d.freqHz >= sampleRate/2 {
		d.freqHz = sampleRate / 4
	}

	d.detect = make([]*biquad.Section, defaultDeEsserOrder)
	for i := range d.detect {
		d.detect[i] = biquad.NewSection(biquad.Identity())
	}

	d.split = biquad.NewSection(biquad.Identity())

	d.updateCoefficients()
	d.updateFilters()
	d.Reset()

	return d, nil
}

// SetFrequency sets the detection corner in Hz, within (0, Nyquist).
func (d *DeEsser) SetFrequency(hz float64) error {
	if hz <= 0 || hz >= d.sampleRate/2 || math.IsNaN(hz) {
		return &rangeError{kind: "de-esser", param: "frequency", value: hz, lo: 0, hi: d.sampleRate / 2}
	}

	d.freqHz = hz
	d.updateFilters()

	return nil
}

// SetThreshold sets the detection threshold in dB, within [-96, 0].
func (d *DeEsser) SetThreshold(dB float64) error {
	if err := checkRange("de-esser", "threshold", dB, MinThresholdDB, MaxThresholdDB); err != nil {
		return err
	}

	d.thresholdDB = dB
	d.updateCoefficients()

	return nil
}

// SetKnee sets the knee width in dB.
func (d *DeEsser) SetKnee(kneeDB float64) error {
	if err := checkRange("de-esser", "knee", kneeDB, MinKneeDB, MaxKneeDB); err != nil {
		return err
	}

	d.kneeDB = kneeDB
	d.updateCoefficients()

	return nil
}

// SetRange limits the maximum reduction, in dB within [-60, 0].
func (d *DeEsser) SetRange(dB float64) error {
	if err := checkRange("de-esser", "range", dB, minDeEsserRangeDB, 0); err != nil {
		return err
	}

	d.rangeDB = dB
	d.updateCoefficients()

	return nil
}

// SetMode selects split-band or wideband reduction.
func (d *DeEsser) SetMode(mode DeEsserMode) error {
	if mode != DeEsserSplitBand && mode != DeEsserWideband {
		return fmt.Errorf("de-esser mode invalid: %d", mode)
	}

	d.mode = mode

	return nil
}

// Frequency returns the detection corner in Hz.
func (d *DeEsser) Frequency() float64 { return d.freqHz }

// Threshold returns the detection threshold in dB.
func (d *DeEsser) Threshold() float64 { return d.thresholdDB }

// Mode returns the reduction mode.
func (d *DeEsser) Mode() DeEsserMode { return d.mode }

// ProcessSample processes one sample.
func (d *DeEsser) ProcessSample(input float64) float64 {
	input = core.Sanitize(input)

	detected := input
	for _, f := range d.detect {
		detected = f.ProcessSample(detected)
	}

	gain := max(d.knee.gain(d.env.track(detected)), d.rangeLin)
	d.lastGain = gain

	d.metrics.DetectionLevel = max(d.metrics.DetectionLevel, math.Abs(detected))
	d.metrics.GainReduction = min(d.metrics.GainReduction, gain)

	if d.mode == DeEsserWideband {
		return input * gain
	}

	// low + gain*high with high = input - low, so unity gain is exact.
	band := input - d.split.ProcessSample(input)

	return input + band*(gain-1)
}

// ProcessInPlace applies de-essing to buf in place.
func (d *DeEsser) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = d.ProcessSample(buf[i])
	}
}

// GainReductionDB returns the reduction applied to the most recent sample
// in dB.
func (d *DeEsser) GainReductionDB() float64 {
	if d.lastGain >= 1 {
		return 0
	}

	return 20 * math.Log10(d.lastGain)
}

// Reset clears filter and envelope state and metrics.
func (d *DeEsser) Reset() {
	d.env.reset()

	for _, f := range d.detect {
		f.Reset()
	}

	d.split.Reset()

	d.lastGain = 1
	d.ResetMetrics()
}

// GetMetrics returns current metering values.
func (d *DeEsser) GetMetrics() DeEsserMetrics {
	return d.metrics
}

// ResetMetrics clears metering state.
func (d *DeEsser) ResetMetrics() {
	d.metrics = DeEsserMetrics{GainReduction: 1}
}

func (d *DeEsser) updateCoefficients() {
	d.knee.configure(d.thresholdDB, DeEsserRatio, d.kneeDB)
	d.env.configure(DeEsserAttack, DeEsserRelease, d.sampleRate)
	d.rangeLin = core.DBToLinear(d.rangeDB)
}

func (d *DeEsser) updateFilters() {
	hp := design.Highpass(d.freqHz, design.DefaultQ, d.sampleRate)
	for _, f := range d.detect {
		f.SetCoefficients(hp)
	}

	d.split.SetCoefficients(design.Lowpass(d.freqHz, design.DefaultQ, d.sampleRate))
}
