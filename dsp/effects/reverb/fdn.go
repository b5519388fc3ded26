package reverb

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vocalmix/dsp/core"
	"github.com/cwbudde/algo-vocalmix/dsp/delay"
)

const (
	fdnSize = 8

	defaultWet          = 0.2
	defaultDry          = 1.0
	defaultRT60Seconds  = 1.8
	defaultDamp         = 0.3
	defaultPreDelaySecs = 0.01

	maxPreDelaySeconds = 0.5
	referenceRate      = 44100.0

	// Amount mapping: decay grows from minRT60 to minRT60+rangeRT60.
	minRT60   = 0.4
	rangeRT60 = 2.6
)

// Mutually prime line lengths at 44.1 kHz, scaled for other rates.
var fdnDelaySamples = [fdnSize]float64{1537, 1753, 1999, 2251, 2473, 2689, 2851, 3067}

// FDN is a mono 8-line feedback delay network reverb.
//
// Lines are mixed through a normalized Hadamard matrix, each feedback path
// has a one-pole damping filter and a gain tuned so that the tail decays by
// 60 dB after RT60 seconds.
type FDN struct {
	sampleRate      float64
	wet             float64
	dry             float64
	rt60Seconds     float64
	damp            float64
	preDelaySeconds float64

	lengths      [fdnSize]int
	lines        [fdnSize]*delay.Line
	filterState  [fdnSize]float64
	feedbackGain [fdnSize]float64
	preDelay     *delay.Line
	preSamples   int
}

// NewFDN creates an FDN reverb for the given sample rate.
func NewFDN(sampleRate float64) (*FDN, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("fdn reverb sample rate must be > 0: %f", sampleRate)
	}

	r := &FDN{
		sampleRate:      sampleRate,
		wet:             defaultWet,
		dry:             defaultDry,
		rt60Seconds:     defaultRT60Seconds,
		damp:            defaultDamp,
		preDelaySeconds: defaultPreDelaySecs,
	}

	scale := sampleRate / referenceRate
	for i, n := range fdnDelaySamples {
		r.lengths[i] = max(int(math.Round(n*scale)), 1)

		line, err := delay.New(r.lengths[i] + 1)
		if err != nil {
			return nil, err
		}

		r.lines[i] = line
	}

	pre, err := delay.New(int(math.Ceil(maxPreDelaySeconds*sampleRate)) + 1)
	if err != nil {
		return nil, err
	}

	r.preDelay = pre
	r.preSamples = int(math.Round(r.preDelaySeconds * sampleRate))
	r.updateFeedbackGains()

	return r, nil
}

// SetAmount maps a single [0, 1] control onto wet level and decay time:
// wet = amount, RT60 = 0.4 s + 2.6 s * amount. The dry path stays at unity.
func (r *FDN) SetAmount(amount float64) error {
	if amount < 0 || amount > 1 || math.IsNaN(amount) {
		return fmt.Errorf("fdn reverb amount must be in [0, 1]: %f", amount)
	}

	r.wet = amount
	r.dry = 1
	r.rt60Seconds = minRT60 + rangeRT60*amount
	r.updateFeedbackGains()

	return nil
}

// SetWet sets wet gain.
func (r *FDN) SetWet(v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("fdn reverb wet must be >= 0: %f", v)
	}

	r.wet = v

	return nil
}

// SetDry sets dry gain.
func (r *FDN) SetDry(v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("fdn reverb dry must be >= 0: %f", v)
	}

	r.dry = v

	return nil
}

// SetRT60 sets decay time to -60 dB in seconds.
func (r *FDN) SetRT60(seconds float64) error {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return fmt.Errorf("fdn reverb RT60 must be > 0: %f", seconds)
	}

	r.rt60Seconds = seconds
	r.updateFeedbackGains()

	return nil
}

// SetDamp sets feedback damping in [0, 1].
func (r *FDN) SetDamp(v float64) error {
	if v < 0 || v > 1 || math.IsNaN(v) {
		return fmt.Errorf("fdn reverb damp must be in [0,1]: %f", v)
	}

	r.damp = v

	return nil
}

// SetPreDelay sets pre-delay time in seconds, at most 0.5 s.
func (r *FDN) SetPreDelay(seconds float64) error {
	if seconds < 0 || seconds > maxPreDelaySeconds || math.IsNaN(seconds) {
		return fmt.Errorf("fdn reverb pre-delay must be in [0, %f]: %f", maxPreDelaySeconds, seconds)
	}

	r.preDelaySeconds = seconds
	r.preSamples = int(math.Round(seconds * r.sampleRate))

	return nil
}

// Reset clears all delay and filter state.
func (r *FDN) Reset() {
	for i := range r.lines {
		r.lines[i].Reset()
		r.filterState[i] = 0
	}

	r.preDelay.Reset()
}

// ProcessSample processes one sample.
func (r *FDN) ProcessSample(input float64) float64 {
	input = core.Sanitize(input)

	in := input
	if r.preSamples > 0 {
		in = r.preDelay.Read(r.preSamples)
		r.preDelay.Write(input)
	}

	var taps [fdnSize]float64
	for i := range fdnSize {
		taps[i] = r.lines[i].Read(r.lengths[i])
	}

	mixed := hadamard8(taps)

	const scale = 0.35355339059327373 // 1/sqrt(8)

	var out float64

	for i := range fdnSize {
		filtered := mixed[i]*(1-r.damp) + r.filterState[i]*r.damp
		r.filterState[i] = core.FlushDenormals(filtered)
		r.lines[i].Write(core.Sanitize(in*scale + filtered*r.feedbackGain[i]))

		out += taps[i]
	}

	return input*r.dry + out*scale*r.wet
}

// ProcessInPlace applies reverb to buf in place.
func (r *FDN) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = r.ProcessSample(buf[i])
	}
}

// SampleRate returns sample rate in Hz.
func (r *FDN) SampleRate() float64 { return r.sampleRate }

// Wet returns wet gain.
func (r *FDN) Wet() float64 { return r.wet }

// Dry returns dry gain.
func (r *FDN) Dry() float64 { return r.dry }

// RT60 returns decay time to -60 dB in seconds.
func (r *FDN) RT60() float64 { return r.rt60Seconds }

// Damp returns damping amount in [0, 1].
func (r *FDN) Damp() float64 { return r.damp }

// PreDelay returns pre-delay time in seconds.
func (r *FDN) PreDelay() float64 { return r.preDelaySeconds }

func (r *FDN) updateFeedbackGains() {
	for i := range fdnSize {
		delaySeconds := float64(r.lengths[i]) / r.sampleRate
		r.feedbackGain[i] = math.Pow(10, -3*delaySeconds/r.rt60Seconds)
	}
}

// hadamard8 applies the unnormalized 8x8 Sylvester-Hadamard matrix with a
// fast Walsh-Hadamard butterfly, then scales by 1/sqrt(8).
func hadamard8(x [fdnSize]float64) [fdnSize]float64 {
	for h := 1; h < fdnSize; h <<= 1 {
		for i := 0; i < fdnSize; i += h << 1 {
			for j := i; j < i+h; j++ {
				a, b := x[j], x[j+h]
				x[j], x[j+h] = a+b, a-b
			}
		}
	}

	const scale = 0.35355339059327373
	for i := range x {
		x[i] *= scale
	}

	return x
}
