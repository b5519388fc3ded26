package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vocalmix/dsp/core"
	"github.com/cwbudde/algo-vocalmix/dsp/delay"
)

const (
	defaultDelayTimeSeconds = 0.25
	defaultDelayFeedback    = 0.35
	defaultDelayMix         = 0.25
	defaultDelayRampSeconds = 0.05

	// MaxDelayFeedback keeps the echo loop strictly below unity gain.
	MaxDelayFeedback = 0.95

	maxDelayTimeSeconds = 2.0
	minDelayTimeSeconds = 0.001
)

// Delay is a feedback delay with dry/wet mix. Time changes made through
// SetTargetTime glide over a short ramp instead of jumping.
type Delay struct {
	sampleRate   float64
	delaySeconds float64
	feedback     float64
	mix          float64

	line    *delay.Line
	current float64
	target  float64
	step    float64
}

// NewDelay creates a delay with practical defaults.
func NewDelay(sampleRate float64) (*Delay, error) {
	d := &Delay{
		delaySeconds: defaultDelayTimeSeconds,
		feedback:     defaultDelayFeedback,
		mix:          defaultDelayMix,
	}

	if err := d.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}

	return d, nil
}

// SetSampleRate updates sample rate and reallocates the line.
func (d *Delay) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("delay sample rate must be > 0: %f", sampleRate)
	}

	line, err := delay.New(int(math.Ceil(maxDelayTimeSeconds*sampleRate)) + 4)
	if err != nil {
		return err
	}

	d.sampleRate = sampleRate
	d.line = line
	d.snap()

	return nil
}

// SetTime sets delay time in seconds, effective immediately.
func (d *Delay) SetTime(seconds float64) error {
	if err := validateDelayTime(seconds); err != nil {
		return err
	}

	d.delaySeconds = seconds
	d.snap()

	return nil
}

// SetTargetTime sets delay time in seconds, reached after a short ramp.
func (d *Delay) SetTargetTime(seconds float64) error {
	if err := validateDelayTime(seconds); err != nil {
		return err
	}

	d.delaySeconds = seconds
	d.target = d.samplesFor(seconds)
	d.step = math.Abs(d.target-d.current) / (defaultDelayRampSeconds * d.sampleRate)

	return nil
}

// SetFeedback sets feedback amount in [0, MaxDelayFeedback].
func (d *Delay) SetFeedback(feedback float64) error {
	if feedback < 0 || feedback > MaxDelayFeedback || math.IsNaN(feedback) {
		return fmt.Errorf("delay feedback must be in [0, %f]: %f", MaxDelayFeedback, feedback)
	}

	d.feedback = feedback

	return nil
}

// SetMix sets wet amount in [0, 1].
func (d *Delay) SetMix(mix float64) error {
	if mix < 0 || mix > 1 || math.IsNaN(mix) {
		return fmt.Errorf("delay mix must be in [0, 1]: %f", mix)
	}

	d.mix = mix

	return nil
}

// Reset clears delay state and finishes any pending ramp.
func (d *Delay) Reset() {
	d.line.Reset()
	d.snap()
}

// ProcessSample processes one sample.
func (d *Delay) ProcessSample(input float64) float64 {
	input = core.Sanitize(input)

	if d.current != d.target {
		if math.Abs(d.target-d.current) <= d.step {
			d.current = d.target
		} else if d.target > d.current {
			d.current += d.step
		} else {
			d.current -= d.step
		}
	}

	delayed := d.line.ReadFractional(d.current)
	d.line.Write(core.Sanitize(input + delayed*d.feedback))

	return input*(1-d.mix) + delayed*d.mix
}

// ProcessInPlace applies delay to buf in place.
func (d *Delay) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = d.ProcessSample(buf[i])
	}
}

// SampleRate returns sample rate in Hz.
func (d *Delay) SampleRate() float64 { return d.sampleRate }

// Time returns the requested delay time in seconds.
func (d *Delay) Time() float64 { return d.delaySeconds }

// CurrentDelaySamples returns the effective delay, which lags Time while a
// ramp is in progress.
func (d *Delay) CurrentDelaySamples() float64 { return d.current }

// Feedback returns feedback amount.
func (d *Delay) Feedback() float64 { return d.feedback }

// Mix returns wet amount in [0, 1].
func (d *Delay) Mix() float64 { return d.mix }

func (d *Delay) snap() {
	d.target = d.samplesFor(d.delaySeconds)
	d.current = d.target
	d.step = 0
}

func (d *Delay) samplesFor(seconds float64) float64 {
	return max(seconds*d.sampleRate, 1)
}

func validateDelayTime(seconds float64) error {
	if seconds < minDelayTimeSeconds || seconds > maxDelayTimeSeconds || math.IsNaN(seconds) {
		return fmt.Errorf("delay time must be in [%f, %f]: %f",
			minDelayTimeSeconds, maxDelayTimeSeconds, seconds)
	}

	return nil
}
