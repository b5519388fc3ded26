package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vocalmix/dsp/core"
	"github.com/cwbudde/algo-vocalmix/dsp/filter/biquad"
	"github.com/cwbudde/algo-vocalmix/dsp/filter/design"
)

const (
	// SaturatorOversampling is the internal rate multiplier of Saturator.
	SaturatorOversampling = 4

	// saturatorScale is the fixed pre-gain applied ahead of tanh.
	saturatorScale = 3.0

	defaultSaturatorDrive = 0.5
	defaultSaturatorMix   = 1.0
	maxSaturatorDrive     = 10.0

	// Anti-imaging and anti-alias corner relative to the base rate.
	saturatorCutoffRatio = 0.45
)

// Q values of the two sections of a 4th-order Butterworth lowpass.
var butterworth4Q = [2]float64{0.5411961001461970, 1.3065629648763766}

// Saturator is a tanh waveshaper run at 4x the base sample rate.
//
// The curve is tanh(x * drive * 3). Upsampling uses zero stuffing followed by
// a 4th-order lowpass, and the shaped signal passes the same lowpass again
// before decimation.
type Saturator struct {
	sampleRate float64
	drive      float64
	mix        float64

	up   [2]*biquad.Section
	down [2]*biquad.Section

	scratch []float64
}

// NewSaturator creates a saturator for the given base sample rate.
func NewSaturator(sampleRate float64) (*Saturator, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("saturator sample rate must be > 0: %f", sampleRate)
	}

	s := &Saturator{
		sampleRate: sampleRate,
		drive:      defaultSaturatorDrive,
		mix:        defaultSaturatorMix,
	}

	osRate := sampleRate * SaturatorOversampling
	cutoff := sampleRate * saturatorCutoffRatio

	for i, q := range butterworth4Q {
		s.up[i] = biquad.NewSection(design.Lowpass(cutoff, q, osRate))
		s.down[i] = biquad.NewSection(design.Lowpass(cutoff, q, osRate))
	}

	return s, nil
}

// SetDrive sets the drive amount in [0, 10]. Zero silences the wet path.
func (s *Saturator) SetDrive(drive float64) error {
	if drive < 0 || drive > maxSaturatorDrive || math.IsNaN(drive) {
		return fmt.Errorf("saturator drive must be in [0, %f]: %f", maxSaturatorDrive, drive)
	}

	s.drive = drive

	return nil
}

// SetMix sets wet amount in [0, 1].
func (s *Saturator) SetMix(mix float64) error {
	if mix < 0 || mix > 1 || math.IsNaN(mix) {
		return fmt.Errorf("saturator mix must be in [0, 1]: %f", mix)
	}

	s.mix = mix

	return nil
}

// Drive returns the drive amount.
func (s *Saturator) Drive() float64 { return s.drive }

// Mix returns the wet amount.
func (s *Saturator) Mix() float64 { return s.mix }

// Reset clears the resampling filter state.
func (s *Saturator) Reset() {
	for i := range s.up {
		s.up[i].Reset()
		s.down[i].Reset()
	}
}

// ProcessSample processes one sample.
func (s *Saturator) ProcessSample(input float64) float64 {
	input = core.Sanitize(input)
	return input*(1-s.mix) + s.shape(input)*s.mix
}

// ProcessInPlace applies saturation to buf in place.
func (s *Saturator) ProcessInPlace(buf []float64) {
	s.scratch = core.EnsureLen(s.scratch, len(buf))

	for i, x := range buf {
		x = core.Sanitize(x)
		buf[i] = x
		s.scratch[i] = s.shape(x)
	}

	MixInPlace(buf, s.scratch, s.mix)
}

func (s *Saturator) shape(x float64) float64 {
	k := s.drive * saturatorScale

	var y float64

	for phase := range SaturatorOversampling {
		u := 0.0
		if phase == 0 {
			u = x * SaturatorOversampling
		}

		u = s.up[1].ProcessSample(s.up[0].ProcessSample(u))
		y = s.down[1].ProcessSample(s.down[0].ProcessSample(math.Tanh(u * k)))
	}

	return core.FlushDenormals(y)
}
