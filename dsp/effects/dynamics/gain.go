package dynamics

import (
	"math"

	"github.com/cwbudde/algo-vocalmix/dsp/core"
)

// log2Of10Div20 converts dB to the log2 domain: log2(10) / 20.
const log2Of10Div20 = 0.166096404744

// softKnee is the static gain computer shared by all processors.
//
// Levels are compared in the log2 domain. Inside the knee the overshoot is
// smoothed quadratically: (overshoot + w/2)^2 / (2w).
type softKnee struct {
	thresholdLog2    float64
	kneeWidthLog2    float64
	invKneeWidthLog2 float64
	factor           float64
}

func (k *softKnee) configure(thresholdDB, ratio, kneeDB float64) {
	k.thresholdLog2 = thresholdDB * log2Of10Div20
	k.kneeWidthLog2 = kneeDB * log2Of10Div20

	if kneeDB > 0 {
		k.invKneeWidthLog2 = 1 / k.kneeWidthLog2
	} else {
		k.invKneeWidthLog2 = 0
	}

	k.factor = 1 - 1/ratio
}

// gain returns the linear gain for a detector level.
func (k *softKnee) gain(level float64) float64 {
	if level <= 0 {
		return 1
	}

	overshoot := math.Log2(level) - k.thresholdLog2

	if k.kneeWidthLog2 <= 0 {
		if overshoot <= 0 {
			return 1
		}

		return math.Exp2(-overshoot * k.factor)
	}

	halfWidth := k.kneeWidthLog2 * 0.5

	var effective float64

	switch {
	case overshoot < -halfWidth:
		return 1
	case overshoot > halfWidth:
		effective = overshoot
	default:
		scratch := overshoot + halfWidth
		effective = scratch * scratch * 0.5 * k.invKneeWidthLog2
	}

	return math.Exp2(-effective * k.factor)
}

// follower is a peak envelope follower with separate attack and release.
type follower struct {
	attackCoeff  float64
	releaseCoeff float64
	level        float64
}

func (f *follower) configure(attackSeconds, releaseSeconds, sampleRate float64) {
	f.attackCoeff = core.TimeConstantCoeff(attackSeconds, sampleRate)
	f.releaseCoeff = core.TimeConstantCoeff(releaseSeconds, sampleRate)
}

func (f *follower) track(x float64) float64 {
	x = math.Abs(x)

	coeff := f.releaseCoeff
	if x > f.level {
		coeff = f.attackCoeff
	}

	f.level = core.FlushDenormals(coeff*f.level + (1-coeff)*x)

	return f.level
}

func (f *follower) reset() {
	f.level = 0
}

func validateSampleRate(kind string, sampleRate float64) error {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return &rangeError{kind: kind, param: "sample rate", value: sampleRate, lo: 0, hi: math.Inf(1)}
	}

	return nil
}
