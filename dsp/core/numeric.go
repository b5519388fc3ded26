package core

import "math"

const defaultEpsilon = 1e-12

// sampleCeiling bounds sanitized samples. Anything beyond is treated as a
// runaway value rather than program material.
const sampleCeiling = 64.0

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// NearlyEqual reports whether a and b are equal within eps.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Sanitize maps NaN to 0 and clamps infinities and runaway values to a
// bounded range so that downstream filter state stays finite.
func Sanitize(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}

	if x > sampleCeiling {
		return sampleCeiling
	}

	if x < -sampleCeiling {
		return -sampleCeiling
	}

	return x
}

// SanitizeBlock applies [Sanitize] to every sample of buf in place.
func SanitizeBlock(buf []float64) {
	for i, x := range buf {
		if x != x || x > sampleCeiling || x < -sampleCeiling {
			buf[i] = Sanitize(x)
		}
	}
}

// FlushDenormals converts tiny denormal-like values to exact zero.
// This can reduce denormal-related CPU slowdowns in hot DSP loops.
func FlushDenormals(x float64) float64 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0
	}

	return x
}

// DBToLinear converts dB to linear amplitude (20*log10 convention).
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDB converts linear amplitude to dB (20*log10 convention).
// Returns -Inf for zero and NaN for negative values.
func LinearToDB(linear float64) float64 {
	if linear < 0 {
		return math.NaN()
	}

	if linear == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}

// TimeConstantCoeff returns the one-pole smoothing coefficient
// exp(-1/(sampleRate*seconds)) used by envelope followers. A non-positive
// time constant yields 0, i.e. an instantaneous follower.
func TimeConstantCoeff(seconds, sampleRate float64) float64 {
	if seconds <= 0 || sampleRate <= 0 {
		return 0
	}

	return math.Exp(-1 / (sampleRate * seconds))
}
