// Package testutil holds deterministic signal generators and assertions
// shared by the package tests.
package testutil

import (
	"math"
	"math/rand"
	"testing"

	"github.com/cwbudde/algo-vocalmix/dsp/buffer"
)

// DeterministicSine generates a sine wave starting at phase 0.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)

	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out
}

// DeterministicNoise generates uniform white noise with a fixed seed.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)

	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}

	return out
}

// Silence returns n zero samples.
func Silence(n int) []float64 {
	return make([]float64, n)
}

// MonoBuffer wraps samples in a single-channel buffer.Audio and fails t on
// invalid input.
func MonoBuffer(t testing.TB, sampleRate int, samples []float64) *buffer.Audio {
	t.Helper()

	a, err := buffer.New(sampleRate, [][]float64{samples})
	if err != nil {
		t.Fatalf("buffer.New: %v", err)
	}

	return a
}

// StereoBuffer wraps two channels in a buffer.Audio and fails t on invalid
// input.
func StereoBuffer(t testing.TB, sampleRate int, left, right []float64) *buffer.Audio {
	t.Helper()

	a, err := buffer.New(sampleRate, [][]float64{left, right})
	if err != nil {
		t.Fatalf("buffer.New: %v", err)
	}

	return a
}
