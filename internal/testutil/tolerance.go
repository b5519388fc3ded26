package testutil

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-vocalmix/dsp/buffer"
)

// RequireSliceNearlyEqual fails t if got and want differ in length or if
// any element pair exceeds eps.
func RequireSliceNearlyEqual(t testing.TB, got, want []float64, eps float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}

	for i := range got {
		if diff := math.Abs(got[i] - want[i]); diff > eps {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireAudioNearlyEqual compares two buffers channel by channel.
func RequireAudioNearlyEqual(t testing.TB, got, want *buffer.Audio, eps float64) {
	t.Helper()

	if got.SampleRate() != want.SampleRate() {
		t.Fatalf("sample rate: got %d, want %d", got.SampleRate(), want.SampleRate())
	}

	if got.Channels() != want.Channels() || got.Frames() != want.Frames() {
		t.Fatalf("shape: got %dx%d, want %dx%d", got.Channels(), got.Frames(), want.Channels(), want.Frames())
	}

	for ch := range got.Channels() {
		for i := range got.Frames() {
			if diff := math.Abs(got.At(ch, i) - want.At(ch, i)); diff > eps {
				t.Fatalf("channel %d frame %d: got %v, want %v (diff %v > eps %v)",
					ch, i, got.At(ch, i), want.At(ch, i), diff, eps)
			}
		}
	}
}

// RequireFinite fails t if any element is NaN or Inf.
func RequireFinite(t testing.TB, data []float64) {
	t.Helper()

	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}
