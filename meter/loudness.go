package meter

import (
	"math"

	"github.com/cwbudde/algo-vocalmix/dsp/buffer"
	"github.com/cwbudde/algo-vocalmix/dsp/filter/biquad"
	"github.com/cwbudde/algo-vocalmix/dsp/filter/design"
)

// K-weighting and gating constants from ITU-R BS.1770.
const (
	kShelfHz    = 1500.0
	kShelfDB    = 4.0
	kHighpassHz = 38.0

	gateBlockSeconds = 0.4
	gateStepSeconds  = 0.1
	absoluteGateLUFS = -70.0
	relativeGateLU   = -10.0
)

// Loudness summarizes the programme loudness of a buffer.
type Loudness struct {
	// IntegratedLUFS is the gated loudness of the whole buffer. It is -Inf
	// for buffers shorter than one 400 ms block or below the absolute gate.
	IntegratedLUFS float64
	// MaxMomentaryLUFS is the loudest 400 ms block.
	MaxMomentaryLUFS float64
	// PeakDB is the sample peak over all channels in dBFS.
	PeakDB float64
}

// MeasureLoudness computes BS.1770 loudness of buf. Channels are weighted
// equally.
func MeasureLoudness(buf *buffer.Audio) Loudness {
	sr := float64(buf.SampleRate())
	frames := buf.Frames()

	q := 1 / math.Sqrt2
	shelf := design.HighShelf(kShelfHz, kShelfDB, q, sr)
	highpass := design.Highpass(kHighpassHz, q, sr)

	// energy[i] is the K-weighted energy of frames [0, i) summed over
	// channels.
	energy := make([]float64, frames+1)
	peak := 0.0

	for c := range buf.Channels() {
		s1, s2 := biquad.NewSection(shelf), biquad.NewSection(highpass)
		acc := 0.0

		for i, x := range buf.Channel(c) {
			peak = max(peak, math.Abs(x))
			y := s2.ProcessSample(s1.ProcessSample(x))
			acc += y * y
			energy[i+1] += acc
		}
	}

	out := Loudness{
		IntegratedLUFS:   math.Inf(-1),
		MaxMomentaryLUFS: math.Inf(-1),
		PeakDB:           20 * math.Log10(peak),
	}

	blockLen := int(math.Round(gateBlockSeconds * sr))
	step := max(int(math.Round(gateStepSeconds*sr)), 1)

	var blocks []float64

	for start := 0; blockLen > 0 && start+blockLen <= frames; start += step {
		ms := (energy[start+blockLen] - energy[start]) / float64(blockLen)
		blocks = append(blocks, ms)
		out.MaxMomentaryLUFS = max(out.MaxMomentaryLUFS, toLUFS(ms))
	}

	out.IntegratedLUFS = gatedLoudness(blocks)

	return out
}

func gatedLoudness(blocks []float64) float64 {
	var sum float64

	n := 0

	for _, ms := range blocks {
		if toLUFS(ms) > absoluteGateLUFS {
			sum += ms
			n++
		}
	}

	if n == 0 {
		return math.Inf(-1)
	}

	gate := toLUFS(sum/float64(n)) + relativeGateLU
	sum, n = 0, 0

	for _, ms := range blocks {
		if l := toLUFS(ms); l > absoluteGateLUFS && l > gate {
			sum += ms
			n++
		}
	}

	if n == 0 {
		return math.Inf(-1)
	}

	return toLUFS(sum / float64(n))
}

func toLUFS(meanSquare float64) float64 {
	if meanSquare <= 0 {
		return math.Inf(-1)
	}

	return -0.691 + 10*math.Log10(meanSquare)
}
