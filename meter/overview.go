package meter

import (
	"math"

	"github.com/cwbudde/algo-vocalmix/dsp/buffer"
)

// DefaultOverviewPoints is the resolution used when Overview is asked for
// a non-positive number of points.
const DefaultOverviewPoints = 1000

// Overview reduces channel 0 of buf to points values, each the mean
// absolute amplitude of one equal segment. Trailing frames that do not
// fill a segment are ignored. Buffers shorter than points yield one value
// per frame.
func Overview(buf *buffer.Audio, points int) []float64 {
	if buf == nil {
		return nil
	}

	if points <= 0 {
		points = DefaultOverviewPoints
	}

	samples := buf.Channel(0)
	points = min(points, len(samples))
	segment := len(samples) / points

	out := make([]float64, points)
	for i := range out {
		sum := 0.0
		for _, x := range samples[i*segment : (i+1)*segment] {
			sum += math.Abs(x)
		}

		out[i] = sum / float64(segment)
	}

	return out
}
