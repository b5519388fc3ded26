package spectrum

import (
	"math"
	"sync"

	"github.com/cwbudde/algo-vecmath"
)

// scratchBuf holds pooled scratch memory for complex-to-real unpacking.
type scratchBuf struct {
	data []float64
}

var scratchPool = sync.Pool{
	New: func() any { return &scratchBuf{} },
}

func getScratch(n int) (re, im []float64, buf *scratchBuf) {
	buf = scratchPool.Get().(*scratchBuf)

	need := 2 * n
	if cap(buf.data) < need {
		buf.data = make([]float64, need)
	} else {
		buf.data = buf.data[:need]
	}

	return buf.data[:n], buf.data[n:need], buf
}

func putScratch(buf *scratchBuf) {
	scratchPool.Put(buf)
}

// Magnitude returns |X[k]| for each complex spectrum bin. Scratch buffers
// are pooled, so in steady state this allocates only the output slice.
func Magnitude(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	MagnitudeInto(out, in)

	return out
}

// MagnitudeInto writes |X[k]| for the first len(dst) bins of in into dst.
func MagnitudeInto(dst []float64, in []complex128) {
	n := min(len(dst), len(in))
	if n == 0 {
		return
	}

	re, im, buf := getScratch(n)
	for i, c := range in[:n] {
		re[i] = real(c)
		im[i] = imag(c)
	}

	vecmath.Magnitude(dst[:n], re, im)
	putScratch(buf)
}

// SmoothTime blends a new frame into a running one:
// dst = tau*dst + (1-tau)*cur. tau is clamped to [0, 1]; 0 replaces dst.
func SmoothTime(dst, cur []float64, tau float64) {
	n := min(len(dst), len(cur))
	if n == 0 {
		return
	}

	tau = min(max(tau, 0), 1)

	scaled, _, buf := getScratch(n)
	vecmath.ScaleBlock(scaled, cur[:n], 1-tau)
	vecmath.ScaleBlock(dst[:n], dst[:n], tau)
	vecmath.AddBlockInPlace(dst[:n], scaled)
	putScratch(buf)
}

// ToDecibels converts linear magnitudes to dB, flooring at floorDB.
// dst and src may alias.
func ToDecibels(dst, src []float64, floorDB float64) {
	n := min(len(dst), len(src))
	floor := math.Pow(10, floorDB/20)

	for i := range n {
		v := src[i]
		if !(v > floor) {
			dst[i] = floorDB
			continue
		}

		dst[i] = 20 * math.Log10(v)
	}
}
