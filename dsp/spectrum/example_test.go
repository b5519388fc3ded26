package spectrum_test

import (
	"fmt"

	"github.com/cwbudde/algo-vocalmix/dsp/spectrum"
)

func ExampleMagnitude() {
	bins := []complex128{1 + 0i, 0 + 1i, -1 + 0i}
	mag := spectrum.Magnitude(bins)
	fmt.Printf("%.1f %.1f %.1f\n", mag[0], mag[1], mag[2])
	// Output:
	// 1.0 1.0 1.0
}

func ExampleSmoothTime() {
	frame := []float64{0, 1}
	spectrum.SmoothTime(frame, []float64{1, 1}, 0.8)
	fmt.Printf("%.1f %.1f\n", frame[0], frame[1])
	// Output:
	// 0.2 1.0
}
