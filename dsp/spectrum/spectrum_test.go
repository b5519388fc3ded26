package spectrum

import (
	"math"
	"testing"
)

func TestMagnitude(t *testing.T) {
	bins := []complex128{3 + 4i, -1 - 1i, 0}

	mag := Magnitude(bins)
	if len(mag) != len(bins) {
		t.Fatalf("Magnitude length = %d, want %d", len(mag), len(bins))
	}

	if math.Abs(mag[0]-5) > 1e-12 || math.Abs(mag[1]-math.Sqrt2) > 1e-12 || mag[2] != 0 {
		t.Fatalf("Magnitude = %v", mag)
	}

	if Magnitude(nil) != nil {
		t.Fatal("empty input should yield nil")
	}
}

func TestMagnitudeIntoShortDestination(t *testing.T) {
	dst := make([]float64, 2)
	MagnitudeInto(dst, []complex128{0 + 2i, 6 + 8i, 100})

	if dst[0] != 2 || math.Abs(dst[1]-10) > 1e-12 {
		t.Fatalf("MagnitudeInto = %v", dst)
	}
}

func TestSmoothTime(t *testing.T) {
	tests := []struct {
		name string
		tau  float64
		want []float64
	}{
		{"replace", 0, []float64{4, 8}},
		{"hold", 1, []float64{2, 0}},
		{"blend", 0.75, []float64{2.5, 2}},
		{"clamped", 2, []float64{2, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := []float64{2, 0}
			SmoothTime(dst, []float64{4, 8}, tt.tau)

			for i := range dst {
				if math.Abs(dst[i]-tt.want[i]) > 1e-12 {
					t.Fatalf("dst = %v, want %v", dst, tt.want)
				}
			}
		})
	}
}

func TestToDecibels(t *testing.T) {
	src := []float64{1, 0.1, 0, 1e-9, math.NaN()}
	dst := make([]float64, len(src))

	ToDecibels(dst, src, -100)

	want := []float64{0, -20, -100, -100, -100}
	for i := range want {
		if math.Abs(dst[i]-want[i]) > 1e-9 {
			t.Fatalf("dst[%d] = %v, want %v", i, dst[i], want[i])
		}
	}
}
