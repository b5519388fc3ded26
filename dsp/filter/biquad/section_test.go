package biquad

import (
	"math"
	"testing"
)

const eps = 1e-12

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestIdentityPassthrough(t *testing.T) {
	s := NewSection(Identity())
	input := []float64{1, 0, -1, 0.5, 0.25}
	for i, x := range input {
		if y := s.ProcessSample(x); !almostEqual(y, x, eps) {
			t.Errorf("sample %d: got %v, want %v", i, y, x)
		}
	}
}

func TestProcessSample_DFIIT(t *testing.T) {
	// B0=0.25, B1=0.5, B2=0.25, A1=-0.2, A2=0.04 driven by an impulse:
	// n=0: y=0.25, d0=0.55, d1=0.24
	// n=1: y=0.55, d0=0.35, d1=-0.022
	s := NewSection(Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04})

	want := []float64{0.25, 0.55}
	got := []float64{s.ProcessSample(1), s.ProcessSample(0)}
	for i := range want {
		if !almostEqual(got[i], want[i], eps) {
			t.Fatalf("y[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestProcessBlockMatchesSample(t *testing.T) {
	c := Coefficients{B0: 0.2, B1: 0.4, B2: 0.2, A1: -0.5, A2: 0.1}
	a := NewSection(c)
	b := NewSection(c)

	in := []float64{0.1, -0.3, 0.7, 0.2, -0.9, 0.4, 0, 0.05}
	want := make([]float64, len(in))
	for i, x := range in {
		want[i] = a.ProcessSample(x)
	}

	got := append([]float64(nil), in...)
	b.ProcessBlock(got[:3])
	b.ProcessBlock(got[3:])

	for i := range got {
		if !almostEqual(got[i], want[i], eps) {
			t.Fatalf("sample %d: block = %v, sample = %v", i, got[i], want[i])
		}
	}
}

func TestProcessBlockRecoversFromNaN(t *testing.T) {
	s := NewSection(Coefficients{B0: 0.5, B1: 0.5, A1: -0.5})
	s.ProcessBlock([]float64{math.NaN()})

	if st := s.State(); st != [2]float64{0, 0} {
		t.Fatalf("state = %v, want reset after NaN", st)
	}

	buf := []float64{1}
	s.ProcessBlock(buf)
	if math.IsNaN(buf[0]) {
		t.Fatal("NaN leaked into the following block")
	}
}

func TestSetCoefficientsKeepsState(t *testing.T) {
	s := NewSection(Coefficients{B0: 1, B1: 1})
	s.ProcessSample(1)
	before := s.State()

	s.SetCoefficients(Coefficients{B0: 0.5})
	if s.State() != before {
		t.Fatal("SetCoefficients should preserve delay-line state")
	}
}

func TestResponseDC(t *testing.T) {
	c := Coefficients{B0: 0.5, B1: 0.5}
	if db := c.MagnitudeDB(0, 48000); !almostEqual(db, 0, 1e-9) {
		t.Fatalf("MagnitudeDB(0) = %v, want 0", db)
	}
}
