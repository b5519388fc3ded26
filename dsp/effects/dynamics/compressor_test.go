package dynamics

import (
	"errors"
	"math"
	"testing"
)

func sine(freq, amp, sampleRate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}

	return out
}

func peakAbs(buf []float64) float64 {
	var p float64
	for _, v := range buf {
		p = max(p, math.Abs(v))
	}

	return p
}

func TestNewCompressor(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate float64
		wantErr    bool
	}{
		{"valid 44100", 44100, false},
		{"valid 96000", 96000, false},
		{"invalid zero", 0, true},
		{"invalid negative", -1, true},
		{"invalid NaN", math.NaN(), true},
		{"invalid +Inf", math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCompressor(tt.sampleRate)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewCompressor() error = %v, wantErr %v", err, tt.wantErr)
			}

			if !tt.wantErr && c == nil {
				t.Fatal("NewCompressor() returned nil without error")
			}
		})
	}
}

func TestCompressorSetterValidation(t *testing.T) {
	c, err := NewCompressor(48000)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		set     func(float64) error
		value   float64
		wantErr bool
	}{
		{"threshold 0", c.SetThreshold, 0, false},
		{"threshold -96", c.SetThreshold, -96, false},
		{"threshold above 0", c.SetThreshold, 1, true},
		{"threshold below -96", c.SetThreshold, -97, true},
		{"ratio 1", c.SetRatio, 1, false},
		{"ratio below 1", c.SetRatio, 0.5, true},
		{"knee 0", c.SetKnee, 0, false},
		{"knee negative", c.SetKnee, -1, true},
		{"attack zero", c.SetAttack, 0, false},
		{"attack negative", c.SetAttack, -0.001, true},
		{"release negative", c.SetRelease, -1, true},
		{"release NaN", c.SetRelease, math.NaN(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.set(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}

			if err != nil && !errors.Is(err, ErrOutOfRange) {
				t.Fatalf("error %v does not wrap ErrOutOfRange", err)
			}
		})
	}
}

func TestCompressorBelowThresholdIsUnity(t *testing.T) {
	c, _ := NewCompressor(44100)
	_ = c.SetThreshold(-12)

	in := sine(440, 0.1, 44100, 4096)
	out := append([]float64(nil), in...)
	c.ProcessInPlace(out)

	for i := range in {
		if math.Abs(out[i]-in[i]) > 1e-12 {
			t.Fatalf("sample %d changed: %v -> %v", i, in[i], out[i])
		}
	}

	if got := c.GainReductionDB(); got != 0 {
		t.Fatalf("GainReductionDB = %v, want 0", got)
	}
}

func TestCompressorHardKneeStaticCurve(t *testing.T) {
	c, _ := NewCompressor(44100)
	_ = c.SetThreshold(-20)
	_ = c.SetRatio(4)
	_ = c.SetKnee(0)

	// 12 dB over the threshold at 4:1 leaves 3 dB over: 9 dB of reduction.
	in := math.Pow(10, -8.0/20)
	gotDB := 20 * math.Log10(c.StaticGain(in))

	if math.Abs(gotDB-(-9)) > 1e-6 {
		t.Fatalf("reduction = %v dB, want -9 dB", gotDB)
	}
}

func TestCompressorSoftKneeIsContinuous(t *testing.T) {
	c, _ := NewCompressor(44100)
	_ = c.SetThreshold(-20)
	_ = c.SetRatio(6)
	_ = c.SetKnee(10)

	prev := c.StaticGain(1e-4)
	for db := -80.0; db <= 0; db += 0.05 {
		g := c.StaticGain(math.Pow(10, db/20))
		if g > prev+1e-12 {
			t.Fatalf("gain rose from %v to %v at %v dB", prev, g, db)
		}

		if prev-g > 0.01 {
			t.Fatalf("gain jumped from %v to %v at %v dB", prev, g, db)
		}

		prev = g
	}
}

func TestCompressorRatioMonotonicity(t *testing.T) {
	in := sine(220, 0.8, 44100, 44100)

	prevPeak := math.Inf(1)

	for _, ratio := range []float64{1, 1.5, 2, 4, 8, 12, 20, 50} {
		c, _ := NewCompressor(44100)
		_ = c.SetThreshold(-20)
		_ = c.SetKnee(6)
		_ = c.SetAttack(0.003)
		_ = c.SetRelease(0.1)

		if err := c.SetRatio(ratio); err != nil {
			t.Fatal(err)
		}

		out := append([]float64(nil), in...)
		c.ProcessInPlace(out)

		// Skip the attack transient.
		peak := peakAbs(out[4410:])
		if peak > prevPeak+1e-12 {
			t.Fatalf("ratio %v: peak %v exceeds previous %v", ratio, peak, prevPeak)
		}

		prevPeak = peak
	}
}

func TestCompressorAttackTimeConstant(t *testing.T) {
	const sr = 1000.0

	c, _ := NewCompressor(sr)
	_ = c.SetAttack(0.01)

	// After one time constant a step reaches 1 - 1/e of its target.
	var level float64
	for range 10 {
		level = c.env.track(1)
	}

	if math.Abs(level-(1-math.Exp(-1))) > 1e-12 {
		t.Fatalf("envelope after one time constant = %v, want %v", level, 1-math.Exp(-1))
	}
}

func TestCompressorGainReductionMetering(t *testing.T) {
	c, _ := NewCompressor(44100)
	_ = c.SetThreshold(-30)
	_ = c.SetRatio(10)

	c.ProcessInPlace(sine(440, 0.9, 44100, 4410))

	if got := c.GainReductionDB(); got >= 0 {
		t.Fatalf("GainReductionDB = %v, want negative", got)
	}

	m := c.GetMetrics()
	if m.GainReduction >= 1 || m.InputPeak < 0.89 || m.OutputPeak >= m.InputPeak {
		t.Fatalf("unexpected metrics %+v", m)
	}

	c.Reset()

	if m := c.GetMetrics(); m.GainReduction != 1 || m.InputPeak != 0 {
		t.Fatalf("metrics after reset = %+v", m)
	}
}

func TestCompressorSanitizesInput(t *testing.T) {
	c, _ := NewCompressor(44100)

	for _, x := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if y := c.ProcessSample(x); math.IsNaN(y) || math.IsInf(y, 0) {
			t.Fatalf("ProcessSample(%v) = %v", x, y)
		}
	}

	if y := c.ProcessSample(0.01); math.IsNaN(y) {
		t.Fatal("state poisoned by non-finite input")
	}
}
