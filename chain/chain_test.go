package chain

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/cwbudde/algo-vocalmix/internal/testutil"
	"github.com/cwbudde/algo-vocalmix/preset"
)

const testSampleRate = 44100

func mustBuild(t *testing.T, id string, opts ...Option) *Chain {
	t.Helper()

	c, err := Build(preset.Default().Get(id), testSampleRate, opts...)
	if err != nil {
		t.Fatalf("Build(%s): %v", id, err)
	}

	return c
}

func TestBuildOrder(t *testing.T) {
	tests := []struct {
		name     string
		preset   string
		topology Topology
		want     []Kind
	}{
		{
			name:     "rap conditional omits delay",
			preset:   preset.Rap,
			topology: TopologyConditional,
			want: []Kind{
				KindHighPass, KindDeEsser, KindCompressor, KindLowShelf, KindMidPeak,
				KindHighShelf, KindSaturator, KindReverb, KindLimiter,
			},
		},
		{
			name:     "podcast conditional omits reverb and delay",
			preset:   preset.Podcast,
			topology: TopologyConditional,
			want: []Kind{
				KindHighPass, KindDeEsser, KindCompressor, KindLowShelf, KindMidPeak,
				KindHighShelf, KindSaturator, KindLimiter,
			},
		},
		{
			name:     "pop conditional keeps every effect",
			preset:   preset.Pop,
			topology: TopologyConditional,
			want: []Kind{
				KindHighPass, KindDeEsser, KindCompressor, KindLowShelf, KindMidPeak,
				KindHighShelf, KindSaturator, KindReverb, KindDelay, KindLimiter,
			},
		},
		{
			name:     "podcast bypass keeps every node",
			preset:   preset.Podcast,
			topology: TopologyBypass,
			want: []Kind{
				KindHighPass, KindDeEsser, KindCompressor, KindLowShelf, KindMidPeak,
				KindHighShelf, KindSaturator, KindReverb, KindDelay, KindLimiter,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustBuild(t, tt.preset, WithTopology(tt.topology))

			if got := c.Kinds(); !slices.Equal(got, tt.want) {
				t.Fatalf("Kinds() = %v, want %v", got, tt.want)
			}

			if c.Lanes() != 1 {
				t.Fatalf("Lanes() = %d, want 1", c.Lanes())
			}
		})
	}
}

func TestBuildUsesPresetValues(t *testing.T) {
	c := mustBuild(t, preset.Podcast)

	p, ok := c.Params(KindCompressor)
	if !ok {
		t.Fatal("compressor missing")
	}

	comp := p.(CompressorParams)
	if comp.ThresholdDB != -18 || comp.Ratio != 5 || comp.KneeDB != 12 {
		t.Fatalf("compressor = %+v", comp)
	}

	p, _ = c.Params(KindHighPass)
	if hp := p.(HighPassParams); hp.FrequencyHz != 100 || hp.Q != 1 {
		t.Fatalf("highpass = %+v", hp)
	}

	p, _ = c.Params(KindLimiter)
	if lim := p.(LimiterParams); lim.CeilingDB != -1 {
		t.Fatalf("limiter = %+v", lim)
	}
}

func TestResponseDBFollowsEQ(t *testing.T) {
	c := mustBuild(t, preset.Podcast)

	if got := c.ResponseDB(20); got > -20 {
		t.Fatalf("ResponseDB(20) = %.2f dB, want high-pass cut below -20", got)
	}

	withMid := c.ResponseDB(preset.DefaultMidFreqHz)

	if err := c.SetBypass(KindMidPeak, true); err != nil {
		t.Fatalf("SetBypass: %v", err)
	}

	// A peaking band has exactly its gain at the center frequency.
	if diff := withMid - c.ResponseDB(preset.DefaultMidFreqHz); math.Abs(diff-4) > 1e-9 {
		t.Fatalf("mid band contribution = %.6f dB, want 4", diff)
	}

	flat := mustBuild(t, preset.Podcast)
	for _, b := range []Band{BandLow, BandMid, BandHigh} {
		if err := flat.SetEQGain(b, 0); err != nil {
			t.Fatalf("SetEQGain(%v): %v", b, err)
		}
	}

	for _, f := range []float64{1000, 5000, 12000} {
		if got := flat.ResponseDB(f); math.Abs(got) > 0.1 {
			t.Fatalf("flat ResponseDB(%g) = %.3f dB, want ~0", f, got)
		}
	}
}

func TestBuildRejectsInvalidParameters(t *testing.T) {
	base := preset.Default().Get(preset.Rap)

	tests := []struct {
		name       string
		cfg        preset.Config
		sampleRate int
		kind       Kind
		field      string
	}{
		{
			name:       "ratio below one",
			cfg:        base.WithCompressor(preset.Compressor{ThresholdDB: -20, KneeDB: 6, Ratio: 0.5, AttackSeconds: 0.01, ReleaseSeconds: 0.1}),
			sampleRate: testSampleRate,
			kind:       KindCompressor,
			field:      "ratio",
		},
		{
			name:       "negative attack",
			cfg:        base.WithCompressor(preset.Compressor{ThresholdDB: -20, KneeDB: 6, Ratio: 4, AttackSeconds: -0.01, ReleaseSeconds: 0.1}),
			sampleRate: testSampleRate,
			kind:       KindCompressor,
			field:      "attack",
		},
		{
			name:       "effect amount above one",
			cfg:        base.WithEffects(preset.Effects{Reverb: 1.5}),
			sampleRate: testSampleRate,
			kind:       KindReverb,
			field:      "amount",
		},
		{
			name:       "zero mid q",
			cfg:        base.WithEQ(preset.EQ{LowFreqHz: 200, MidFreqHz: 1000, HighFreqHz: 3000}),
			sampleRate: testSampleRate,
			kind:       KindMidPeak,
			field:      "q",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Build(tt.cfg, tt.sampleRate)
			if c != nil {
				t.Fatal("Build returned a chain on error")
			}

			var perr *InvalidParameterError
			if !errors.As(err, &perr) {
				t.Fatalf("error = %v, want *InvalidParameterError", err)
			}

			if perr.Kind != tt.kind || perr.Field != tt.field {
				t.Fatalf("error = %v, want %s %s", perr, tt.kind, tt.field)
			}

			if !errors.Is(err, ErrInvalidParameter) {
				t.Fatal("error does not wrap ErrInvalidParameter")
			}
		})
	}
}

func TestBuildEveryPresetAtLowRates(t *testing.T) {
	catalog := preset.Default()

	for _, sr := range []int{8000, 11025, 16000, 22050} {
		for _, e := range catalog.List() {
			c, err := Build(catalog.Get(e.ID), sr)
			if err != nil {
				t.Errorf("Build(%s, %d) error = %v", e.ID, sr, err)
				continue
			}

			limit := MaxCornerFraction * float64(sr)

			p, _ := c.Params(KindDeEsser)
			if hz := p.(DeEsserParams).FrequencyHz; hz > limit {
				t.Errorf("%s at %d Hz: de-esser corner %g above %g", e.ID, sr, hz, limit)
			}

			for _, k := range []Kind{KindLowShelf, KindMidPeak, KindHighShelf} {
				p, _ := c.Params(k)
				if hz := p.(EQBandParams).FrequencyHz; hz > limit {
					t.Errorf("%s at %d Hz: %s corner %g above %g", e.ID, sr, k, hz, limit)
				}
			}
		}
	}
}

func TestBuildKeepsCornersBelowLimit(t *testing.T) {
	c := mustBuild(t, preset.Podcast)

	p, _ := c.Params(KindDeEsser)
	if hz := p.(DeEsserParams).FrequencyHz; hz != 8000 {
		t.Fatalf("de-esser corner = %g, want preset value 8000", hz)
	}
}

func TestUpdateChecksFrequencyStrictly(t *testing.T) {
	c, err := Build(preset.Default().Get(preset.Rap), 8000)
	if err != nil {
		t.Fatal(err)
	}

	p, _ := c.Params(KindDeEsser)
	de := p.(DeEsserParams)
	de.FrequencyHz = 7000

	if err := c.Update(de); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("Update(7000 Hz at 8 kHz) = %v, want ErrInvalidParameter", err)
	}
}

func TestBuildRejectsSampleRate(t *testing.T) {
	_, err := Build(preset.Default().Get(preset.Rap), 0)
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("error = %v, want ErrInvalidParameter", err)
	}
}

func TestUpdateAbsentNode(t *testing.T) {
	c := mustBuild(t, preset.Rap)

	err := c.SetEffectAmount(KindDelay, 0.5)
	if !errors.Is(err, ErrNodeAbsent) {
		t.Fatalf("error = %v, want ErrNodeAbsent", err)
	}

	if err := c.SetBypass(KindDelay, true); !errors.Is(err, ErrNodeAbsent) {
		t.Fatalf("SetBypass error = %v, want ErrNodeAbsent", err)
	}
}

func TestUpdateInvalidLeavesParams(t *testing.T) {
	c := mustBuild(t, preset.Rap)
	before, _ := c.Params(KindCompressor)

	err := c.Update(CompressorParams{ThresholdDB: -20, KneeDB: 6, Ratio: 0, AttackSeconds: 0.01, ReleaseSeconds: 0.1})
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("error = %v, want ErrInvalidParameter", err)
	}

	after, _ := c.Params(KindCompressor)
	if before != after {
		t.Fatalf("params changed: %+v -> %+v", before, after)
	}
}

func TestSetEQGain(t *testing.T) {
	c := mustBuild(t, preset.Pop)

	if err := c.SetEQGain(BandMid, -6); err != nil {
		t.Fatal(err)
	}

	p, _ := c.Params(KindMidPeak)
	eq := p.(EQBandParams)

	if eq.GainDB != -6 || eq.FrequencyHz != preset.DefaultMidFreqHz || eq.Q != preset.DefaultMidQ {
		t.Fatalf("mid band = %+v", eq)
	}

	if err := c.SetEQGain(BandHigh, 13); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("error = %v, want ErrInvalidParameter", err)
	}
}

func TestSetEffectAmountRejectsNonEffect(t *testing.T) {
	c := mustBuild(t, preset.Pop)

	if err := c.SetEffectAmount(KindCompressor, 0.5); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("error = %v, want ErrInvalidParameter", err)
	}
}

func TestBypassTopologyActivation(t *testing.T) {
	c := mustBuild(t, preset.Rap, WithTopology(TopologyBypass))

	active := func(kind Kind) bool {
		for _, n := range c.Nodes() {
			if n.Params.Kind() == kind {
				return n.Active()
			}
		}

		t.Fatalf("node %s missing", kind)

		return false
	}

	if active(KindDelay) {
		t.Fatal("zero-amount delay is active")
	}

	if err := c.SetEffectAmount(KindDelay, 0.5); err != nil {
		t.Fatal(err)
	}

	if !active(KindDelay) {
		t.Fatal("delay inactive after raising amount")
	}

	if err := c.SetBypass(KindDelay, true); err != nil {
		t.Fatal(err)
	}

	// Updates land on a bypassed node and show on re-enable.
	if err := c.SetEffectAmount(KindDelay, 0.8); err != nil {
		t.Fatal(err)
	}

	if active(KindDelay) || !c.Bypassed(KindDelay) {
		t.Fatal("bypassed delay is active")
	}

	if err := c.SetBypass(KindDelay, false); err != nil {
		t.Fatal(err)
	}

	p, _ := c.Params(KindDelay)
	if !active(KindDelay) || p.(DelayParams).Amount != 0.8 {
		t.Fatalf("re-enabled delay = %+v", p)
	}
}

func TestBypassEverythingIsIdentity(t *testing.T) {
	c := mustBuild(t, preset.Rock, WithTopology(TopologyBypass))
	for _, kind := range c.Kinds() {
		if err := c.SetBypass(kind, true); err != nil {
			t.Fatal(err)
		}
	}

	in := testutil.DeterministicNoise(3, 0.5, 4096)
	out := slices.Clone(in)
	c.Process(0, out)

	testutil.RequireSliceNearlyEqual(t, out, in, 0)
}

func TestSilenceStaysSilent(t *testing.T) {
	for _, id := range []string{preset.Podcast, preset.Rap, preset.Pop} {
		t.Run(id, func(t *testing.T) {
			c := mustBuild(t, id)
			block := testutil.Silence(2 * testSampleRate)

			c.Process(0, block)

			for i, v := range block {
				if math.Abs(v) > 1e-3 {
					t.Fatalf("sample %d = %g", i, v)
				}
			}
		})
	}
}

func TestLanesAreIndependent(t *testing.T) {
	signal := testutil.DeterministicSine(440, testSampleRate, 0.5, 8192)

	a := mustBuild(t, preset.Pop)
	want := slices.Clone(signal)
	a.Process(0, want)

	b := mustBuild(t, preset.Pop)
	noise := testutil.DeterministicNoise(1, 0.9, 8192)
	b.Process(1, noise)

	got := slices.Clone(signal)
	b.Process(0, got)

	if b.Lanes() != 2 {
		t.Fatalf("Lanes() = %d, want 2", b.Lanes())
	}

	testutil.RequireSliceNearlyEqual(t, got, want, 0)
}

func TestResetAndCloneRestartState(t *testing.T) {
	signal := testutil.DeterministicNoise(7, 0.4, 4096)

	c := mustBuild(t, preset.RnB)
	first := slices.Clone(signal)
	c.Process(0, first)

	c.Reset()

	second := slices.Clone(signal)
	c.Process(0, second)
	testutil.RequireSliceNearlyEqual(t, second, first, 0)

	clone := c.Clone()
	third := slices.Clone(signal)
	clone.Process(0, third)
	testutil.RequireSliceNearlyEqual(t, third, first, 0)
}

func TestProcessSanitizesInput(t *testing.T) {
	c := mustBuild(t, preset.Pop)

	block := testutil.DeterministicSine(200, testSampleRate, 0.5, 1024)
	block[10] = math.NaN()
	block[20] = math.Inf(1)
	block[30] = math.Inf(-1)

	c.Process(0, block)
	testutil.RequireFinite(t, block)
}

func TestGainReduction(t *testing.T) {
	c := mustBuild(t, preset.Rap, WithTopology(TopologyBypass))

	loud := testutil.DeterministicSine(1000, testSampleRate, 0.9, 4096)
	c.Process(0, loud)

	if gr := c.GainReductionDB(); gr >= 0 {
		t.Fatalf("GainReductionDB() = %g, want < 0", gr)
	}

	for _, kind := range []Kind{KindCompressor, KindLimiter} {
		if err := c.SetBypass(kind, true); err != nil {
			t.Fatal(err)
		}
	}

	if gr := c.GainReductionDB(); gr != 0 {
		t.Fatalf("GainReductionDB() with dynamics bypassed = %g, want 0", gr)
	}
}

func TestDelayMapping(t *testing.T) {
	tests := []struct {
		amount, time, feedback float64
	}{
		{0.1, 0.06, 0.06},
		{0.15, 0.06, 0.09},
		{0.5, 0.15, 0.3},
		{1, 0.3, 0.6},
	}

	for _, tt := range tests {
		if got := DelayTime(tt.amount); math.Abs(got-tt.time) > 1e-12 {
			t.Errorf("DelayTime(%g) = %g, want %g", tt.amount, got, tt.time)
		}

		if got := DelayFeedback(tt.amount); math.Abs(got-tt.feedback) > 1e-12 {
			t.Errorf("DelayFeedback(%g) = %g, want %g", tt.amount, got, tt.feedback)
		}
	}
}

func TestParseKind(t *testing.T) {
	for k := KindHighPass; k <= KindLimiter; k++ {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, ok)
		}
	}

	if _, ok := ParseKind("flanger"); ok {
		t.Error("ParseKind accepted an unknown name")
	}
}

func TestGain(t *testing.T) {
	g := NewGain()

	block := []float64{0.5, -0.5, 1}
	g.Process(block)
	testutil.RequireSliceNearlyEqual(t, block, []float64{0.5, -0.5, 1}, 0)

	if err := g.SetVolume(0.5); err != nil {
		t.Fatal(err)
	}

	g.Process(block)
	testutil.RequireSliceNearlyEqual(t, block, []float64{0.25, -0.25, 0.5}, 1e-15)

	for _, v := range []float64{-0.1, MaxVolume + 1, math.NaN()} {
		if err := g.SetVolume(v); !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("SetVolume(%g) error = %v", v, err)
		}
	}

	if g.Volume() != 0.5 {
		t.Fatalf("Volume() = %g after rejected updates", g.Volume())
	}

	if err := g.SetVolume(1 + 1e-12); err != nil {
		t.Fatal(err)
	}

	if g.Volume() != 1 {
		t.Fatalf("Volume() = %.15g, want volume near one snapped to unity", g.Volume())
	}

	block = []float64{0.3, -0.7}
	g.Process(block)
	testutil.RequireSliceNearlyEqual(t, block, []float64{0.3, -0.7}, 0)
}
