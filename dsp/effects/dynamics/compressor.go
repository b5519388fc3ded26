package dynamics

import (
	"math"

	"github.com/cwbudde/algo-vocalmix/dsp/core"
)

const (
	defaultCompressorThresholdDB = -24.0
	defaultCompressorRatio       = 4.0
	defaultCompressorKneeDB      = 6.0
	defaultCompressorAttack      = 0.003
	defaultCompressorRelease     = 0.25

	// Parameter validation ranges. Times are in seconds.
	MinThresholdDB = -96.0
	MaxThresholdDB = 0.0
	MinRatio       = 1.0
	MaxRatio       = 100.0
	MinKneeDB      = 0.0
	MaxKneeDB      = 40.0
	MaxTimeSeconds = 5.0
)

// CompressorMetrics holds metering information for visualization.
type CompressorMetrics struct {
	InputPeak     float64 // Maximum input level since last reset
	OutputPeak    float64 // Maximum output level since last reset
	GainReduction float64 // Minimum linear gain since last reset
}

// Compressor is a feed-forward soft-knee compressor.
//
// The detector is a peak follower on the input; the gain computer works in
// the log2 domain so the knee is a smooth quadratic around the threshold.
// Zero attack or release makes the follower instantaneous in that
// direction.
type Compressor struct {
	thresholdDB    float64
	ratio          float64
	kneeDB         float64
	attackSeconds  float64
	releaseSeconds float64
	makeupGainDB   float64

	sampleRate float64

	knee     softKnee
	env      follower
	makeup   float64
	lastGain float64

	metrics CompressorMetrics
}

// NewCompressor creates a compressor with defaults of -24 dB threshold,
// 4:1 ratio, 6 dB knee, 3 ms attack and 250 ms release and no makeup gain.
func NewCompressor(sampleRate float64) (*Compressor, error) {
	if err := validateSampleRate("compressor", sampleRate); err != nil {
		return nil, err
	}

	c := &Compressor{
		thresholdDB:    defaultCompressorThresholdDB,
		ratio:          defaultCompressorRatio,
		kneeDB:         defaultCompressorKneeDB,
		attackSeconds:  defaultCompressorAttack,
		releaseSeconds: defaultCompressorRelease,
		sampleRate:     sampleRate,
	}

	c.updateCoefficients()
	c.Reset()

	return c, nil
}

// SetThreshold sets the threshold in dB, within [-96, 0].
func (c *Compressor) SetThreshold(dB float64) error {
	if err := checkRange("compressor", "threshold", dB, MinThresholdDB, MaxThresholdDB); err != nil {
		return err
	}

	c.thresholdDB = dB
	c.updateCoefficients()

	return nil
}

// SetRatio sets the compression ratio in [1, 100].
func (c *Compressor) SetRatio(ratio float64) error {
	if err := checkRange("compressor", "ratio", ratio, MinRatio, MaxRatio); err != nil {
		return err
	}

	c.ratio = ratio
	c.updateCoefficients()

	return nil
}

// SetKnee sets the soft-knee width in dB; 0 is a hard knee.
func (c *Compressor) SetKnee(kneeDB float64) error {
	if err := checkRange("compressor", "knee", kneeDB, MinKneeDB, MaxKneeDB); err != nil {
		return err
	}

	c.kneeDB = kneeDB
	c.updateCoefficients()

	return nil
}

// SetAttack sets the attack time constant in seconds.
func (c *Compressor) SetAttack(seconds float64) error {
	if err := checkRange("compressor", "attack", seconds, 0, MaxTimeSeconds); err != nil {
		return err
	}

	c.attackSeconds = seconds
	c.updateCoefficients()

	return nil
}

// SetRelease sets the release time constant in seconds.
func (c *Compressor) SetRelease(seconds float64) error {
	if err := checkRange("compressor", "release", seconds, 0, MaxTimeSeconds); err != nil {
		return err
	}

	c.releaseSeconds = seconds
	c.updateCoefficients()

	return nil
}

// SetMakeupGain sets a fixed output gain in dB.
func (c *Compressor) SetMakeupGain(dB float64) error {
	if err := checkRange("compressor", "makeup gain", dB, -24, 24); err != nil {
		return err
	}

	c.makeupGainDB = dB
	c.updateCoefficients()

	return nil
}

// Threshold returns the threshold in dB.
func (c *Compressor) Threshold() float64 { return c.thresholdDB }

// Ratio returns the compression ratio.
func (c *Compressor) Ratio() float64 { return c.ratio }

// Knee returns the knee width in dB.
func (c *Compressor) Knee() float64 { return c.kneeDB }

// Attack returns the attack time in seconds.
func (c *Compressor) Attack() float64 { return c.attackSeconds }

// Release returns the release time in seconds.
func (c *Compressor) Release() float64 { return c.releaseSeconds }

// MakeupGain returns the makeup gain in dB.
func (c *Compressor) MakeupGain() float64 { return c.makeupGainDB }

// SampleRate returns the sample rate in Hz.
func (c *Compressor) SampleRate() float64 { return c.sampleRate }

// ProcessSample processes one sample.
func (c *Compressor) ProcessSample(input float64) float64 {
	input = core.Sanitize(input)

	gain := c.knee.gain(c.env.track(input))
	output := input * gain * c.makeup

	c.lastGain = gain
	c.updateMetrics(math.Abs(input), math.Abs(output), gain)

	return output
}

// ProcessInPlace applies compression to buf in place.
func (c *Compressor) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = c.ProcessSample(buf[i])
	}
}

// StaticGain returns the steady-state linear gain for a constant input
// magnitude, excluding makeup gain.
func (c *Compressor) StaticGain(inputMagnitude float64) float64 {
	return c.knee.gain(math.Abs(inputMagnitude))
}

// GainReductionDB returns the reduction applied to the most recent sample
// in dB. It is zero or negative.
func (c *Compressor) GainReductionDB() float64 {
	if c.lastGain >= 1 {
		return 0
	}

	return 20 * math.Log10(c.lastGain)
}

// Reset clears the envelope follower and metrics.
func (c *Compressor) Reset() {
	c.env.reset()
	c.lastGain = 1
	c.ResetMetrics()
}

// GetMetrics returns current metering values.
func (c *Compressor) GetMetrics() CompressorMetrics {
	return c.metrics
}

// ResetMetrics clears metering state.
func (c *Compressor) ResetMetrics() {
	c.metrics = CompressorMetrics{GainReduction: 1}
}

func (c *Compressor) updateCoefficients() {
	c.knee.configure(c.thresholdDB, c.ratio, c.kneeDB)
	c.env.configure(c.attackSeconds, c.releaseSeconds, c.sampleRate)
	c.makeup = core.DBToLinear(c.makeupGainDB)
}

func (c *Compressor) updateMetrics(inputLevel, outputLevel, gain float64) {
	c.metrics.InputPeak = max(c.metrics.InputPeak, inputLevel)
	c.metrics.OutputPeak = max(c.metrics.OutputPeak, outputLevel)
	c.metrics.GainReduction = min(c.metrics.GainReduction, gain)
}
