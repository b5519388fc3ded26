package dynamics

const (
	defaultLimiterCeilingDB = -1.0
	limiterRatio            = 20.0
	limiterKneeDB           = 1.0
	limiterAttack           = 0.001
	limiterRelease          = 0.1
)

// Limiter is the final safety stage: a 20:1 compressor with a 1 dB knee,
// 1 ms attack and 100 ms release.
type Limiter struct {
	*Compressor
}

// NewLimiter creates a limiter with a -1 dBFS ceiling.
func NewLimiter(sampleRate float64) (*Limiter, error) {
	c, err := NewCompressor(sampleRate)
	if err != nil {
		return nil, err
	}

	steps := []func() error{
		func() error { return c.SetThreshold(defaultLimiterCeilingDB) },
		func() error { return c.SetRatio(limiterRatio) },
		func() error { return c.SetKnee(limiterKneeDB) },
		func() error { return c.SetAttack(limiterAttack) },
		func() error { return c.SetRelease(limiterRelease) },
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	return &Limiter{Compressor: c}, nil
}

// SetCeiling sets the limiting threshold in dBFS.
func (l *Limiter) SetCeiling(dB float64) error {
	return l.SetThreshold(dB)
}

// Ceiling returns the limiting threshold in dBFS.
func (l *Limiter) Ceiling() float64 {
	return l.Threshold()
}
