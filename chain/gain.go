package chain

import (
	"fmt"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-vocalmix/dsp/core"
)

// MaxVolume bounds the linear volume of a Gain stage.
const MaxVolume = 4.0

const unityTolerance = 1e-9

// Gain is the output volume stage applied after the chain. It is kept
// outside the node order so that the limiter remains the last processor.
type Gain struct {
	volume float64
}

// NewGain returns a unity gain stage.
func NewGain() *Gain {
	return &Gain{volume: 1}
}

// SetVolume sets the linear volume in [0, MaxVolume]. Values within
// rounding distance of one snap to unity so the stage stays a pass-through.
func (g *Gain) SetVolume(v float64) error {
	if math.IsNaN(v) || v < 0 || v > MaxVolume {
		return fmt.Errorf("%w: volume must be in [0, %g]: %g", ErrInvalidParameter, MaxVolume, v)
	}

	if core.NearlyEqual(v, 1, unityTolerance) {
		v = 1
	}

	g.volume = v

	return nil
}

// Volume returns the linear volume.
func (g *Gain) Volume() float64 { return g.volume }

// Process scales block in place.
func (g *Gain) Process(block []float64) {
	if g.volume == 1 || len(block) == 0 {
		return
	}

	vecmath.ScaleBlock(block, block, g.volume)
}
