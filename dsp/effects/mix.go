package effects

import vecmath "github.com/cwbudde/algo-vecmath"

// MixInPlace blends a processed block into dry as dry*(1-wet) + processed*wet.
// processed is used as scratch and holds the scaled wet signal afterwards.
func MixInPlace(dry, processed []float64, wet float64) {
	n := min(len(dry), len(processed))
	if n == 0 {
		return
	}

	dry, processed = dry[:n], processed[:n]

	vecmath.ScaleBlock(dry, dry, 1-wet)
	vecmath.ScaleBlock(processed, processed, wet)
	vecmath.AddBlockInPlace(dry, processed)
}
