// Package effects provides the time-domain effect kernels of the vocal
// chain.
//
// Subpackages:
//   - github.com/cwbudde/algo-vocalmix/dsp/effects/dynamics
//   - github.com/cwbudde/algo-vocalmix/dsp/effects/reverb
//
// Effects in this package:
//   - Delay: feedback echo with dry/wet mix and click-free time ramps.
//   - Saturator: 4x oversampled tanh waveshaper.
//
// Hot paths do not allocate once a block size has been seen, and NaN or
// infinite input samples are replaced before they reach filter state.
package effects
