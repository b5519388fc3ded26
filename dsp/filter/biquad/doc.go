// Package biquad provides the second-order IIR runtime used by the EQ,
// high-pass and sidechain nodes.
//
// A [Section] implements Direct Form II Transposed processing for a single
// second-order section defined by [Coefficients]. Coefficient design lives
// in dsp/filter/design.
package biquad
