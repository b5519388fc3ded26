// Package design provides RBJ-style biquad coefficient designers for the
// vocal chain: high-pass rumble removal, shelving and peaking EQ bands,
// and the sidechain and anti-alias filters used by the dynamics and
// saturation stages. The coefficients are consumed by dsp/filter/biquad.
package design
