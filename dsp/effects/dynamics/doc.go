// Package dynamics provides the gain-reduction processors of the vocal
// chain.
//
// Included processors:
//   - Compressor: feed-forward soft-knee compressor with log2-domain gain
//     computation and gain-reduction metering.
//   - DeEsser: highpass-detected sibilance reducer, split-band or wideband.
//   - Limiter: ceiling limiter built on a high-ratio compressor.
//
// All processors are mono and not safe for concurrent use. Envelope
// followers use the one-pole coefficient exp(-1/(sampleRate*seconds)).
package dynamics
