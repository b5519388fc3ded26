// Package meter provides observational analysis of audio blocks: a
// smoothed FFT spectrum, RMS and peak levels, a time-domain snapshot and a
// coarse waveform overview of a whole buffer.
//
// An Analyser is fed by Write from the audio path and read from any
// goroutine. It never alters the audio it sees. With nothing written it
// reports zeros.
package meter
