// Package spectrum provides helpers for complex spectrum bins.
//
// It does not implement an FFT. It works on bins produced by an FFT backend
// and covers magnitude extraction, frame-to-frame smoothing and dB
// conversion for display.
package spectrum
