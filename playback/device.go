package playback

import "errors"

var (
	// ErrDeviceUnavailable is returned by Play when no output sink can be
	// obtained.
	ErrDeviceUnavailable = errors.New("playback: output device unavailable")
	// ErrNoChain is returned by live updates before the first Play.
	ErrNoChain = errors.New("playback: chain not built")
	// ErrNotLoaded is returned by operations that need a loaded buffer.
	ErrNotLoaded = errors.New("playback: no buffer loaded")
	// ErrNotRendered is returned when comparing before a processed render
	// is available.
	ErrNotRendered = errors.New("playback: processed render not available")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("playback: engine closed")
)

// Source fills planar output blocks. Every slice in out has the same
// length; Process writes all of it.
type Source interface {
	Process(out [][]float64)
}

// Device opens output streams.
type Device interface {
	// Open starts pulling audio from src. It must not call src
	// synchronously. Failures should wrap ErrDeviceUnavailable.
	Open(sampleRate, channels int, src Source) (Stream, error)
}

// Stream is an open output. Close stops pulling and releases the sink.
type Stream interface {
	Close() error
}
