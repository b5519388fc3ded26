package buffer

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrNoChannels is returned when a buffer is created without channels.
	ErrNoChannels = errors.New("buffer: no channels")
	// ErrEmpty is returned when a buffer is created without frames.
	ErrEmpty = errors.New("buffer: zero frames")
	// ErrSampleRate is returned for a non-positive sample rate.
	ErrSampleRate = errors.New("buffer: sample rate must be > 0")
	// ErrRagged is returned when channels differ in length.
	ErrRagged = errors.New("buffer: channels differ in length")
)

// Audio is an immutable planar PCM buffer. It is never modified after
// construction; every processing stage produces a new Audio value, so a
// single instance can be shared by concurrent readers.
type Audio struct {
	sampleRate int
	channels   [][]float64
	frames     int
}

// New copies channels into a new Audio buffer.
func New(sampleRate int, channels [][]float64) (*Audio, error) {
	a, err := validate(sampleRate, channels)
	if err != nil {
		return nil, err
	}

	owned := make([][]float64, len(channels))
	for i, ch := range channels {
		owned[i] = append([]float64(nil), ch...)
	}

	a.channels = owned

	return a, nil
}

// Adopt wraps channels without copying. The caller hands over ownership and
// must not touch the slices afterwards.
func Adopt(sampleRate int, channels [][]float64) (*Audio, error) {
	a, err := validate(sampleRate, channels)
	if err != nil {
		return nil, err
	}

	a.channels = channels

	return a, nil
}

// Silence returns a zero-filled buffer.
func Silence(sampleRate, channels, frames int) (*Audio, error) {
	if channels <= 0 {
		return nil, ErrNoChannels
	}

	data := make([][]float64, channels)
	for i := range data {
		data[i] = make([]float64, max(frames, 0))
	}

	return Adopt(sampleRate, data)
}

func validate(sampleRate int, channels [][]float64) (*Audio, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrSampleRate, sampleRate)
	}

	if len(channels) == 0 {
		return nil, ErrNoChannels
	}

	frames := len(channels[0])
	if frames == 0 {
		return nil, ErrEmpty
	}

	for i, ch := range channels {
		if len(ch) != frames {
			return nil, fmt.Errorf("%w: channel %d has %d frames, want %d", ErrRagged, i, len(ch), frames)
		}
	}

	return &Audio{sampleRate: sampleRate, frames: frames}, nil
}

// SampleRate returns the sample rate in Hz.
func (a *Audio) SampleRate() int { return a.sampleRate }

// Channels returns the channel count.
func (a *Audio) Channels() int { return len(a.channels) }

// Frames returns the number of frames per channel.
func (a *Audio) Frames() int { return a.frames }

// Duration returns frames / sampleRate.
func (a *Audio) Duration() time.Duration {
	return time.Duration(float64(a.frames) / float64(a.sampleRate) * float64(time.Second))
}

// Seconds returns the duration in seconds.
func (a *Audio) Seconds() float64 {
	return float64(a.frames) / float64(a.sampleRate)
}

// Channel returns a copy of channel ch.
func (a *Audio) Channel(ch int) []float64 {
	return append([]float64(nil), a.channels[ch]...)
}

// At returns one sample.
func (a *Audio) At(ch, frame int) float64 {
	return a.channels[ch][frame]
}

// CopyFrames copies frames [start, start+len(dst)) of channel ch into dst
// and returns the number copied. Frames past the end are not touched.
func (a *Audio) CopyFrames(dst []float64, ch, start int) int {
	if start < 0 || start >= a.frames {
		return 0
	}

	return copy(dst, a.channels[ch][start:])
}

// Planar returns a deep copy of all channels.
func (a *Audio) Planar() [][]float64 {
	out := make([][]float64, len(a.channels))
	for i := range a.channels {
		out[i] = a.Channel(i)
	}

	return out
}

// Peak returns the largest absolute sample over all channels.
func (a *Audio) Peak() float64 {
	peak := 0.0

	for _, ch := range a.channels {
		for _, x := range ch {
			if v := math.Abs(x); v > peak {
				peak = v
			}
		}
	}

	return peak
}
