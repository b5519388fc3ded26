package codec

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-vocalmix/dsp/buffer"
)

// Option configures a Decoder.
type Option func(*Decoder)

// WithFFmpeg enables M4A and AAC decoding through the ffmpeg binary at path.
func WithFFmpeg(path string) Option {
	return func(d *Decoder) {
		d.ffmpeg = path
	}
}

// WithFFmpegSampleRate sets the rate ffmpeg resamples to. The default is
// 44100 Hz.
func WithFFmpegSampleRate(rate int) Option {
	return func(d *Decoder) {
		if rate > 0 {
			d.ffmpegRate = rate
		}
	}
}

// WithLogger sets the logger used for decode messages.
func WithLogger(l logrus.FieldLogger) Option {
	return func(d *Decoder) {
		if l != nil {
			d.logger = l
		}
	}
}

// Decoder turns encoded bytes into buffers. The zero value is not usable;
// call NewDecoder.
type Decoder struct {
	ffmpeg     string
	ffmpegRate int
	logger     logrus.FieldLogger
}

// NewDecoder returns a decoder. Without WithFFmpeg, M4A and AAC input
// fails with ErrUnsupportedFormat.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{ffmpegRate: defaultFFmpegRate, logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

var defaultDecoder = NewDecoder()

// Decode decodes raw with a decoder that has no ffmpeg configured.
func Decode(raw []byte, hint string) (*buffer.Audio, error) {
	return defaultDecoder.Decode(context.Background(), raw, hint)
}

// Decode decodes raw. hint is a file name, extension or MIME type and is
// only consulted when the content itself is not recognized.
func (d *Decoder) Decode(ctx context.Context, raw []byte, hint string) (*buffer.Audio, error) {
	format := detect(raw, hint)

	if len(raw) == 0 {
		return nil, corrupt(format, "empty input")
	}

	started := time.Now()

	out, err := d.decode(ctx, format, raw)
	if err != nil {
		d.logger.WithFields(logrus.Fields{"format": format.String(), "bytes": len(raw)}).
			WithError(err).Debug("decode failed")

		return nil, err
	}

	d.logger.WithFields(logrus.Fields{
		"format":      format.String(),
		"frames":      out.Frames(),
		"channels":    out.Channels(),
		"sample_rate": out.SampleRate(),
		"elapsed":     time.Since(started),
	}).Debug("decoded")

	return out, nil
}

func (d *Decoder) decode(ctx context.Context, format Format, raw []byte) (*buffer.Audio, error) {
	switch format {
	case FormatWAV:
		wf, data, err := parseWAV(raw)
		if err != nil {
			return nil, err
		}

		if wf.audioFormat == wavFmtPCM && wf.bitsPerSample == wavBitsPerWord {
			return decodePCM16(wf, data)
		}

		// 8/24/32-bit and float variants.
		return decodeStream(format, func() (beep.StreamSeekCloser, beep.Format, error) {
			return wav.Decode(bytes.NewReader(raw))
		})
	case FormatMP3:
		return decodeStream(format, func() (beep.StreamSeekCloser, beep.Format, error) {
			return mp3.Decode(io.NopCloser(bytes.NewReader(raw)))
		})
	case FormatFLAC:
		return decodeStream(format, func() (beep.StreamSeekCloser, beep.Format, error) {
			return flac.Decode(bytes.NewReader(raw))
		})
	case FormatVorbis:
		return decodeStream(format, func() (beep.StreamSeekCloser, beep.Format, error) {
			return vorbis.Decode(io.NopCloser(bytes.NewReader(raw)))
		})
	case FormatAAC, FormatM4A:
		if d.ffmpeg == "" {
			return nil, unsupported(format, "ffmpeg not configured")
		}

		return d.decodeFFmpeg(ctx, format, raw)
	default:
		return nil, unsupported(format, "unrecognized content")
	}
}

const streamChunk = 4096

// decodeStream drains a beep decoder into a planar buffer. Decoder panics
// on malformed input are reported as corrupt data.
func decodeStream(format Format, open func() (beep.StreamSeekCloser, beep.Format, error)) (out *buffer.Audio, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, corrupt(format, "decoder panic: %v", r)
		}
	}()

	s, bf, err := open()
	if err != nil {
		return nil, corrupt(format, "%v", err)
	}
	defer s.Close()

	channels := min(max(bf.NumChannels, 1), 2)
	planar := make([][]float64, channels)

	if n := s.Len(); n > 0 {
		for ch := range planar {
			planar[ch] = make([]float64, 0, n)
		}
	}

	chunk := make([][2]float64, streamChunk)

	for {
		n, ok := s.Stream(chunk)
		for _, frame := range chunk[:n] {
			for ch := range planar {
				planar[ch] = append(planar[ch], frame[ch])
			}
		}

		if !ok {
			break
		}
	}

	if err := s.Err(); err != nil {
		return nil, corrupt(format, "%v", err)
	}

	if len(planar[0]) == 0 {
		return nil, corrupt(format, "no sample frames")
	}

	out, err = buffer.Adopt(int(bf.SampleRate), planar)
	if err != nil {
		return nil, corrupt(format, "%v", err)
	}

	return out, nil
}

// Task is a decode running in the background.
type Task struct {
	done   chan struct{}
	result *buffer.Audio
	err    error
}

// DecodeAsync starts decoding raw and returns immediately.
func (d *Decoder) DecodeAsync(ctx context.Context, raw []byte, hint string) *Task {
	t := &Task{done: make(chan struct{})}

	go func() {
		defer close(t.done)
		t.result, t.err = d.Decode(ctx, raw, hint)
	}()

	return t
}

// DecodeAsync starts a background Decode.
func DecodeAsync(ctx context.Context, raw []byte, hint string) *Task {
	return defaultDecoder.DecodeAsync(ctx, raw, hint)
}

// Done is closed when the decode has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the decode has finished and returns its result.
func (t *Task) Wait() (*buffer.Audio, error) {
	<-t.done
	return t.result, t.err
}

func (f Format) needsFFmpeg() bool {
	return f == FormatAAC || f == FormatM4A
}

// Supported reports whether d can decode f.
func (d *Decoder) Supported(f Format) bool {
	if f == FormatUnknown {
		return false
	}

	return !f.needsFFmpeg() || d.ffmpeg != ""
}
