package codec

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os/exec"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-vocalmix/dsp/buffer"
)

const (
	defaultFFmpegRate = 44100
	ffmpegChannels    = 2
)

// decodeFFmpeg pipes raw through ffmpeg and reads back interleaved stereo
// s16le at the configured rate.
func (d *Decoder) decodeFFmpeg(ctx context.Context, format Format, raw []byte) (*buffer.Audio, error) {
	cmd := exec.CommandContext(ctx, d.ffmpeg,
		"-i", "pipe:0",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(d.ffmpegRate),
		"-ac", strconv.Itoa(ffmpegChannels),
		"-loglevel", "error",
		"pipe:1",
	)

	var stderr bytes.Buffer

	cmd.Stdin = bytes.NewReader(raw)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, &DecodeError{Format: format, Err: ctx.Err()}
		}

		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, unsupported(format, "ffmpeg unavailable: %v", err)
		}

		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, corrupt(format, "ffmpeg: %v: %s", err, msg)
		}

		return nil, corrupt(format, "ffmpeg: %v", err)
	}

	frameBytes := ffmpegChannels * 2

	frames := len(out) / frameBytes
	if frames == 0 {
		return nil, corrupt(format, "ffmpeg produced no samples")
	}

	planar := [][]float64{make([]float64, frames), make([]float64, frames)}

	for f := range frames {
		off := f * frameBytes
		for ch := range ffmpegChannels {
			planar[ch][f] = Int16ToFloat(int16(binary.LittleEndian.Uint16(out[off+ch*2:])))
		}
	}

	return buffer.Adopt(d.ffmpegRate, planar)
}
