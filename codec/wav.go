package codec

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/cwbudde/algo-vocalmix/dsp/buffer"
)

const (
	wavHeaderSize  = 44
	wavFmtPCM      = 1
	wavBitsPerWord = 16
)

// EncodeWAV returns buf as a canonical 16-bit PCM WAV file: a 44-byte
// RIFF header followed by interleaved little-endian samples. Negative
// samples are scaled by 32768, others by 32767, then rounded and clamped.
func EncodeWAV(buf *buffer.Audio) []byte {
	if buf == nil {
		return nil
	}

	var out bytes.Buffer

	out.Grow(wavHeaderSize + buf.Frames()*buf.Channels()*2)
	_ = WriteWAV(&out, buf)

	return out.Bytes()
}

// WriteWAV streams the encoding of EncodeWAV to w.
func WriteWAV(w io.Writer, buf *buffer.Audio) error {
	channels := buf.Channels()
	frames := buf.Frames()
	rate := buf.SampleRate()
	dataLen := frames * channels * 2

	var header [wavHeaderSize]byte

	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataLen))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], wavFmtPCM)
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(rate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(rate*channels*2))
	binary.LittleEndian.PutUint16(header[32:34], uint16(channels*2))
	binary.LittleEndian.PutUint16(header[34:36], wavBitsPerWord)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataLen))

	if _, err := w.Write(header[:]); err != nil {
		return err
	}

	const framesPerChunk = 4096

	chunk := make([]byte, framesPerChunk*channels*2)

	for start := 0; start < frames; start += framesPerChunk {
		n := min(framesPerChunk, frames-start)
		pos := 0

		for f := start; f < start+n; f++ {
			for ch := range channels {
				binary.LittleEndian.PutUint16(chunk[pos:], uint16(FloatToInt16(buf.At(ch, f))))
				pos += 2
			}
		}

		if _, err := w.Write(chunk[:pos]); err != nil {
			return err
		}
	}

	return nil
}

// FloatToInt16 converts a sample to 16-bit PCM with the asymmetric
// scaling used by EncodeWAV. NaN maps to 0.
func FloatToInt16(x float64) int16 {
	if math.IsNaN(x) {
		return 0
	}

	var v float64
	if x < 0 {
		v = math.Round(x * 32768)
	} else {
		v = math.Round(x * 32767)
	}

	return int16(max(math.MinInt16, min(math.MaxInt16, v)))
}

// Int16ToFloat is the inverse of FloatToInt16 for in-range samples.
func Int16ToFloat(s int16) float64 {
	if s < 0 {
		return float64(s) / 32768
	}

	return float64(s) / 32767
}

type wavFormat struct {
	audioFormat   uint16
	channels      int
	sampleRate    int
	bitsPerSample int
}

// parseWAV walks the RIFF chunks and returns the fmt description and the
// data payload.
func parseWAV(raw []byte) (wavFormat, []byte, error) {
	var wf wavFormat

	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return wf, nil, corrupt(FormatWAV, "missing RIFF/WAVE header")
	}

	var (
		data   []byte
		hasFmt bool
	)

	for pos := 12; pos+8 <= len(raw); {
		id := string(raw[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(raw[pos+4 : pos+8]))
		body := pos + 8

		if size < 0 || body+size > len(raw) {
			if id != "data" {
				return wf, nil, corrupt(FormatWAV, "chunk %q overruns file", id)
			}

			// Streamed writers leave the data size unset; take what is there.
			size = len(raw) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return wf, nil, corrupt(FormatWAV, "fmt chunk too short: %d", size)
			}

			wf.audioFormat = binary.LittleEndian.Uint16(raw[body:])
			wf.channels = int(binary.LittleEndian.Uint16(raw[body+2:]))
			wf.sampleRate = int(binary.LittleEndian.Uint32(raw[body+4:]))
			wf.bitsPerSample = int(binary.LittleEndian.Uint16(raw[body+14:]))
			hasFmt = true
		case "data":
			data = raw[body : body+size]
		}

		pos = body + size + size&1
	}

	switch {
	case !hasFmt:
		return wf, nil, corrupt(FormatWAV, "missing fmt chunk")
	case data == nil:
		return wf, nil, corrupt(FormatWAV, "missing data chunk")
	case wf.channels <= 0:
		return wf, nil, corrupt(FormatWAV, "channel count %d", wf.channels)
	case wf.sampleRate <= 0:
		return wf, nil, corrupt(FormatWAV, "sample rate %d", wf.sampleRate)
	}

	return wf, data, nil
}

// decodePCM16 is the exact inverse of WriteWAV.
func decodePCM16(wf wavFormat, data []byte) (*buffer.Audio, error) {
	frameBytes := wf.channels * 2

	frames := len(data) / frameBytes
	if frames == 0 {
		return nil, corrupt(FormatWAV, "no sample frames")
	}

	planar := make([][]float64, wf.channels)
	for ch := range planar {
		planar[ch] = make([]float64, frames)
	}

	for f := range frames {
		off := f * frameBytes
		for ch := range wf.channels {
			planar[ch][f] = Int16ToFloat(int16(binary.LittleEndian.Uint16(data[off+ch*2:])))
		}
	}

	out, err := buffer.Adopt(wf.sampleRate, planar)
	if err != nil {
		return nil, corrupt(FormatWAV, "%v", err)
	}

	return out, nil
}
