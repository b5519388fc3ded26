package codec

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-vocalmix/dsp/buffer"
	"github.com/cwbudde/algo-vocalmix/internal/testutil"
)

func TestEncodeWAVHeader(t *testing.T) {
	buf := testutil.StereoBuffer(t, 44100, []float64{0, 0.5, -0.5}, []float64{1, -1, 0})

	out := EncodeWAV(buf)

	const dataLen = 3 * 2 * 2
	if len(out) != 44+dataLen {
		t.Fatalf("len = %d, want %d", len(out), 44+dataLen)
	}

	le := binary.LittleEndian

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"riff", string(out[0:4]), "RIFF"},
		{"riff size", le.Uint32(out[4:8]), uint32(36 + dataLen)},
		{"wave", string(out[8:12]), "WAVE"},
		{"fmt", string(out[12:16]), "fmt "},
		{"fmt size", le.Uint32(out[16:20]), uint32(16)},
		{"pcm", le.Uint16(out[20:22]), uint16(1)},
		{"channels", le.Uint16(out[22:24]), uint16(2)},
		{"sample rate", le.Uint32(out[24:28]), uint32(44100)},
		{"byte rate", le.Uint32(out[28:32]), uint32(44100 * 2 * 2)},
		{"block align", le.Uint16(out[32:34]), uint16(4)},
		{"bits", le.Uint16(out[34:36]), uint16(16)},
		{"data", string(out[36:40]), "data"},
		{"data size", le.Uint32(out[40:44]), uint32(dataLen)},
	}

	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	wantSamples := []int16{0, 32767, 16384, -32768, -16384, 0}
	for i, want := range wantSamples {
		if got := int16(le.Uint16(out[44+2*i:])); got != want {
			t.Errorf("sample %d = %d, want %d", i, got, want)
		}
	}
}

func TestFloatToInt16(t *testing.T) {
	tests := []struct {
		in   float64
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32768},
		{2, 32767},
		{-2, -32768},
		{0.5, 16384},
		{-0.5, -16384},
		{1.0 / 32767, 1},
		{math.NaN(), 0},
		{math.Inf(1), 32767},
		{math.Inf(-1), -32768},
	}

	for _, tt := range tests {
		if got := FloatToInt16(tt.in); got != tt.want {
			t.Errorf("FloatToInt16(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestWAVRoundTrip(t *testing.T) {
	for _, channels := range []int{1, 2} {
		planar := make([][]float64, channels)
		for c := range planar {
			planar[c] = testutil.DeterministicNoise(int64(c+21), 1, 5000)
		}

		planar[0][0], planar[0][1] = 1, -1

		in, err := buffer.New(48000, planar)
		if err != nil {
			t.Fatal(err)
		}

		out, err := Decode(EncodeWAV(in), "take.wav")
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}

		if out.SampleRate() != 48000 || out.Channels() != channels || out.Frames() != 5000 {
			t.Fatalf("shape = %d Hz %d ch %d frames", out.SampleRate(), out.Channels(), out.Frames())
		}

		testutil.RequireAudioNearlyEqual(t, out, in, 1.0/32767)

		if out.At(0, 0) != 1 || out.At(0, 1) != -1 {
			t.Fatalf("full scale = %v, %v", out.At(0, 0), out.At(0, 1))
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	valid := EncodeWAV(testutil.MonoBuffer(t, 44100, testutil.DC(0.25, 16)))

	noData := append([]byte(nil), valid[:36]...)
	binary.LittleEndian.PutUint32(noData[4:8], 28)

	tests := []struct {
		name string
		raw  []byte
		hint string
		want error
	}{
		{"empty", nil, "a.wav", ErrCorruptData},
		{"unknown", []byte("hello, world"), "notes.txt", ErrUnsupportedFormat},
		{"bad wav header", []byte("RIFF\x00\x00\x00\x00WAVEjunk"), "a.wav", ErrCorruptData},
		{"missing data chunk", noData, "a.wav", ErrCorruptData},
		{"header only", valid[:44], "a.wav", ErrCorruptData},
		{"m4a without ffmpeg", []byte("\x00\x00\x00\x18ftypM4A \x00\x00\x00\x00"), "a.m4a", ErrUnsupportedFormat},
		{"aac hint without ffmpeg", []byte("not really aac"), "audio/aac", ErrUnsupportedFormat},
		{"garbage mp3", []byte("ID3 definitely not mpeg audio"), "a.mp3", ErrCorruptData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Decode(tt.raw, tt.hint)
			if out != nil {
				t.Fatal("partial buffer returned")
			}

			var derr *DecodeError
			if !errors.As(err, &derr) {
				t.Fatalf("error = %v, want *DecodeError", err)
			}

			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeMissingFFmpeg(t *testing.T) {
	d := NewDecoder(WithFFmpeg("/nonexistent/ffmpeg"))

	if !d.Supported(FormatM4A) {
		t.Fatal("m4a unsupported with ffmpeg configured")
	}

	_, err := d.Decode(context.Background(), []byte("\x00\x00\x00\x18ftypM4A "), "")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestParseHint(t *testing.T) {
	tests := []struct {
		hint string
		want Format
	}{
		{".wav", FormatWAV},
		{"WAV", FormatWAV},
		{"vocal take.MP3", FormatMP3},
		{"audio/mpeg", FormatMP3},
		{"audio/ogg; codecs=vorbis", FormatVorbis},
		{"song.flac", FormatFLAC},
		{"clip.m4a", FormatM4A},
		{"audio/aac", FormatAAC},
		{"readme.md", FormatUnknown},
		{"", FormatUnknown},
	}

	for _, tt := range tests {
		if got := ParseHint(tt.hint); got != tt.want {
			t.Errorf("ParseHint(%q) = %v, want %v", tt.hint, got, tt.want)
		}
	}

	for _, ext := range Extensions {
		if ParseHint(ext) == FormatUnknown {
			t.Errorf("accepted extension %s not recognized", ext)
		}
	}
}

func TestSniff(t *testing.T) {
	tests := []struct {
		raw  string
		want Format
	}{
		{"RIFF\x24\x00\x00\x00WAVEfmt ", FormatWAV},
		{"fLaC\x00\x00\x00\x22", FormatFLAC},
		{"OggS\x00\x02", FormatVorbis},
		{"\x00\x00\x00\x20ftypM4A ", FormatM4A},
		{"ID3\x04\x00", FormatMP3},
		{"\xff\xfb\x90\x64", FormatMP3},
		{"\xff\xf1\x50\x80", FormatAAC},
		{"plain text", FormatUnknown},
	}

	for _, tt := range tests {
		if got := Sniff([]byte(tt.raw)); got != tt.want {
			t.Errorf("Sniff(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestDecodeAsync(t *testing.T) {
	in := testutil.MonoBuffer(t, 22050, testutil.DeterministicSine(440, 22050, 0.5, 2205))

	task := DecodeAsync(context.Background(), EncodeWAV(in), "audio/wav")
	<-task.Done()

	out, err := task.Wait()
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireAudioNearlyEqual(t, out, in, 1.0/32767)
}
