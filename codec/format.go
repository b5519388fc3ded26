package codec

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Format identifies an audio container or codec.
type Format int

const (
	FormatUnknown Format = iota
	FormatWAV
	FormatMP3
	FormatFLAC
	FormatVorbis
	FormatAAC
	FormatM4A
)

func (f Format) String() string {
	switch f {
	case FormatWAV:
		return "wav"
	case FormatMP3:
		return "mp3"
	case FormatFLAC:
		return "flac"
	case FormatVorbis:
		return "ogg"
	case FormatAAC:
		return "aac"
	case FormatM4A:
		return "m4a"
	default:
		return "unknown"
	}
}

// Extensions lists the accepted upload extensions.
var Extensions = []string{".wav", ".mp3", ".m4a", ".aac", ".ogg", ".flac"}

var hintFormats = map[string]Format{
	"wav":          FormatWAV,
	"wave":         FormatWAV,
	"audio/wav":    FormatWAV,
	"audio/wave":   FormatWAV,
	"audio/x-wav":  FormatWAV,
	"mp3":          FormatMP3,
	"audio/mpeg":   FormatMP3,
	"audio/mp3":    FormatMP3,
	"flac":         FormatFLAC,
	"audio/flac":   FormatFLAC,
	"audio/x-flac": FormatFLAC,
	"ogg":          FormatVorbis,
	"oga":          FormatVorbis,
	"audio/ogg":    FormatVorbis,
	"audio/vorbis": FormatVorbis,
	"aac":          FormatAAC,
	"audio/aac":    FormatAAC,
	"audio/x-aac":  FormatAAC,
	"m4a":          FormatM4A,
	"mp4":          FormatM4A,
	"audio/mp4":    FormatM4A,
	"audio/x-m4a":  FormatM4A,
}

// ParseHint maps a file name, extension or MIME type to a Format.
func ParseHint(hint string) Format {
	h := strings.ToLower(strings.TrimSpace(hint))
	if i := strings.IndexByte(h, ';'); i >= 0 {
		h = strings.TrimSpace(h[:i])
	}

	if f, ok := hintFormats[h]; ok {
		return f
	}

	if ext := filepath.Ext(h); ext != "" {
		return hintFormats[ext[1:]]
	}

	return FormatUnknown
}

// Sniff guesses the format from the leading bytes of raw.
func Sniff(raw []byte) Format {
	switch {
	case len(raw) >= 12 && bytes.Equal(raw[0:4], []byte("RIFF")) && bytes.Equal(raw[8:12], []byte("WAVE")):
		return FormatWAV
	case bytes.HasPrefix(raw, []byte("fLaC")):
		return FormatFLAC
	case bytes.HasPrefix(raw, []byte("OggS")):
		return FormatVorbis
	case len(raw) >= 8 && bytes.Equal(raw[4:8], []byte("ftyp")):
		return FormatM4A
	case bytes.HasPrefix(raw, []byte("ID3")):
		return FormatMP3
	case len(raw) >= 2 && raw[0] == 0xFF && raw[1]&0xF6 == 0xF0:
		// ADTS sync word with layer bits 00.
		return FormatAAC
	case len(raw) >= 2 && raw[0] == 0xFF && raw[1]&0xE0 == 0xE0:
		return FormatMP3
	default:
		return FormatUnknown
	}
}

// detect prefers the content over the hint, since uploads are often
// mislabeled.
func detect(raw []byte, hint string) Format {
	if f := Sniff(raw); f != FormatUnknown {
		return f
	}

	return ParseHint(hint)
}
