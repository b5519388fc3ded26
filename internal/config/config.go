// Package config loads process configuration for the vocalmix command from
// environment variables.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-vocalmix/meter"
	"github.com/cwbudde/algo-vocalmix/preset"
	"github.com/cwbudde/algo-vocalmix/render"
)

// Config holds runtime configuration.
type Config struct {
	Preset string

	// Offline rendering
	BlockSize int

	// Metering
	FFTSize   int
	Smoothing float64

	// Decoding; empty disables the AAC/M4A fallback
	FFmpegPath string

	// Output
	SpeakerBuffer time.Duration
	LogLevel      logrus.Level
}

// Load reads configuration from environment variables with defaults.
// Unparseable values fall back to the default.
func Load() Config {
	return Config{
		Preset:        envStr("VOCALMIX_PRESET", preset.DefaultID),
		BlockSize:     envInt("VOCALMIX_BLOCK_SIZE", render.DefaultBlockSize),
		FFTSize:       envInt("VOCALMIX_FFT_SIZE", meter.DefaultFFTSize),
		Smoothing:     envFloat("VOCALMIX_SMOOTHING", meter.DefaultSmoothing),
		FFmpegPath:    envStr("VOCALMIX_FFMPEG", ""),
		SpeakerBuffer: time.Duration(envInt("VOCALMIX_SPEAKER_BUFFER", 100)) * time.Millisecond,
		LogLevel:      envLevel("VOCALMIX_LOG_LEVEL", logrus.InfoLevel),
	}
}

// Logger returns a text logger on stderr at the configured level.
func (c Config) Logger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(c.LogLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	return l
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}

	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}

	return fallback
}

func envLevel(key string, fallback logrus.Level) logrus.Level {
	if v := os.Getenv(key); v != "" {
		if l, err := logrus.ParseLevel(v); err == nil {
			return l
		}
	}

	return fallback
}
