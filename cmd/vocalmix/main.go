// Command vocalmix applies a genre preset to a vocal recording.
//
// Usage:
//
//	vocalmix [flags]
//
// Examples:
//
//	vocalmix -list
//	vocalmix -preset podcast -in take.mp3 -out take-mixed.wav
//	vocalmix -preset pop -in take.wav -play
//	vocalmix -in take.flac -overview 80
//
// Defaults are read from VOCALMIX_* environment variables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-vocalmix/chain"
	"github.com/cwbudde/algo-vocalmix/codec"
	"github.com/cwbudde/algo-vocalmix/dsp/buffer"
	"github.com/cwbudde/algo-vocalmix/internal/config"
	"github.com/cwbudde/algo-vocalmix/meter"
	"github.com/cwbudde/algo-vocalmix/playback"
	"github.com/cwbudde/algo-vocalmix/playback/speaker"
	"github.com/cwbudde/algo-vocalmix/preset"
	"github.com/cwbudde/algo-vocalmix/render"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], config.Load(), os.Stdout)
	stop()

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}

		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	list     bool
	preset   string
	in       string
	out      string
	play     bool
	overview int
	volume   float64
}

func parseFlags(args []string, cfg config.Config) (options, error) {
	var o options

	fs := flag.NewFlagSet("vocalmix", flag.ContinueOnError)
	fs.BoolVar(&o.list, "list", false, "list available presets")
	fs.StringVar(&o.preset, "preset", cfg.Preset, "preset id")
	fs.StringVar(&o.in, "in", "", "input audio file (wav, mp3, flac, ogg; m4a/aac with ffmpeg)")
	fs.StringVar(&o.out, "out", "", "write the processed result as 16-bit WAV")
	fs.BoolVar(&o.play, "play", false, "play the input through the live chain")
	fs.IntVar(&o.overview, "overview", 0, "print a waveform overview with this many points")
	fs.Float64Var(&o.volume, "volume", 1, "playback volume")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: vocalmix [flags]\n\n")
		fmt.Fprintf(fs.Output(), "Applies a genre preset to a vocal recording.\n\n")
		fmt.Fprintf(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return o, err
	}

	if !o.list && o.in == "" {
		fs.Usage()
		return o, errors.New("-in is required")
	}

	return o, nil
}

func run(ctx context.Context, args []string, cfg config.Config, stdout io.Writer) error {
	o, err := parseFlags(args, cfg)
	if err != nil {
		return err
	}

	catalog := preset.Default()

	if o.list {
		return printList(stdout, catalog)
	}

	if _, ok := catalog.Lookup(o.preset); !ok {
		return fmt.Errorf("unknown preset %q (see -list)", o.preset)
	}

	logger := cfg.Logger()

	buf, err := decodeFile(ctx, o.in, cfg, logger)
	if err != nil {
		return err
	}

	if o.overview > 0 {
		printOverview(stdout, buf, o.overview)
	}

	if o.out != "" {
		if err := renderFile(ctx, buf, catalog.Get(o.preset), o.out, cfg, logger); err != nil {
			return err
		}
	}

	if o.play {
		return play(ctx, buf, o, cfg, logger)
	}

	return nil
}

func printList(w io.Writer, catalog *preset.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME")

	for _, e := range catalog.List() {
		fmt.Fprintf(tw, "%s\t%s\n", e.ID, e.Name)
	}

	return tw.Flush()
}

func decodeFile(ctx context.Context, path string, cfg config.Config, logger logrus.FieldLogger) (*buffer.Audio, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	dec := codec.NewDecoder(codec.WithFFmpeg(cfg.FFmpegPath), codec.WithLogger(logger))

	buf, err := dec.Decode(ctx, raw, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return buf, nil
}

func printOverview(w io.Writer, buf *buffer.Audio, points int) {
	const width = 40

	for _, v := range meter.Overview(buf, points) {
		n := int(min(v, 1) * width)
		fmt.Fprintf(w, "%.4f %s\n", v, strings.Repeat("#", n))
	}
}

func renderFile(ctx context.Context, buf *buffer.Audio, p preset.Config, path string, cfg config.Config, logger logrus.FieldLogger) error {
	ch, err := chain.Build(p, buf.SampleRate())
	if err != nil {
		return err
	}

	out, err := render.Render(ctx, buf, ch, render.WithBlockSize(cfg.BlockSize), render.WithLogger(logger))
	if err != nil {
		return err
	}

	before, after := meter.MeasureLoudness(buf), meter.MeasureLoudness(out)
	logger.WithFields(logrus.Fields{
		"preset":      p.ID,
		"input_lufs":  fmt.Sprintf("%.1f", before.IntegratedLUFS),
		"output_lufs": fmt.Sprintf("%.1f", after.IntegratedLUFS),
		"output_peak": fmt.Sprintf("%.1f", after.PeakDB),
	}).Info("loudness")

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := codec.WriteWAV(f, out); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	return f.Close()
}

func play(ctx context.Context, buf *buffer.Audio, o options, cfg config.Config, logger *logrus.Logger) error {
	dev := speaker.New(speaker.WithBufferDuration(cfg.SpeakerBuffer))
	defer dev.Shutdown()

	e, err := playback.New(dev,
		playback.WithPreset(o.preset),
		playback.WithLogger(logger),
		playback.WithMeterOptions(meter.WithFFTSize(cfg.FFTSize), meter.WithSmoothing(cfg.Smoothing)),
	)
	if err != nil {
		return err
	}
	defer e.Close()

	ended := make(chan struct{}, 1)
	e.Subscribe(func(ev playback.Event) {
		if ev.Kind == playback.EventEnded {
			select {
			case ended <- struct{}{}:
			default:
			}
		}
	})

	if err := e.Load(buf); err != nil {
		return err
	}

	if err := e.Play(); err != nil {
		return err
	}

	if err := e.UpdateVolume(o.volume); err != nil {
		return err
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return e.Stop()
		case <-ended:
			return nil
		case <-ticker.C:
			level := e.Analyser().Level()
			logger.WithFields(logrus.Fields{
				"position":       fmt.Sprintf("%.1fs", e.Position()),
				"peak_db":        fmt.Sprintf("%.1f", level.PeakDB),
				"gain_reduction": fmt.Sprintf("%.1f", e.GainReduction()),
			}).Debug("playing")
		}
	}
}
