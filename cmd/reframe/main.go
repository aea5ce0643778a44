// Command reframe downloads an image and writes a resized copy of it.
//
//	reframe [flags] url width height
//
// Animated GIFs are written to <out>.gif shrunk to fit in width x height.
// Everything else is resized to exactly width x height and written as WebP
// to <out>.png. A size of 0 0 halves the image.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/gifsmith/reframe"
	"github.com/gifsmith/reframe/internal/config"
	"github.com/gifsmith/reframe/internal/logging"
	"github.com/gifsmith/reframe/pkg/animation"
	"github.com/gifsmith/reframe/pkg/fetch"
	"github.com/gifsmith/reframe/pkg/io/video"
	"github.com/gifsmith/reframe/pkg/still"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errUsage = errors.New("usage error")

type invocation struct {
	cfg  *config.Config
	url  string
	size image.Point
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	inv, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		if errors.Is(err, errUsage) {
			return exitUsage
		}
		return exitError
	}

	level, _ := logging.ParseLevel(inv.cfg.LogLevel)
	logging.SetLevel(level)

	opts, err := resizerOptions(inv.cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}

	res, err := reframe.NewResizer(opts).ResizeURL(ctx, fetch.New(inv.cfg.FetcherConfig()), inv.url, inv.size)
	if err != nil {
		fmt.Fprintf(stderr, "reframe: %v\n", err)
		return exitError
	}

	fmt.Fprintf(stderr, "%s: %d frame(s) at %dx%d\n", res.Path, res.Frames, res.Size.X, res.Size.Y)
	return exitOK
}

func parseArgs(args []string, stderr io.Writer) (*invocation, error) {
	fs := flag.NewFlagSet("reframe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a YAML config file")
	out := fs.String("out", "", "output path without extension (default 1-out)")
	logLevel := fs.String("log-level", "", "disabled, error, warn, info, debug or trace")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: reframe [flags] url width height")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 3 {
		fs.Usage()
		return nil, fmt.Errorf("%w: expected url, width and height, got %d argument(s)", errUsage, fs.NArg())
	}

	w, err := parseSide(fs.Arg(1))
	if err != nil {
		return nil, err
	}
	h, err := parseSide(fs.Arg(2))
	if err != nil {
		return nil, err
	}

	cfg := config.Default()
	if *configPath != "" {
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, err
		}
	}
	if *out != "" {
		cfg.Output.Dir, cfg.Output.BaseName = splitOut(*out)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}

	return &invocation{cfg: cfg, url: fs.Arg(0), size: image.Pt(w, h)}, nil
}

func parseSide(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: size %q must be a non-negative integer", errUsage, s)
	}
	return n, nil
}

func resizerOptions(cfg *config.Config) (reframe.Options, error) {
	scaler, err := video.ScalerByName(cfg.GIF.Scaler)
	if err != nil {
		return reframe.Options{}, err
	}

	return reframe.Options{
		Dir:            cfg.Output.Dir,
		BaseName:       cfg.Output.BaseName,
		GIFExtension:   cfg.Output.GIFExtension,
		StillExtension: cfg.Output.StillExtension,
		Scaler:         scaler,
		GIF: animation.EncodeOptions{
			LoopCount: cfg.GIF.LoopCount,
			Optimize:  cfg.GIF.Optimize,
			Dither:    cfg.GIF.Dither,
		},
		WebP: still.Options{
			Quality:  cfg.WebP.Quality,
			Lossless: cfg.WebP.Lossless,
		},
	}, nil
}

// splitOut turns -out into a directory and a base name.
func splitOut(out string) (string, string) {
	dir, base := filepath.Split(out)
	if dir == "" {
		dir = "."
	}
	return dir, base
}
