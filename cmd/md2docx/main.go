package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/dgallion1/md2docx/internal/branding"
	"github.com/dgallion1/md2docx/internal/convert"
	"github.com/dgallion1/md2docx/internal/doctree"
	"github.com/dgallion1/md2docx/internal/images"
	"github.com/dgallion1/md2docx/internal/parser"
)

// Version is set at build time via ldflags.
var Version = "dev"

// cliMaxBytes bounds local input files. Files are trusted, so the
// ceiling is well above the service default.
const cliMaxBytes = 64 << 20

var errUsage = errors.New("usage: md2docx [flags] INPUT [OUTPUT]")

func main() {
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	f, pos, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if f.common.verbose {
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	switch {
	case f.mode.version:
		fmt.Fprintf(stdout, "md2docx %s\n", Version)
		return nil
	case f.mode.generateConfig != "":
		if err := branding.WriteSample(f.mode.generateConfig); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Wrote sample configuration to %s\n", f.mode.generateConfig)
		return nil
	case f.mode.inspect != "":
		outline, err := parser.InspectFile(f.mode.inspect)
		if err != nil {
			return err
		}
		fmt.Fprint(stdout, outline.String())
		return nil
	}

	if len(pos) < 1 || len(pos) > 2 {
		return errUsage
	}
	input := pos[0]
	if _, err := parser.ForFile(input); err != nil {
		return err
	}

	cfg, err := loadStyle(f, log)
	if err != nil {
		return err
	}

	resolver := images.NewResolver(
		images.NewAllowlist(f.images.allowHosts...),
		log,
		images.WithTimeout(f.images.timeout),
	)
	conv := convert.NewService(resolver, cliMaxBytes, log)

	src, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	if f.mode.ast {
		blocks, err := conv.ParseOnly(src)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, doctree.Dump(blocks))
		return nil
	}

	output := outputPath(input)
	if len(pos) == 2 {
		output = pos[1]
	}

	start := time.Now()
	pkg, err := conv.Convert(ctx, src, cfg)
	if err != nil {
		return err
	}
	if err := pkg.Save(output); err != nil {
		return err
	}
	log.Info("converted", "input", input, "output", output, "duration_ms", time.Since(start).Milliseconds())
	fmt.Fprintf(stdout, "Created %s\n", output)
	return nil
}

// loadStyle builds the style configuration. A config file that cannot be
// read or applied is reported and skipped; invalid flag values fail.
func loadStyle(f *cliFlags, log *slog.Logger) (*branding.Config, error) {
	cfg := branding.Defaults()
	if f.common.config != "" {
		o, err := branding.LoadFile(f.common.config)
		if err == nil {
			err = cfg.Apply(o)
		}
		if err != nil {
			log.Warn("ignoring style config, using defaults", "path", f.common.config, "error", err)
		} else {
			log.Info("loaded style config", "path", f.common.config)
		}
	}
	if err := cfg.Apply(f.overrides()); err != nil {
		return nil, fmt.Errorf("invalid option: %w", err)
	}
	return cfg, nil
}

// outputPath replaces the input extension with .docx.
func outputPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".docx"
}
