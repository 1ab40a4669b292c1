package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/epithet-ssh/srle/pkg/hook"
	"github.com/epithet-ssh/srle/pkg/location"
	"github.com/epithet-ssh/srle/pkg/srle"
)

// StreamFlags are shared by encode and decode.
type StreamFlags struct {
	Input      string `arg:"" optional:"" default:"-" help:"Input file, s3://bucket/key, or - for stdin"`
	Output     string `help:"Output file, s3://bucket/key, or - for stdout" short:"o" default:"-"`
	Escape     string `help:"Escape byte (0xFA, 250, 0372)" short:"e" env:"SRLE_ESCAPE" default:"0xFA"`
	BufferSize int    `help:"I/O buffer size in bytes" name:"buffer-size" default:"65536"`
}

type EncodeCLI struct {
	StreamFlags `embed:""`
}

func (c *EncodeCLI) Run(ctx context.Context, logger *slog.Logger, opener *location.Opener, h *hook.Hook) error {
	logger.Debug("encode command called", "encode", c)
	return c.run(ctx, logger, opener, h, "encode", srle.Encode)
}

type DecodeCLI struct {
	StreamFlags `embed:""`
}

func (c *DecodeCLI) Run(ctx context.Context, logger *slog.Logger, opener *location.Opener, h *hook.Hook) error {
	logger.Debug("decode command called", "decode", c)
	return c.run(ctx, logger, opener, h, "decode", srle.Decode)
}

type codecFunc func(dst io.Writer, src io.ByteReader, opts ...srle.Option) (srle.Stats, error)

func (f *StreamFlags) run(ctx context.Context, logger *slog.Logger, opener *location.Opener, h *hook.Hook, op string, codec codecFunc) error {
	escape, err := srle.ParseEscape(f.Escape)
	if err != nil {
		return err
	}
	if f.BufferSize <= 0 {
		return fmt.Errorf("buffer size must be positive, got %d", f.BufferSize)
	}
	if f.Input == f.Output && f.Input != location.Stdio {
		return fmt.Errorf("input and output are the same location: %s", f.Input)
	}

	in, err := opener.Open(ctx, f.Input)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := opener.Create(ctx, f.Output)
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(out, f.BufferSize)
	stats, err := codec(bw, bufio.NewReaderSize(in, f.BufferSize), srle.WithEscape(escape))

	truncated := errors.Is(err, srle.ErrTruncated)
	if truncated {
		// Everything up to the partial frame was decoded; keep it.
		logger.Warn("input ended in the middle of a frame", "input", f.Input, "error", err)
		err = nil
	}
	if err != nil {
		abort(logger, out, f.Output)
		return fmt.Errorf("%s failed: %w", op, err)
	}

	if err := bw.Flush(); err != nil {
		abort(logger, out, f.Output)
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}

	logger.Info("stream complete",
		"op", op,
		"input", f.Input,
		"output", f.Output,
		"in", stats.In,
		"out", stats.Out,
		"ratio", fmt.Sprintf("%.3f", stats.Ratio()))

	if h == nil {
		return nil
	}

	stdout, err := h.Run(ctx, hook.Attrs{
		Op:        op,
		Input:     f.Input,
		Output:    f.Output,
		Escape:    escape,
		Stats:     stats,
		Truncated: truncated,
	})
	if err != nil {
		return fmt.Errorf("on-complete hook failed: %w", err)
	}
	if s := strings.TrimSpace(stdout); s != "" {
		logger.Info("on-complete hook", "output", s)
	}
	return nil
}

// abort discards partial output so a failed run leaves the destination
// untouched.
func abort(logger *slog.Logger, out io.WriteCloser, loc string) {
	if err := location.Abort(out); err != nil {
		logger.Warn("failed to discard partial output", "output", loc, "error", err)
	}
}
