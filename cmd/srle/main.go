package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/epithet-ssh/srle/pkg/config"
	"github.com/epithet-ssh/srle/pkg/hook"
	"github.com/epithet-ssh/srle/pkg/location"
	"github.com/lmittmann/tint"
)

var version = "dev"

// defaultConfigPaths are unified and used as flag defaults. Missing files
// are skipped.
var defaultConfigPaths = []string{
	"~/.srle/*.yaml",
	"~/.srle/*.json",
	"~/.srle/*.cue",
}

// CLI is the root command. Flags can also be set in ~/.srle/*.yaml or in
// the file given with --config, either at the top level or under the
// command name (encode:, decode:, serve:).
type CLI struct {
	Verbose    int              `help:"Increase verbosity (-v for info, -vv for debug)" short:"v" type:"counter"`
	NoColor    bool             `help:"Disable colored log output"`
	Config     kong.ConfigFlag  `help:"Config file (YAML, JSON or CUE)" short:"c"`
	OnComplete string           `help:"Command to run after each stream; a mustache template over op, input, output, in, out, ratio, escape, truncated" name:"on-complete"`
	Version    kong.VersionFlag `help:"Print version and exit"`

	Encode EncodeCLI `cmd:"encode" help:"Run-length encode a stream"`
	Decode DecodeCLI `cmd:"decode" help:"Decode a run-length encoded stream"`
	Serve  ServeCLI  `cmd:"serve" help:"Serve encode and decode over HTTP"`
}

func main() {
	defaults, err := config.LoadAndUnifyPaths(defaultConfigPaths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("srle"),
		kong.Description("srle - streaming run-length encoder and decoder"),
		kong.UsageOnError(),
		kong.Configuration(config.Loader),
		kong.Resolvers(config.NewResolver(defaults)),
		kong.Vars{"version": version},
	)

	logger := newLogger(os.Stderr, cli.Verbose, cli.NoColor)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var h *hook.Hook
	if cli.OnComplete != "" {
		h = hook.New(cli.OnComplete)
	}

	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.Bind(logger, h, &location.Opener{})

	err = kctx.Run()
	kctx.FatalIfErrorf(err)
}

// newLogger returns a tint logger on w. Verbosity 0 logs warnings and
// errors, 1 adds info, 2 or more adds debug.
func newLogger(w io.Writer, verbosity int, noColor bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbosity == 1:
		level = slog.LevelInfo
	case verbosity >= 2:
		level = slog.LevelDebug
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
		NoColor:    noColor,
	}))
}
