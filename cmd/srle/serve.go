package main

import (
	"context"
	"log/slog"

	"github.com/epithet-ssh/srle/pkg/srle"
	"github.com/epithet-ssh/srle/pkg/srleserver"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ServeCLI struct {
	Listen       string `help:"Address to listen on, or unix:///path/to.sock" short:"l" env:"SRLE_LISTEN" default:"127.0.0.1:8080"`
	Escape       string `help:"Default escape byte, overridable per request with ?escape=" short:"e" env:"SRLE_ESCAPE" default:"0xFA"`
	MaxBodyBytes int64  `help:"Maximum request body size in bytes (0 for unlimited)" name:"max-body-bytes" default:"0"`
	BufferSize   int    `help:"Per-request I/O buffer size in bytes" name:"buffer-size" default:"32768"`
}

func (c *ServeCLI) Run(ctx context.Context, logger *slog.Logger) error {
	logger.Debug("serve command called", "serve", c)

	escape, err := srle.ParseEscape(c.Escape)
	if err != nil {
		return err
	}

	r := chi.NewRouter()

	// Middleware stack. No timeout: bodies are streamed and may be large.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Mount("/", srleserver.New(srleserver.Config{
		Escape:       escape,
		MaxBodyBytes: c.MaxBodyBytes,
		BufferSize:   c.BufferSize,
	}, logger))

	logger.Info("listening", "address", c.Listen, "escape", c.Escape)
	return listenAndServe(ctx, c.Listen, r, logger)
}
