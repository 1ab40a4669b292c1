// Package srleserver exposes the srle codec over HTTP.
//
// Request bodies are streamed through an encoder or decoder straight into
// the response, so memory use does not depend on body size:
//
//	POST /encode[?escape=0xFA]   body: plain bytes    -> encoded bytes
//	POST /decode[?escape=0xFA]   body: encoded bytes  -> plain bytes
//	GET  /healthz
//
// A body longer than Config.MaxBodyBytes is rejected with 413 when its
// length is declared up front. A chunked body that runs over the limit, or
// any other failure once the body has started, is reported in the
// X-Srle-Error trailer.
package srleserver

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/epithet-ssh/srle/pkg/srle"
	"github.com/go-chi/chi/v5"
)

// TruncatedTrailer is set to "true" on a decode response whose input
// ended in the middle of a frame.
const TruncatedTrailer = "X-Srle-Truncated"

// StatsHeader carries "<in> <out>" byte counts as a trailer.
const StatsHeader = "X-Srle-Stats"

// ErrorTrailer is set to the error message when a stream fails after the
// response status was sent. The body is then incomplete: it holds the
// result for the first <in> bytes of the request only.
const ErrorTrailer = "X-Srle-Error"

// Config configures the HTTP handler.
type Config struct {
	// Escape is the escape byte used when a request does not name one.
	// Zero is a valid escape byte, so set srle.DefaultEscape explicitly.
	Escape byte
	// MaxBodyBytes limits request bodies; 0 means unlimited.
	MaxBodyBytes int64
	// BufferSize is the size of the read and write buffers (default: 32KiB).
	BufferSize int
}

type server struct {
	cfg Config
	log *slog.Logger
}

// New creates the codec handler. It can be mounted on any router or
// served directly.
func New(cfg Config, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 32 * 1024
	}

	s := &server{cfg: cfg, log: log}

	r := chi.NewRouter()
	r.Get("/healthz", s.healthz)
	r.Post("/encode", s.encode)
	r.Post("/decode", s.decode)
	return r
}

func (s *server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *server) encode(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, "encode", srle.Encode)
}

func (s *server) decode(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, "decode", srle.Decode)
}

type codecFunc func(dst io.Writer, src io.ByteReader, opts ...srle.Option) (srle.Stats, error)

func (s *server) serve(w http.ResponseWriter, r *http.Request, op string, run codecFunc) {
	escape, err := s.escape(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body := io.Reader(r.Body)
	if s.cfg.MaxBodyBytes > 0 {
		if r.ContentLength > s.cfg.MaxBodyBytes {
			http.Error(w, fmt.Sprintf("request body exceeds %d bytes", s.cfg.MaxBodyBytes), http.StatusRequestEntityTooLarge)
			return
		}
		body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}

	// HTTP/1.x stops reading the request once the response is flushed
	// unless full duplex is on.
	if err := http.NewResponseController(w).EnableFullDuplex(); err != nil {
		s.log.Debug("full duplex unavailable", "op", op, "error", err)
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Trailer", StatsHeader+", "+TruncatedTrailer+", "+ErrorTrailer)
	w.WriteHeader(http.StatusOK)

	out := bufio.NewWriterSize(w, s.cfg.BufferSize)
	stats, err := run(out, bufio.NewReaderSize(body, s.cfg.BufferSize), srle.WithEscape(escape))
	if flushErr := out.Flush(); err == nil {
		err = flushErr
	}

	w.Header().Set(StatsHeader, fmt.Sprintf("%d %d", stats.In, stats.Out))

	// The status line is gone; failures past this point go in trailers.
	switch {
	case errors.Is(err, srle.ErrTruncated):
		w.Header().Set(TruncatedTrailer, "true")
		s.log.Warn("truncated input", "op", op, "in", stats.In, "out", stats.Out)
	case err != nil:
		w.Header().Set(ErrorTrailer, err.Error())
		s.log.Error("stream failed", "op", op, "error", err, "in", stats.In, "out", stats.Out)
	default:
		s.log.Debug("stream complete", "op", op, "escape", fmt.Sprintf("%#02x", escape), "in", stats.In, "out", stats.Out)
	}
}

func (s *server) escape(r *http.Request) (byte, error) {
	q := r.URL.Query().Get("escape")
	if q == "" {
		return s.cfg.Escape, nil
	}
	return srle.ParseEscape(q)
}
