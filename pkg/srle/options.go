package srle

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultEscape is the escape byte used when none is configured.
	DefaultEscape byte = 0xFA

	// MaxRun is the longest run a single frame can describe. The count
	// field is one byte and 0 is never emitted.
	MaxRun = 255

	// maxLiteralRun is the longest run written verbatim. A frame costs
	// three bytes, so it only pays off from four repeats on.
	maxLiteralRun = 3
)

// config holds encoder and decoder configuration.
type config struct {
	escape byte
}

func newConfig(opts []Option) *config {
	cfg := &config{escape: DefaultEscape}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Option configures an Encoder or Decoder.
type Option func(*config)

// WithEscape sets the escape byte that introduces a frame.
//
// Encoder and decoder must agree on this value; it is not recorded in the
// encoded stream.
//
// Default: 0xFA
func WithEscape(b byte) Option {
	return func(c *config) {
		c.escape = b
	}
}

// ParseEscape parses an escape byte given as a decimal, hex ("0xFA"),
// octal ("0372") or binary ("0b11111010") number.
func ParseEscape(s string) (byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("srle: empty escape byte")
	}
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("srle: invalid escape byte %q: must be a number in 0..255", s)
	}
	return byte(n), nil
}
