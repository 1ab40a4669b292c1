package srle

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrTruncated indicates an encoded stream ended in the middle of a frame.
	ErrTruncated = errors.New("srle: truncated frame")

	// ErrClosed indicates a write to a Writer or DecodingWriter after Close.
	ErrClosed = errors.New("srle: write after close")
)

// TruncatedError reports how far into a frame an encoded stream stopped.
type TruncatedError struct {
	Phase  Phase // Decoder phase when input ended
	Offset int64 // Number of encoded bytes consumed
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("srle: truncated frame at offset %d (phase %s)", e.Offset, e.Phase)
}

func (e *TruncatedError) Unwrap() error {
	return ErrTruncated
}
