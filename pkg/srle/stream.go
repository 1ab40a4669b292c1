package srle

import (
	"bufio"
	"errors"
	"io"
)

// Stats counts the bytes that went into and came out of a stream.
type Stats struct {
	In  int64
	Out int64
}

// Ratio returns Out/In, or 0 for an empty stream.
func (s Stats) Ratio() float64 {
	if s.In == 0 {
		return 0
	}
	return float64(s.Out) / float64(s.In)
}

// byteSink adapts an io.Writer to a ByteSink. The first write error is
// kept and every later byte is dropped.
type byteSink struct {
	bw  io.ByteWriter
	buf *bufio.Writer // set when the sink owns the buffering
	out int64
	err error
}

func newByteSink(w io.Writer) *byteSink {
	if bw, ok := w.(io.ByteWriter); ok {
		return &byteSink{bw: bw}
	}
	buf := bufio.NewWriter(w)
	return &byteSink{bw: buf, buf: buf}
}

func (s *byteSink) put(b byte) {
	if s.err != nil {
		return
	}
	if err := s.bw.WriteByte(b); err != nil {
		s.err = err
		return
	}
	s.out++
}

func (s *byteSink) flush() error {
	if s.err != nil {
		return s.err
	}
	if s.buf != nil {
		s.err = s.buf.Flush()
	}
	return s.err
}

// Writer encodes everything written to it into an underlying io.Writer.
//
// If the underlying writer implements io.ByteWriter (*bufio.Writer,
// *bytes.Buffer) bytes go straight to it and flushing it is up to the
// caller. Otherwise the Writer buffers internally and flushes on Flush and
// Close.
//
// Close must be called after the last Write, or the final run is lost.
type Writer struct {
	enc    *Encoder
	sink   *byteSink
	in     int64
	closed bool
}

// NewWriter creates a Writer that writes the encoding of its input to w.
func NewWriter(w io.Writer, opts ...Option) *Writer {
	sink := newByteSink(w)
	return &Writer{
		enc:  NewEncoder(sink.put, opts...),
		sink: sink,
	}
}

// Write encodes p. Output for the run at the end of p is held back until
// a later Write closes it, or until Flush or Close.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	if w.sink.err != nil {
		return 0, w.sink.err
	}
	w.enc.IngestBuffer(p)
	w.in += int64(len(p))
	if w.sink.err != nil {
		return 0, w.sink.err
	}
	return len(p), nil
}

// Flush emits the open run and flushes any internal buffer. The stream
// stays open; a run interrupted by Flush is encoded as two runs, which
// decode to the same bytes.
func (w *Writer) Flush() error {
	if w.closed {
		return ErrClosed
	}
	w.enc.Flush()
	return w.sink.flush()
}

// Close emits the open run and flushes any internal buffer. It does not
// close the underlying writer. Closing twice is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.enc.Flush()
	w.closed = true
	return w.sink.flush()
}

// Stats returns the byte counts so far.
func (w *Writer) Stats() Stats {
	return Stats{In: w.in, Out: w.sink.out}
}

// DecodingWriter decodes everything written to it into an underlying
// io.Writer. Buffering follows the same rules as Writer.
type DecodingWriter struct {
	dec    *Decoder
	sink   *byteSink
	in     int64
	closed bool
}

// NewDecodingWriter creates a DecodingWriter that writes the decoding of
// its input to w.
func NewDecodingWriter(w io.Writer, opts ...Option) *DecodingWriter {
	sink := newByteSink(w)
	return &DecodingWriter{
		dec:  NewDecoder(sink.put, opts...),
		sink: sink,
	}
}

// Write decodes p. A frame split across writes is completed by the
// following write.
func (w *DecodingWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	if w.sink.err != nil {
		return 0, w.sink.err
	}
	w.dec.IngestBuffer(p)
	w.in += int64(len(p))
	if w.sink.err != nil {
		return 0, w.sink.err
	}
	return len(p), nil
}

// Close flushes any internal buffer. If the input stopped in the middle
// of a frame it returns a *TruncatedError; everything decoded before the
// partial frame has still been written.
func (w *DecodingWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.sink.flush(); err != nil {
		return err
	}
	if !w.dec.AtRest() {
		return &TruncatedError{Phase: w.dec.Phase(), Offset: w.in}
	}
	return nil
}

// Stats returns the byte counts so far.
func (w *DecodingWriter) Stats() Stats {
	return Stats{In: w.in, Out: w.sink.out}
}

// Encode reads src to EOF one byte at a time, encodes it to dst and
// flushes the final run.
//
// If reading src fails, the run open at that point is still flushed, so
// dst holds the complete encoding of every byte read, and the read error
// is returned.
//
// src is typically a *bufio.Reader or *bytes.Reader:
//
//	stats, err := srle.Encode(os.Stdout, bufio.NewReader(f))
func Encode(dst io.Writer, src io.ByteReader, opts ...Option) (Stats, error) {
	w := NewWriter(dst, opts...)
	for {
		b, err := src.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			if cerr := w.Close(); cerr != nil {
				err = errors.Join(err, cerr)
			}
			return w.Stats(), err
		}
		w.enc.Ingest(b)
		w.in++
		if w.sink.err != nil {
			return w.Stats(), w.sink.err
		}
	}
	err := w.Close()
	return w.Stats(), err
}

// Decode reads an encoded stream from src to EOF one byte at a time and
// writes the decoded bytes to dst.
//
// If src ends in the middle of a frame, Decode returns a *TruncatedError
// after writing everything before the partial frame. A read error from src
// is returned as is, after the bytes decoded so far have been written.
func Decode(dst io.Writer, src io.ByteReader, opts ...Option) (Stats, error) {
	w := NewDecodingWriter(dst, opts...)
	for {
		b, err := src.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			w.closed = true
			if ferr := w.sink.flush(); ferr != nil {
				err = errors.Join(err, ferr)
			}
			return w.Stats(), err
		}
		w.dec.Ingest(b)
		w.in++
		if w.sink.err != nil {
			return w.Stats(), w.sink.err
		}
	}
	err := w.Close()
	return w.Stats(), err
}
