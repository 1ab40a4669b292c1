package srle

// ByteSink receives output bytes one at a time, in order.
//
// It is called synchronously from Ingest and Flush and must not re-enter
// the Encoder or Decoder that called it.
type ByteSink func(b byte)

// Encoder run-length encodes a byte stream into a ByteSink.
//
// The encoder buffers nothing beyond the run currently being counted:
//
//	enc := srle.NewEncoder(sink)
//	enc.IngestBuffer(data)
//	enc.Flush()
type Encoder struct {
	sink    ByteSink
	escape  byte
	pending byte // byte of the open run
	count   int  // length of the open run, 0 when no run is open
}

// NewEncoder creates an encoder that writes encoded bytes to sink.
//
// The escape byte defaults to DefaultEscape and can be changed with
// WithEscape. It is fixed for the lifetime of the encoder.
func NewEncoder(sink ByteSink, opts ...Option) *Encoder {
	cfg := newConfig(opts)
	return &Encoder{
		sink:   sink,
		escape: cfg.escape,
	}
}

// Escape returns the escape byte used by the encoder.
func (e *Encoder) Escape() byte {
	return e.escape
}

// Decoder expands a stream produced by an Encoder into a ByteSink.
//
// It must be configured with the same escape byte as the encoder. The
// decoder can be fed any split of the encoded stream, down to one byte
// per call; a partially received frame is carried in its phase.
type Decoder struct {
	sink    ByteSink
	escape  byte
	phase   Phase
	pending byte // frame data byte, valid in PhaseSawEscapeAndByte
}

// NewDecoder creates a decoder that writes decoded bytes to sink.
func NewDecoder(sink ByteSink, opts ...Option) *Decoder {
	cfg := newConfig(opts)
	return &Decoder{
		sink:   sink,
		escape: cfg.escape,
		phase:  PhaseNormal,
	}
}

// Escape returns the escape byte used by the decoder.
func (d *Decoder) Escape() byte {
	return d.escape
}
