package srle

// Phase is the position of a Decoder within an escape frame.
type Phase int

const (
	// PhaseNormal is outside any frame. It is the initial phase and the
	// only phase in which input may safely stop.
	PhaseNormal Phase = iota
	// PhaseSawEscape has consumed the escape byte of a frame.
	PhaseSawEscape
	// PhaseSawEscapeAndByte has consumed the escape byte and the data
	// byte, and waits for the count.
	PhaseSawEscapeAndByte
)

func (p Phase) String() string {
	switch p {
	case PhaseNormal:
		return "normal"
	case PhaseSawEscape:
		return "saw-escape"
	case PhaseSawEscapeAndByte:
		return "saw-escape-and-byte"
	default:
		return "unknown"
	}
}

// Ingest processes one byte of an encoded stream.
//
// Every byte is valid in every phase, so Ingest cannot fail. A completed
// frame emits its byte count times; a count of 0 emits nothing.
func (d *Decoder) Ingest(b byte) {
	switch d.phase {
	case PhaseNormal:
		if b == d.escape {
			d.phase = PhaseSawEscape
			return
		}
		d.sink(b)
	case PhaseSawEscape:
		d.pending = b
		d.phase = PhaseSawEscapeAndByte
	case PhaseSawEscapeAndByte:
		for i := 0; i < int(b); i++ {
			d.sink(d.pending)
		}
		d.phase = PhaseNormal
	}
}

// IngestBuffer processes every byte of p in order.
func (d *Decoder) IngestBuffer(p []byte) {
	for _, b := range p {
		d.Ingest(b)
	}
}

// Phase returns the decoder's current phase.
func (d *Decoder) Phase() Phase {
	return d.phase
}

// AtRest reports whether the decoder is between frames. Input that stops
// while AtRest is false ended in the middle of a frame.
func (d *Decoder) AtRest() bool {
	return d.phase == PhaseNormal
}
