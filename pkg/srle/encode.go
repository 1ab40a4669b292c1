package srle

// Ingest processes one input byte.
//
// Output for a run is emitted only once the run is closed, by a different
// byte, by reaching MaxRun, or by Flush.
func (e *Encoder) Ingest(b byte) {
	// Nothing open yet
	if e.count == 0 {
		e.pending = b
		e.count = 1
		return
	}

	// Ongoing run
	if b == e.pending {
		e.count++
		// The count field is one byte
		if e.count >= MaxRun {
			e.Flush()
		}
		return
	}

	e.Flush()
	e.pending = b
	e.count = 1
}

// IngestBuffer processes every byte of p in order.
//
// It is equivalent to calling Ingest for each byte. Call Flush after the
// last buffer of a stream.
func (e *Encoder) IngestBuffer(p []byte) {
	for _, b := range p {
		e.Ingest(b)
	}
}

// IngestString processes the bytes of s up to, not including, the first
// NUL byte.
func (e *Encoder) IngestString(s string) {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return
		}
		e.Ingest(s[i])
	}
}

// Flush emits the open run, if any, and resets the encoder to the no-run
// state. Calling Flush with no open run does nothing.
//
// A run is written as a frame when it is longer than three bytes or when
// it is a run of the escape byte. Otherwise its bytes are written as-is.
func (e *Encoder) Flush() {
	if e.count == 0 {
		return
	}

	if e.count > maxLiteralRun || e.pending == e.escape {
		e.sink(e.escape)
		e.sink(e.pending)
		e.sink(byte(e.count))
	} else {
		for i := 0; i < e.count; i++ {
			e.sink(e.pending)
		}
	}

	e.count = 0
}

// Pending returns the length of the run not yet emitted, 0 if none.
func (e *Encoder) Pending() int {
	return e.count
}
