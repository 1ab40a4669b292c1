// Package srle implements streaming run-length encoding and decoding.
//
// The encoder looks for runs of a single repeated byte. Short runs are
// passed through verbatim; long runs are replaced by a three byte frame
// introduced by an escape byte:
//
//	<escape> <byte> <count>
//
// Where <count> is the run length, 1 to 255. Runs longer than 255 bytes are
// split across several frames.
//
// # Examples
//
// With the default escape byte 0xFA:
//
//	"ABCDEFG"          -> "ABCDEFG"             // no run longer than 3
//	"ABCDEFAAAAAAAA"   -> "ABCDEF\xfaA\x08"     // 8 A's become one frame
//	"AAAA\xfa"         -> "\xfaA\x04\xfa\xfa\x01"
//
// The escape byte never appears literally in encoded output. Every run of
// it, even a run of one, is framed, so the decoder can treat any escape
// byte it sees as the start of a frame.
//
// # Basic Usage
//
// The core Encoder and Decoder push every byte they produce into a
// ByteSink as soon as it is known:
//
//	var out []byte
//	enc := srle.NewEncoder(func(b byte) { out = append(out, b) })
//	enc.IngestBuffer(data)
//	enc.Flush() // emit the run still open at end of input
//
//	dec := srle.NewDecoder(func(b byte) { plain = append(plain, b) })
//	dec.IngestBuffer(out)
//
// For io plumbing use Writer, DecodingWriter, Encode and Decode:
//
//	w := srle.NewWriter(f, srle.WithEscape(0x1B))
//	io.Copy(w, src)
//	w.Close() // flushes the open run
//
// # Flushing
//
// The encoder holds at most one open run. Nothing marks the end of a
// stream, so the caller must call Flush (or Close on a Writer) after the
// last input byte. An unflushed final run is lost.
//
// The decoder has no flush. A complete encoded stream always leaves it at
// rest; if input stops in the middle of a frame the decoder simply waits
// for more bytes.
//
// # Concurrency
//
// Encoders and decoders are not safe for concurrent use. Use one instance
// per stream. A ByteSink is called synchronously and must not call back
// into the instance that invoked it.
package srle
