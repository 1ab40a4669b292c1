package srle_test

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/epithet-ssh/srle/pkg/srle"
	"github.com/stretchr/testify/require"
)

// plainWriter hides bytes.Buffer's WriteByte so the Writer has to buffer.
type plainWriter struct {
	buf    bytes.Buffer
	writes int
}

func (w *plainWriter) Write(p []byte) (int, error) {
	w.writes++
	return w.buf.Write(p)
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

// failingByteWriter accepts limit bytes, then fails.
type failingByteWriter struct {
	limit int
}

func (w *failingByteWriter) WriteByte(b byte) error {
	if w.limit == 0 {
		return errors.New("broken pipe")
	}
	w.limit--
	return nil
}

func (w *failingByteWriter) Write(p []byte) (int, error) {
	for i, b := range p {
		if err := w.WriteByte(b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

func TestWriter_RoundTrip(t *testing.T) {
	original := []byte("AAAA\xfa AAAAAAAAAAAAAAAAIASUHRISHDBGFJSHDFSAOSDOASDDDDASDOIJASGGG\xfa\xfa\xfa GGGGGIOSAIIIIIIIIII")

	var encoded bytes.Buffer
	w := srle.NewWriter(&encoded)
	_, err := io.Copy(w, bytes.NewReader(original))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	var decoded bytes.Buffer
	dw := srle.NewDecodingWriter(&decoded)
	_, err = dw.Write(encoded.Bytes())
	require.NoError(t, err)
	require.NoError(t, dw.Close())

	require.Equal(t, original, decoded.Bytes())
}

func TestWriter_HoldsFinalRunUntilClose(t *testing.T) {
	var out bytes.Buffer
	w := srle.NewWriter(&out)

	_, err := w.Write([]byte("xyyyyy"))
	require.NoError(t, err)
	require.Equal(t, "x", out.String())

	require.NoError(t, w.Close())
	require.Equal(t, "x\xfay\x05", out.String())
}

func TestWriter_BuffersPlainWriter(t *testing.T) {
	pw := &plainWriter{}
	w := srle.NewWriter(pw)

	_, err := w.Write([]byte(strings.Repeat("ab", 100)))
	require.NoError(t, err)
	require.Equal(t, 0, pw.writes, "expected output to be buffered")

	require.NoError(t, w.Close())
	require.Equal(t, 1, pw.writes)
	require.Equal(t, strings.Repeat("ab", 100), pw.buf.String())
}

func TestWriter_FlushKeepsStreamDecodable(t *testing.T) {
	var encoded bytes.Buffer
	w := srle.NewWriter(&encoded)

	_, err := w.Write([]byte("QQQQQQ"))
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	_, err = w.Write([]byte("QQQQQQ"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	var decoded bytes.Buffer
	_, err = srle.Decode(&decoded, bytes.NewReader(encoded.Bytes()))
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("Q", 12), decoded.String())
}

func TestWriter_CloseTwice(t *testing.T) {
	var out bytes.Buffer
	w := srle.NewWriter(&out)
	_, err := w.Write([]byte("zzzz"))
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	require.Equal(t, "\xfaz\x04", out.String())
}

func TestWriter_WriteAfterClose(t *testing.T) {
	w := srle.NewWriter(&bytes.Buffer{})
	require.NoError(t, w.Close())

	_, err := w.Write([]byte("a"))
	require.ErrorIs(t, err, srle.ErrClosed)
	require.ErrorIs(t, w.Flush(), srle.ErrClosed)
}

func TestWriter_UnderlyingErrorOnClose(t *testing.T) {
	w := srle.NewWriter(failingWriter{})

	_, err := w.Write([]byte("abc"))
	require.NoError(t, err, "output is still buffered")

	err = w.Close()
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk full")
}

func TestWriter_UnderlyingErrorIsSticky(t *testing.T) {
	w := srle.NewWriter(&failingByteWriter{limit: 2})

	_, err := w.Write([]byte("abcd"))
	require.Error(t, err)

	_, err = w.Write([]byte("e"))
	require.Error(t, err)
	require.Error(t, w.Close())
}

func TestWriter_Stats(t *testing.T) {
	var out bytes.Buffer
	w := srle.NewWriter(&out)
	_, err := w.Write(bytes.Repeat([]byte{'a'}, 100))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	stats := w.Stats()
	require.Equal(t, int64(100), stats.In)
	require.Equal(t, int64(3), stats.Out)
	require.InDelta(t, 0.03, stats.Ratio(), 1e-9)
}

func TestStats_RatioEmpty(t *testing.T) {
	require.Equal(t, 0.0, srle.Stats{}.Ratio())
}

func TestDecodingWriter_Truncated(t *testing.T) {
	var out bytes.Buffer
	dw := srle.NewDecodingWriter(&out)

	_, err := dw.Write([]byte("ab\xfaZ"))
	require.NoError(t, err)

	err = dw.Close()
	require.ErrorIs(t, err, srle.ErrTruncated)

	var te *srle.TruncatedError
	require.True(t, errors.As(err, &te))
	require.Equal(t, srle.PhaseSawEscapeAndByte, te.Phase)
	require.Equal(t, int64(4), te.Offset)

	require.Equal(t, "ab", out.String(), "bytes before the partial frame are kept")
}

func TestDecodingWriter_FrameAcrossWrites(t *testing.T) {
	var out bytes.Buffer
	dw := srle.NewDecodingWriter(&out)

	for _, b := range []byte("\xfaA\x06") {
		_, err := dw.Write([]byte{b})
		require.NoError(t, err)
	}
	require.NoError(t, dw.Close())
	require.Equal(t, "AAAAAA", out.String())
	require.Equal(t, srle.Stats{In: 3, Out: 6}, dw.Stats())
}

func TestDecodingWriter_WriteAfterClose(t *testing.T) {
	dw := srle.NewDecodingWriter(&bytes.Buffer{})
	require.NoError(t, dw.Close())

	_, err := dw.Write([]byte("a"))
	require.ErrorIs(t, err, srle.ErrClosed)
}

func TestEncodeDecode(t *testing.T) {
	original := append(bytes.Repeat([]byte{0}, 1000), []byte("tail\x1b\x1b")...)

	var encoded bytes.Buffer
	stats, err := srle.Encode(&encoded, bytes.NewReader(original), srle.WithEscape(0x1b))
	require.NoError(t, err)
	require.Equal(t, int64(len(original)), stats.In)
	require.Equal(t, int64(encoded.Len()), stats.Out)
	require.Less(t, stats.Out, stats.In)

	var decoded bytes.Buffer
	stats, err = srle.Decode(&decoded, bytes.NewReader(encoded.Bytes()), srle.WithEscape(0x1b))
	require.NoError(t, err)
	require.Equal(t, int64(encoded.Len()), stats.In)
	require.Equal(t, original, decoded.Bytes())
}

func TestEncode_Empty(t *testing.T) {
	var encoded bytes.Buffer
	stats, err := srle.Encode(&encoded, bytes.NewReader(nil))
	require.NoError(t, err)
	require.Equal(t, srle.Stats{}, stats)
	require.Equal(t, 0, encoded.Len())
}

func TestDecode_Truncated(t *testing.T) {
	var decoded bytes.Buffer
	_, err := srle.Decode(&decoded, bytes.NewReader([]byte("hi\xfa")))
	require.ErrorIs(t, err, srle.ErrTruncated)
	require.Equal(t, "hi", decoded.String())
}

func TestEncode_WriteError(t *testing.T) {
	_, err := srle.Encode(&failingByteWriter{limit: 1}, strings.NewReader("abcdef"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "broken pipe")
}

// brokenSource yields data, then fails with "connection reset".
func brokenSource(data string) *bufio.Reader {
	return bufio.NewReader(io.MultiReader(
		strings.NewReader(data),
		iotest.ErrReader(errors.New("connection reset")),
	))
}

func TestEncode_ReadErrorFlushesOpenRun(t *testing.T) {
	pw := &plainWriter{}
	stats, err := srle.Encode(pw, brokenSource("xyAAAAA"))
	require.ErrorContains(t, err, "connection reset")
	require.Equal(t, "xy\xfaA\x05", pw.buf.String())
	require.Equal(t, srle.Stats{In: 7, Out: 5}, stats)

	var decoded bytes.Buffer
	_, err = srle.Decode(&decoded, bytes.NewReader(pw.buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, "xyAAAAA", decoded.String())
}

func TestDecode_ReadErrorKeepsDecodedBytes(t *testing.T) {
	pw := &plainWriter{}
	stats, err := srle.Decode(pw, brokenSource("ab\xfaQ\x04"))
	require.ErrorContains(t, err, "connection reset")
	require.NotErrorIs(t, err, srle.ErrTruncated)
	require.Equal(t, "abQQQQ", pw.buf.String())
	require.Equal(t, srle.Stats{In: 5, Out: 6}, stats)
}
