package srle_test

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/epithet-ssh/srle/pkg/srle"
)

func ExampleEncoder() {
	var out []byte
	enc := srle.NewEncoder(func(b byte) { out = append(out, b) })

	enc.IngestString("ABCDEFAAAAAAAA")
	enc.Flush()

	fmt.Printf("%q\n", out)
	// Output: "ABCDEF\xfaA\b"
}

func ExampleEncoder_Flush() {
	var out []byte
	enc := srle.NewEncoder(func(b byte) { out = append(out, b) })

	enc.IngestString("AAAA\xfa")
	fmt.Printf("% x\n", out)

	enc.Flush()
	fmt.Printf("% x\n", out)
	// Output:
	// fa 41 04
	// fa 41 04 fa fa 01
}

func ExampleDecoder() {
	var out []byte
	dec := srle.NewDecoder(func(b byte) { out = append(out, b) })

	dec.IngestBuffer([]byte("ABCDEF\xfaA\x08"))

	fmt.Println(string(out), dec.AtRest())
	// Output: ABCDEFAAAAAAAA true
}

func ExampleWriter() {
	var encoded bytes.Buffer
	w := srle.NewWriter(&encoded, srle.WithEscape('#'))

	fmt.Fprint(w, "hello.........world#")
	w.Close()

	fmt.Printf("%q\n", encoded.String())
	// Output: "hello#.\tworld##\x01"
}

func ExampleDecode() {
	encoded := strings.NewReader("hello#.\tworld##\x01")

	srle.Decode(os.Stdout, encoded, srle.WithEscape('#'))
	// Output: hello.........world#
}
