// Package table reads and writes tab-separated variant-call tables.
package table

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Encoding names the text encoding of a table on disk.
type Encoding string

// Supported encodings.
const (
	Latin1 Encoding = "latin1"
	UTF8   Encoding = "utf-8"
)

// ParseEncoding maps a user-supplied encoding name to an Encoding.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return Latin1, nil
	case "utf-8", "utf8", "":
		return UTF8, nil
	default:
		return "", fmt.Errorf("unsupported encoding %q (use latin1 or utf-8)", name)
	}
}

// decode wraps r so it yields UTF-8 text.
func (e Encoding) decode(r io.Reader) io.Reader {
	if e == Latin1 {
		return charmap.ISO8859_1.NewDecoder().Reader(r)
	}
	return r
}

// encode wraps w so UTF-8 text written to it is stored in e.
// Characters outside Latin-1 are replaced rather than failing the write.
// The returned closer, if any, flushes the encoder without closing w.
func (e Encoding) encode(w io.Writer) (io.Writer, io.Closer) {
	if e == Latin1 {
		tw := encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder()).Writer(w)
		if c, ok := tw.(io.Closer); ok {
			return tw, c
		}
		return tw, nil
	}
	return w, nil
}
