package utils

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// LookupEncoding resolves a WHATWG encoding label such as "utf-8",
// "windows-1252" or "latin1". Note that the WHATWG index maps "latin1" and
// "iso-8859-1" to windows-1252.
func LookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", name, err)
	}
	return enc, nil
}

// IsUTF8 reports whether enc is UTF-8.
func IsUTF8(enc encoding.Encoding) bool {
	name, err := htmlindex.Name(enc)
	return err == nil && name == "utf-8"
}

// DecodeReader returns r decoded from enc into UTF-8. A leading byte order
// mark is honoured and removed whatever enc is.
func DecodeReader(r io.Reader, enc encoding.Encoding) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder()))
}

// EncodeWriter returns a writer that encodes UTF-8 text into enc. The
// returned closer flushes buffered output and must be called. For UTF-8 it
// writes through unchanged.
func EncodeWriter(w io.Writer, enc encoding.Encoding) io.WriteCloser {
	if IsUTF8(enc) {
		return nopCloser{w}
	}
	return transform.NewWriter(w, enc.NewEncoder())
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
