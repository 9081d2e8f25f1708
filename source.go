package abcscore

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeSource converts raw ABC bytes to a string. A %%abc-charset line in
// the data wins over fallback. Input that is valid UTF-8 is used as is when
// no other charset is named; anything else defaults to ISO-8859-1.
func DecodeSource(data []byte, fallback string) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	name := sniffCharset(data)
	if name == "" {
		name = fallback
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "utf-8" || name == "utf8" || (name == "" && utf8.Valid(data)) {
		return string(data), nil
	}
	enc, err := lookupEncoding(name)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	return string(out), nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch name {
	case "", "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q", name)
	}
	return enc, nil
}

// sniffCharset finds a %%abc-charset directive. Charset names are ASCII,
// so this works before the data is decoded.
func sniffCharset(data []byte) string {
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if rest, ok := bytes.CutPrefix(line, []byte("%%abc-charset")); ok {
			return string(bytes.TrimSpace(rest))
		}
		if rest, ok := bytes.CutPrefix(line, []byte("I:abc-charset")); ok {
			return string(bytes.TrimSpace(rest))
		}
	}
	return ""
}
