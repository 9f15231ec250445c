package importer

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Encoding names the character set of an input file.
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingShiftJIS    Encoding = "shift_jis"
	EncodingWindows1252 Encoding = "windows-1252"
)

var encodingAliases = map[string]Encoding{
	"":             EncodingUTF8,
	"utf8":         EncodingUTF8,
	"utf-8":        EncodingUTF8,
	"sjis":         EncodingShiftJIS,
	"shift_jis":    EncodingShiftJIS,
	"shift-jis":    EncodingShiftJIS,
	"cp932":        EncodingShiftJIS,
	"windows-1252": EncodingWindows1252,
	"cp1252":       EncodingWindows1252,
	"latin1":       EncodingWindows1252,
}

// ParseEncoding converts a user supplied name into an Encoding.
func ParseEncoding(value string) (Encoding, error) {
	enc, ok := encodingAliases[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return "", fmt.Errorf("unsupported encoding %q", value)
	}
	return enc, nil
}

func (e Encoding) decoder() encoding.Encoding {
	switch e {
	case EncodingShiftJIS:
		return japanese.ShiftJIS
	case EncodingWindows1252:
		return charmap.Windows1252
	default:
		return nil
	}
}

// decode wraps r so it yields UTF-8 with any leading byte order mark removed.
func decode(r io.Reader, enc Encoding) io.Reader {
	if dec := enc.decoder(); dec != nil {
		r = transform.NewReader(r, dec.NewDecoder())
	}
	return skipBOM(r)
}

func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if peeked, err := br.Peek(3); err == nil && string(peeked) == "\xEF\xBB\xBF" {
		_, _ = br.Discard(3)
	}
	return br
}
