package gedcom

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Charset names accepted by WithCharset.
const (
	CharsetAuto = "auto"
	CharsetUTF8 = "utf-8"
	CharsetANSI = "ansi"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decodeInput reads the whole stream and returns it as UTF-8 without a
// byte-order mark. A BOM always wins over the requested charset.
func decodeInput(r io.Reader, charset string) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read gedcom: %w", err)
	}

	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return data[len(bomUTF8):], nil
	case bytes.HasPrefix(data, bomUTF16LE), bytes.HasPrefix(data, bomUTF16BE):
		out, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode utf-16: %w", err)
		}
		return out, nil
	}

	switch normalizeCharset(charset) {
	case CharsetAuto:
		if utf8.Valid(data) {
			return data, nil
		}
		return decodeANSI(data)
	case CharsetUTF8:
		return data, nil
	case CharsetANSI:
		return decodeANSI(data)
	default:
		return nil, fmt.Errorf("unsupported charset: %s", charset)
	}
}

func decodeANSI(data []byte) ([]byte, error) {
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode windows-1252: %w", err)
	}
	return out, nil
}

func normalizeCharset(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return CharsetAuto
	case "utf-8", "utf8", "unicode", "ascii":
		return CharsetUTF8
	case "ansi", "windows-1252", "cp1252":
		return CharsetANSI
	}
	return name
}
