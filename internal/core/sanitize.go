package core

import (
	"bytes"
	"unicode/utf8"
)

// utf8BOM is written by Excel and other Windows tools at the start of CSVs.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NormalizeText prepares uploaded bytes for import: strips a leading BOM,
// replaces invalid UTF-8 with U+FFFD and converts CRLF/CR line endings to LF.
func NormalizeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	data = sanitizeUTF8(data)
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	data = bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))
	return string(data)
}

// sanitizeUTF8 replaces invalid UTF-8 bytes with the replacement character.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('\uFFFD')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}
