package core

import "strings"

// ParseLine splits one CSV line into trimmed field values.
//
// A comma outside quotes ends a field. Inside quotes a doubled quote is a
// literal quote. An unterminated quote is tolerated and the rest of the line
// is taken literally. The result always has at least one element.
func ParseLine(line string) []string {
	fields := make([]string, 0, strings.Count(line, ",")+1)

	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"' && inQuotes && i+1 < len(line) && line[i+1] == '"':
			cur.WriteByte('"')
			i++
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}

	return append(fields, strings.TrimSpace(cur.String()))
}

// splitLines normalizes line endings and splits text into lines.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// isBlankRow reports whether every field is empty.
func isBlankRow(fields []string) bool {
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}
