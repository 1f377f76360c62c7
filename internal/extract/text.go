package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// textExtensions are decoded as plain text and are eligible for content matching.
var textExtensions = map[string]struct{}{
	".txt": {}, ".md": {}, ".py": {}, ".js": {}, ".html": {}, ".css": {}, ".json": {},
	".xml": {}, ".csv": {}, ".log": {}, ".sh": {}, ".yaml": {}, ".yml": {},
}

// IsPlainText reports whether ext (with leading dot, any case) is a plain-text extension.
func IsPlainText(ext string) bool {
	_, ok := textExtensions[strings.ToLower(ext)]
	return ok
}

// DecodeText turns arbitrary bytes into valid UTF-8.
// A UTF-16 byte order mark selects UTF-16; a UTF-8 one is stripped.
// Ill-formed sequences are dropped while genuine U+FFFD characters are
// kept. It never fails.
func DecodeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)

	// transformers carry state, build a fresh one per call
	out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	if err != nil {
		out = data
	}
	return strings.ToValidUTF8(string(out), "")
}

// truncateRunes caps s at limit characters and reports whether it was longer.
func truncateRunes(s string, limit int) (string, bool) {
	if limit < 0 || utf8.RuneCountInString(s) <= limit {
		return s, false
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i], true
		}
		n++
	}
	return s, false
}

// TruncateAttachment caps document text at limit characters and appends marker
// when anything was cut.
func TruncateAttachment(text string, limit int, marker string) (string, bool) {
	cut, truncated := truncateRunes(text, limit)
	if !truncated {
		return text, false
	}
	return cut + marker, true
}
