package text

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// unquote decodes the escapes of a string token: \n \t \r \\ \" \' and
// \XX hex bytes, plus \u{X...} code points. The result must be valid UTF-8.
func unquote(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			return "", fmt.Errorf("dangling escape")
		}
		i++
		switch c := s[i]; {
		case c == 'n':
			b.WriteByte('\n')
		case c == 't':
			b.WriteByte('\t')
		case c == 'r':
			b.WriteByte('\r')
		case c == '\\' || c == '"' || c == '\'':
			b.WriteByte(c)
		case c == 'u':
			end := strings.IndexByte(s[i:], '}')
			if i+1 >= len(s) || s[i+1] != '{' || end < 0 {
				return "", fmt.Errorf("malformed \\u escape")
			}
			var r rune
			for _, h := range s[i+2 : i+end] {
				if h == '_' {
					continue
				}
				v, ok := hexValue(byte(h))
				if !ok || r > utf8.MaxRune>>4 {
					return "", fmt.Errorf("malformed \\u escape")
				}
				r = r<<4 | rune(v)
			}
			if !utf8.ValidRune(r) {
				return "", fmt.Errorf("invalid code point U+%X", r)
			}
			b.WriteRune(r)
			i += end
		default:
			hi, ok1 := hexValue(c)
			if i+1 >= len(s) {
				return "", fmt.Errorf("unknown escape \\%c", c)
			}
			lo, ok2 := hexValue(s[i+1])
			if !ok1 || !ok2 {
				return "", fmt.Errorf("unknown escape \\%c", c)
			}
			b.WriteByte(hi<<4 | lo)
			i++
		}
	}
	out := b.String()
	if !utf8.ValidString(out) {
		return "", fmt.Errorf("string is not valid UTF-8")
	}
	return out, nil
}

// quote renders s as a string token that unquote maps back to s.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '"' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == utf8.RuneError && size == 1, r < 0x20, r == 0x7f:
			fmt.Fprintf(&b, `\%02x`, s[i])
		default:
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	b.WriteByte('"')
	return b.String()
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
