// Package hexfmt renders byte rows the way the viewer tools display them:
// eight-digit addresses, two-digit bytes and a text column.
package hexfmt

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
)

// Charset selects how the text column decodes bytes.
type Charset string

const (
	ASCII       Charset = "ascii"
	CP437       Charset = "cp437"
	Windows1252 Charset = "windows-1252"
	Latin1      Charset = "latin1"
)

// Charsets lists the accepted charset names.
var Charsets = []Charset{ASCII, CP437, Windows1252, Latin1}

// ParseCharset validates a charset name; empty selects ASCII.
func ParseCharset(name string) (Charset, error) {
	if name == "" {
		return ASCII, nil
	}
	cs := Charset(strings.ToLower(name))
	for _, known := range Charsets {
		if cs == known {
			return cs, nil
		}
	}
	return "", fmt.Errorf("hexfmt: unknown charset %q", name)
}

func (c Charset) charmap() *charmap.Charmap {
	switch c {
	case CP437:
		return charmap.CodePage437
	case Windows1252:
		return charmap.Windows1252
	case Latin1:
		return charmap.ISO8859_1
	}
	return nil
}

// Glyph returns the text-column character for b. Non-printable bytes
// render as '.'.
func (c Charset) Glyph(b byte) rune {
	cm := c.charmap()
	if cm == nil {
		if b >= 32 && b <= 126 {
			return rune(b)
		}
		return '.'
	}
	if b < 32 || b == 0x7F {
		return '.'
	}
	r := cm.DecodeByte(b)
	if r == unicode.ReplacementChar || !unicode.IsPrint(r) {
		return '.'
	}
	return r
}

// Text renders data as a text column.
func (c Charset) Text(data []byte) string {
	var b strings.Builder
	b.Grow(len(data))
	for _, v := range data {
		b.WriteRune(c.Glyph(v))
	}
	return b.String()
}

// Address formats an address as eight upper-case hex digits.
func Address(addr int64) string {
	return fmt.Sprintf("%08X", addr)
}

// Byte formats one byte as two upper-case hex digits.
func Byte(b byte) string {
	const digits = "0123456789ABCDEF"
	return string([]byte{digits[b>>4], digits[b&0x0F]})
}

// Size formats a byte count for humans (B, KB, MB, GB).
func Size(n int64) string {
	switch {
	case n < 1<<10:
		return fmt.Sprintf("%d B", n)
	case n < 1<<20:
		return fmt.Sprintf("%.2f KB", float64(n)/(1<<10))
	case n < 1<<30:
		return fmt.Sprintf("%.2f MB", float64(n)/(1<<20))
	default:
		return fmt.Sprintf("%.2f GB", float64(n)/(1<<30))
	}
}
