package classfile

import (
	"unicode/utf16"
	"unicode/utf8"
)

// Class files store strings in "modified UTF-8": U+0000 is written as the two
// bytes C0 80 and supplementary characters as a surrogate pair, each half in
// three bytes. decodeMUTF8 passes through bytes it does not recognize, so
// lone surrogates and stray continuation bytes survive a round trip. Input
// that uses the standard four-byte form or a raw zero byte comes back in the
// modified form instead; it decodes to the same string, so from the second
// round trip on the bytes are stable.

func decodeMUTF8(b []byte) string {
	plain := true
	for _, c := range b {
		if c >= 0x80 {
			plain = false
			break
		}
	}
	if plain {
		return string(b)
	}

	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c == 0xC0 && i+1 < len(b) && b[i+1] == 0x80:
			out = append(out, 0)
			i += 2
		case c&0xF0 == 0xE0 && i+2 < len(b):
			hi := surrogateAt(b, i)
			if hi >= 0xD800 && hi <= 0xDBFF && i+5 < len(b) {
				lo := surrogateAt(b, i+3)
				if lo >= 0xDC00 && lo <= 0xDFFF {
					out = utf8.AppendRune(out, utf16.DecodeRune(rune(hi), rune(lo)))
					i += 6
					continue
				}
			}
			out = append(out, b[i:i+3]...)
			i += 3
		default:
			out = append(out, c)
			i++
		}
	}
	return string(out)
}

// surrogateAt decodes a three-byte sequence at b[i] without rejecting
// surrogate code points. It returns -1 if the bytes are not a three-byte form.
func surrogateAt(b []byte, i int) int {
	if b[i]&0xF0 != 0xE0 || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
		return -1
	}
	return int(b[i]&0x0F)<<12 | int(b[i+1]&0x3F)<<6 | int(b[i+2]&0x3F)
}

func encodeMUTF8(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == 0:
			out = append(out, 0xC0, 0x80)
			i++
		case c&0xF8 == 0xF0:
			r, size := utf8.DecodeRuneInString(s[i:])
			if r == utf8.RuneError || size != 4 {
				out = append(out, c)
				i++
				continue
			}
			hi, lo := utf16.EncodeRune(r)
			out = appendThreeByte(out, int(hi))
			out = appendThreeByte(out, int(lo))
			i += 4
		default:
			out = append(out, c)
			i++
		}
	}
	return out
}

func appendThreeByte(out []byte, cp int) []byte {
	return append(out,
		byte(0xE0|(cp>>12)&0x0F),
		byte(0x80|(cp>>6)&0x3F),
		byte(0x80|cp&0x3F))
}
