package tokenize

import "unicode"

// Character classes shared by the regex rules. They mirror the Perl
// IsAlpha / IsAlnum / IsN properties: letters include combining marks.
const (
	classAlpha = `\p{L}\p{M}`
	classNum   = `\p{N}`
	classAlnum = classAlpha + classNum
)

func isAlpha(r rune) bool { return unicode.IsLetter(r) || unicode.IsMark(r) }

func hasAlpha(s string) bool {
	for _, r := range s {
		if isAlpha(r) {
			return true
		}
	}
	return false
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func lastRune(s string) rune {
	var last rune
	for _, r := range s {
		last = r
	}
	return last
}

// cjk covers Hangul Jamo, the CJK blocks, Hangul syllables, compatibility
// ideographs, CJK compatibility forms, half-width forms and the
// supplementary ideographic planes.
var cjk = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x1100, Hi: 0x11ff, Stride: 1},
		{Lo: 0x2e80, Hi: 0xa4cf, Stride: 1},
		{Lo: 0xa840, Hi: 0xa87f, Stride: 1},
		{Lo: 0xac00, Hi: 0xd7af, Stride: 1},
		{Lo: 0xf900, Hi: 0xfaff, Stride: 1},
		{Lo: 0xfe30, Hi: 0xfe4f, Stride: 1},
		{Lo: 0xff65, Hi: 0xffdc, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x20000, Hi: 0x2ffff, Stride: 1},
	},
}

func isCJK(r rune) bool { return unicode.Is(cjk, r) }
