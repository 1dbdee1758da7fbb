package search

import (
	"unicode"

	"github.com/mozillazg/go-pinyin"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer maps buffer text and queries into the alphabet used for
// comparison. Every rune maps to exactly one rune so offsets in the
// normalized text line up with offsets in the original text.
type Normalizer struct {
	CaseSensitive bool
	MapToASCII    bool
}

// Runes normalizes a whole string
func (n Normalizer) Runes(s string) []rune {
	out := []rune(s)
	for i, r := range out {
		out[i] = n.Rune(r)
	}
	return out
}

// Rune normalizes a single rune
func (n Normalizer) Rune(r rune) rune {
	if n.MapToASCII && r >= utf8RuneSelf {
		r = toASCII(r)
	}
	if !n.CaseSensitive {
		r = unicode.ToLower(r)
	}
	return r
}

const utf8RuneSelf = 0x80

var pinyinArgs = pinyin.NewArgs()

// toASCII returns the base-alphabet rune a user would type for r:
// the first pinyin letter for Han characters, the first romaji letter
// for kana, and the unaccented letter for Latin text with diacritics.
func toASCII(r rune) rune {
	switch {
	case unicode.Is(unicode.Han, r):
		if py := pinyin.SinglePinyin(r, pinyinArgs); len(py) > 0 && py[0] != "" {
			return rune(py[0][0])
		}
		return r
	case unicode.Is(unicode.Hiragana, r), unicode.Is(unicode.Katakana, r):
		return kanaInitial(r)
	}

	if base, ok := specialLatin[r]; ok {
		return base
	}
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn))), string(r))
	if err != nil {
		return r
	}
	if rs := []rune(stripped); len(rs) == 1 && rs[0] < utf8RuneSelf {
		return rs[0]
	}
	return r
}

// Latin letters without a canonical decomposition
var specialLatin = map[rune]rune{
	'ø': 'o', 'Ø': 'O',
	'ł': 'l', 'Ł': 'L',
	'đ': 'd', 'Đ': 'D',
	'ß': 's',
	'æ': 'a', 'Æ': 'A',
	'œ': 'o', 'Œ': 'O',
	'ı': 'i',
}

const (
	hiraganaFirst = 0x3041
	hiraganaLast  = 0x3096
	katakanaShift = 0x60
)

// Hepburn initials for U+3041..U+3096 in code point order
var kanaInitials = []rune("aaiiuueeoo" +
	"kgkgkgkgkg" +
	"szsjszszsz" +
	"tdcdttztdtd" +
	"nnnnn" +
	"hbphbpfbphbphbp" +
	"mmmmm" +
	"yyyyyy" +
	"rrrrr" +
	"wwwwwnvkk")

func kanaInitial(r rune) rune {
	if r >= hiraganaFirst+katakanaShift && r <= hiraganaLast+katakanaShift {
		r -= katakanaShift
	}
	if r < hiraganaFirst || r > hiraganaLast {
		return r
	}
	return kanaInitials[r-hiraganaFirst]
}
