package buffers

import "unicode"

// IsWordRune reports whether r counts as part of an identifier-like word
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// WordAt returns the bounds [start, end) of the word containing offset.
// ok is false when the rune at offset is not a word rune.
func WordAt(text []rune, offset int) (start, end int, ok bool) {
	if offset < 0 || offset >= len(text) || !IsWordRune(text[offset]) {
		return offset, offset, false
	}

	start = offset
	for start > 0 && IsWordRune(text[start-1]) {
		start--
	}
	end = offset
	for end < len(text) && IsWordRune(text[end]) {
		end++
	}
	return start, end, true
}

// HasAt reports whether needle occurs in text starting at offset at
func HasAt(text []rune, at int, needle []rune) bool {
	if at < 0 || at+len(needle) > len(text) {
		return false
	}
	for j, r := range needle {
		if text[at+j] != r {
			return false
		}
	}
	return true
}

// LineStarts returns the rune offset at which every line begins
func LineStarts(text []rune) []int {
	starts := []int{0}
	for i, r := range text {
		if r == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// LineOf returns the zero-based line containing offset
func LineOf(starts []int, offset int) int {
	lo, hi := 0, len(starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if starts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}
