package tagging

import (
	"sort"
	"unicode"

	"acejump/internal/domain"
)

// DefaultMaxKeyLength limits keys to two runes unless configured otherwise
const DefaultMaxKeyLength = 2

// Input is everything the assigner looks at. Texts and Query must be
// normalized the same way the matches were computed.
type Input struct {
	Matches        []domain.Match
	Query          []rune
	Texts          map[domain.BufferID][]rune
	Alphabet       []rune
	MaxKeyLength   int
	MinQueryLength int

	// Matches in Primary closest to Caret get the shortest keys
	Primary domain.BufferID
	Caret   int
}

// Result is either an immediate jump or a set of tags to display
type Result struct {
	Jump      *domain.Match
	Tags      []domain.Tag
	Unlabeled []domain.Match
}

// IsJump reports whether the match set collapsed to a single target
func (r Result) IsJump() bool {
	return r.Jump != nil
}

// Assign labels matches with prefix-free keys drawn from the alphabet.
// A rune that directly follows any match never starts a key, because
// typing it continues the query instead. Matches that cannot be labeled
// are returned in Unlabeled. Tags keep the order of the input matches.
func Assign(in Input) Result {
	if len(in.Matches) == 0 {
		return Result{}
	}
	if len(in.Matches) == 1 && len(in.Query) >= in.MinQueryLength {
		jump := in.Matches[0]
		return Result{Jump: &jump}
	}

	maxLen := in.MaxKeyLength
	if maxLen <= 0 {
		maxLen = DefaultMaxKeyLength
	}

	alphabet := dedupe(in.Alphabet)
	keys := generateKeys(firstRunes(alphabet, Continuations(in.Matches, in.Texts)), alphabet, maxLen, len(in.Matches))

	assigned := make([]string, len(in.Matches))
	for rank, i := range priority(in.Matches, in.Primary, in.Caret) {
		if rank >= len(keys) {
			break
		}
		assigned[i] = keys[rank]
	}

	var result Result
	for i, m := range in.Matches {
		if assigned[i] == "" {
			result.Unlabeled = append(result.Unlabeled, m)
			continue
		}
		result.Tags = append(result.Tags, domain.Tag{Key: assigned[i], Match: m})
	}
	return result
}

// Continuations returns the runes that extend the query to a non-empty
// match set, i.e. every rune found right after a current match
func Continuations(matches []domain.Match, texts map[domain.BufferID][]rune) map[rune]bool {
	next := make(map[rune]bool)
	for _, m := range matches {
		text := texts[m.Buffer]
		if m.Right < 0 || m.Right >= len(text) {
			continue
		}
		r := text[m.Right]
		next[r] = true
		next[unicode.ToLower(r)] = true
	}
	return next
}

func firstRunes(alphabet []rune, excluded map[rune]bool) []rune {
	var out []rune
	for _, r := range alphabet {
		if !excluded[r] {
			out = append(out, r)
		}
	}
	return out
}

// generateKeys returns up to n prefix-free keys, shortest first.
// Keys start with a rune from first; later runes come from the whole
// alphabet. When more keys are needed the least preferred of the
// shortest keys is turned into a prefix for a longer level.
func generateKeys(first, alphabet []rune, maxLen, n int) []string {
	if n <= 0 || len(first) == 0 {
		return nil
	}

	keys := make([]string, len(first))
	for i, r := range first {
		keys[i] = string(r)
	}

	for len(keys) < n && len(alphabet) > 1 {
		shortest := len([]rune(keys[0]))
		if shortest >= maxLen {
			break
		}
		last := 0
		for i, k := range keys {
			if len([]rune(k)) == shortest {
				last = i
			}
		}

		prefix := keys[last]
		keys = append(keys[:last:last], keys[last+1:]...)
		for _, r := range alphabet {
			keys = append(keys, prefix+string(r))
		}
	}

	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// priority orders match indices: primary buffer first by distance to the
// caret, then every other buffer in match order. Ties keep match order.
func priority(matches []domain.Match, primary domain.BufferID, caret int) []int {
	order := make([]int, len(matches))
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		ma, mb := matches[order[a]], matches[order[b]]
		pa, pb := ma.Buffer == primary, mb.Buffer == primary
		if pa != pb {
			return pa
		}
		if pa {
			da, db := distance(ma.Left, caret), distance(mb.Left, caret)
			if da != db {
				return da < db
			}
		}
		return order[a] < order[b]
	})
	return order
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

func dedupe(alphabet []rune) []rune {
	seen := make(map[rune]bool, len(alphabet))
	out := make([]rune, 0, len(alphabet))
	for _, r := range alphabet {
		r = unicode.ToLower(r)
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
