package search

import (
	"testing"

	"acejump/internal/buffers"

	"github.com/stretchr/testify/assert"
)

func TestNormalizerKeepsLength(t *testing.T) {
	n := Normalizer{MapToASCII: true}
	for _, s := range []string{"test 拼音 selection", "あみだにょらい", "Crème brûlée", "Straße"} {
		assert.Len(t, n.Runes(s), len([]rune(s)), s)
	}
}

func TestMapToASCII(t *testing.T) {
	n := Normalizer{MapToASCII: true}

	assert.Equal(t, "creme brulee", string(n.Runes("Crème brûlée")))
	assert.Equal(t, "py", string(n.Runes("拼音")))
	assert.Equal(t, "amdnyri", string(n.Runes("あみだにょらい")))
	assert.Equal(t, "amdnyri", string(n.Runes("アミダニョライ")))
	assert.Equal(t, "strase", string(n.Runes("Straße")))
}

func TestMapToASCIIDisabledLeavesRunes(t *testing.T) {
	n := Normalizer{}
	assert.Equal(t, "crème", string(n.Runes("Crème")))
	assert.Equal(t, "拼音", string(n.Runes("拼音")))
}

func TestTransliteratedQueryMatches(t *testing.T) {
	store, ids := newStore("test 拼音 selection 拼音")
	p := NewProcessor(NewMatcher(store, buffers.WholeBuffer, Normalizer{MapToASCII: true}), ids)
	p.Type('p')
	p.Type('y')
	assert.Equal(t, []int{5, 18}, offsets(p.Results()))

	store, ids = newStore("あみだにょらい あみだにょらい")
	p = NewProcessor(NewMatcher(store, buffers.WholeBuffer, Normalizer{MapToASCII: true}), ids)
	p.Type('a')
	p.Type('m')
	assert.Equal(t, []int{0, 8}, offsets(p.Results()))
}
