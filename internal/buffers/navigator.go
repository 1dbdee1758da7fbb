package buffers

import (
	"log"
	"strings"
)

// FirstOccurrenceNavigator resolves declarations without a language server:
// the declaration of a word is its first whole-word occurrence across all
// open buffers, and its type declaration is the first "type <word>".
type FirstOccurrenceNavigator struct {
	store *MemoryStore
}

// NewFirstOccurrenceNavigator creates a navigator over the given store
func NewFirstOccurrenceNavigator(store *MemoryStore) *FirstOccurrenceNavigator {
	return &FirstOccurrenceNavigator{store: store}
}

func (n *FirstOccurrenceNavigator) GoToDeclaration(id ID, offset int) {
	word := n.wordAt(id, offset)
	if word == "" {
		return
	}
	n.jumpToFirst(word, "")
}

func (n *FirstOccurrenceNavigator) GoToTypeDeclaration(id ID, offset int) {
	word := n.wordAt(id, offset)
	if word == "" {
		return
	}
	if !n.jumpToFirst(word, "type ") {
		n.jumpToFirst(word, "")
	}
}

func (n *FirstOccurrenceNavigator) wordAt(id ID, offset int) string {
	text := []rune(n.store.Text(id))
	start, end, ok := WordAt(text, offset)
	if !ok {
		return ""
	}
	return string(text[start:end])
}

// jumpToFirst moves the caret onto the first whole-word occurrence of word
// that is preceded by prefix. Returns false when nothing was found.
func (n *FirstOccurrenceNavigator) jumpToFirst(word, prefix string) bool {
	needle := []rune(prefix + word)
	for _, id := range n.store.IDs() {
		text := []rune(n.store.Text(id))
		for i := 0; i+len(needle) <= len(text); i++ {
			if !HasAt(text, i, needle) {
				continue
			}
			start := i + len(needle) - len([]rune(word))
			end := i + len(needle)
			if (i > 0 && IsWordRune(text[i-1])) || (end < len(text) && IsWordRune(text[end])) {
				continue
			}
			log.Printf("Navigator: %s%s resolved to %s:%d", prefix, word, id, start)
			n.store.Focus(id)
			n.store.MoveCaret(id, start)
			return true
		}
	}
	log.Printf("Navigator: no declaration for %q", strings.TrimSpace(prefix+word))
	return false
}
