package domain

import (
	"sort"
	"strings"
)

// TriggerSet is a set of case-folded trigger words. The zero value is not
// usable; construct with NewTriggerSet.
type TriggerSet map[string]struct{}

// NewTriggerSet creates a trigger set, lowercasing every word
func NewTriggerSet(words ...string) TriggerSet {
	s := make(TriggerSet, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			s[w] = struct{}{}
		}
	}
	return s
}

// Add inserts a word (case-folded). Adding an existing word is a no-op.
func (s TriggerSet) Add(word string) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word != "" {
		s[word] = struct{}{}
	}
}

// Remove deletes a word, reporting whether it was present
func (s TriggerSet) Remove(word string) bool {
	word = strings.ToLower(strings.TrimSpace(word))
	if _, ok := s[word]; !ok {
		return false
	}
	delete(s, word)
	return true
}

// Has checks membership (case-insensitive)
func (s TriggerSet) Has(word string) bool {
	_, ok := s[strings.ToLower(word)]
	return ok
}

// Words returns the trigger words in sorted order
func (s TriggerSet) Words() []string {
	words := make([]string, 0, len(s))
	for w := range s {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// Clone returns an independent copy
func (s TriggerSet) Clone() TriggerSet {
	c := make(TriggerSet, len(s))
	for w := range s {
		c[w] = struct{}{}
	}
	return c
}
