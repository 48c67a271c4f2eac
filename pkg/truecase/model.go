// CLAUDE:SUMMARY Read-only casing model: per-word ranked surface variants, best casing, known forms and the sentence-initial exception set.
package truecase

import (
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Variant is one observed surface form of a word.
type Variant struct {
	Form   string
	Weight Weight
}

// Record holds everything the model knows about one case-folded word.
// Variants are ranked, best first.
type Record struct {
	Word     string
	Variants []Variant
	// SentenceInitial marks words whose best casing is all lowercase: a
	// capitalized occurrence at sentence start is left as written.
	SentenceInitial bool
}

// Best returns the preferred casing.
func (r Record) Best() string { return r.Variants[0].Form }

// Total returns the summed weight of all variants.
func (r Record) Total() Weight {
	var t Weight
	for _, v := range r.Variants {
		t += v.Weight
	}
	return t
}

// Model is an immutable casing model. It is safe for concurrent reads.
type Model struct {
	records []Record
	index   map[string]int
	known   map[string]bool
	asr     bool
}

func newModel(records []Record, asr bool) *Model {
	m := &Model{
		records: records,
		index:   make(map[string]int, len(records)),
		known:   make(map[string]bool),
		asr:     asr,
	}
	for i, r := range records {
		m.index[r.Word] = i
		if asr {
			continue
		}
		for _, v := range r.Variants {
			m.known[v.Form] = true
		}
	}
	return m
}

// ASR reports whether the model was trained without case information.
func (m *Model) ASR() bool { return m.asr }

// Len returns the number of words.
func (m *Model) Len() int { return len(m.records) }

// Records returns a copy of the records in model order.
func (m *Model) Records() []Record {
	out := make([]Record, len(m.records))
	for i, r := range m.records {
		r.Variants = append([]Variant(nil), r.Variants...)
		out[i] = r
	}
	return out
}

// Lookup returns the record for a word in any casing.
func (m *Model) Lookup(word string) (Record, bool) {
	i, ok := m.index[fold(word)]
	if !ok {
		return Record{}, false
	}
	return m.records[i], true
}

// Best returns the preferred casing of word.
func (m *Model) Best(word string) (string, bool) {
	r, ok := m.Lookup(word)
	if !ok {
		return "", false
	}
	return r.Best(), true
}

// Known reports whether surface was observed verbatim in training.
func (m *Model) Known(surface string) bool { return m.known[surface] }

// fold lowercases s. Casers carry state, so each call gets its own.
func fold(s string) string {
	return cases.Lower(language.Und).String(s)
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			return true
		}
	}
	return false
}

func hasCased(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r) {
			return true
		}
	}
	return false
}
