// CLAUDE:SUMMARY Truecaser application: restores model casing token by token with sentence-start tracking, XML passthrough and factor preservation.
package truecase

import "strings"

// Truecaser applies a Model to tokenized lines. It never mutates the
// model and is safe for concurrent use.
type Truecaser struct {
	model *Model
}

// New returns a truecaser for m.
func New(m *Model) *Truecaser { return &Truecaser{model: m} }

// Model returns the underlying model.
func (t *Truecaser) Model() *Model { return t.model }

// Truecase restores casing on one tokenized line.
//
// At sentence start the best casing replaces the token unless the word is
// in the sentence-initial exception set, in which case the token is kept as
// written; unknown words are kept too. Elsewhere a surface form seen in
// training is kept, otherwise the best casing is used when the word is
// known at all. XML tags pass through and "|factor" suffixes are kept.
func (t *Truecaser) Truecase(line string) []string {
	tokens := SplitXML(line)
	out := make([]string, 0, len(tokens))
	first := true
	for _, tok := range tokens {
		if isXMLTag(tok) || strings.HasPrefix(tok, "|") {
			out = append(out, tok)
			continue
		}
		word, factors := tok, ""
		if i := strings.IndexByte(tok, '|'); i > 0 {
			word, factors = tok[:i], tok[i:]
		}
		if t.model.ASR() {
			word = fold(word)
		}

		rec, ok := t.model.Lookup(word)
		switch {
		case first:
			if ok && !rec.SentenceInitial {
				word = rec.Best()
			}
		case t.model.Known(word):
		case ok:
			word = rec.Best()
		}
		out = append(out, word+factors)

		if IsSentenceEnd(word) {
			first = true
		} else if !IsDelayedStart(word) {
			first = false
		}
	}
	return out
}

// TruecaseString returns the truecased tokens joined by single spaces.
func (t *Truecaser) TruecaseString(line string) string {
	return strings.Join(t.Truecase(line), " ")
}
