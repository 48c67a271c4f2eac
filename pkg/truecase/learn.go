// CLAUDE:SUMMARY Truecaser training: per-line casing observations with sentence-start tracking, single-writer Train and offset-aware TrainCounts.
package truecase

import (
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"
)

var reXMLTag = regexp2.MustCompile(`<\S[^>]*>`, regexp2.None)

func isXMLTag(tok string) bool {
	ok, err := reXMLTag.MatchString(tok)
	return err == nil && ok
}

var sentenceEnd = map[string]bool{".": true, ":": true, "?": true, "!": true}

var delayedStart = map[string]bool{
	"(": true, "[": true, `"`: true, "'": true,
	"&apos;": true, "&quot;": true, "&#91;": true, "&#93;": true,
}

// IsSentenceEnd reports whether tok closes a sentence.
func IsSentenceEnd(tok string) bool { return sentenceEnd[tok] }

// IsDelayedStart reports whether tok may precede the first word of a
// sentence without being that word (opening brackets and quotes).
func IsDelayedStart(tok string) bool { return delayedStart[tok] }

// Observation is one weighted casing vote.
type Observation struct {
	Folded  string
	Surface string
	Weight  Weight
	Pos     Position
}

// Learn returns the casing votes of one tokenized line. The first word of
// each sentence is skipped unless possiblyUseFirstToken is set, in which
// case it votes fully when it starts lowercase, and weakly when it is
// capitalized right after a delayed sentence starter.
func Learn(tokens []string, line int, possiblyUseFirstToken bool) []Observation {
	var obs []Observation
	first := true
	for i, tok := range tokens {
		if isXMLTag(tok) || IsDelayedStart(tok) {
			continue
		}
		if !first && IsSentenceEnd(tok) {
			first = true
			continue
		}
		if !hasCased(tok) {
			first = false
			continue
		}

		var w Weight
		switch {
		case !first:
			w = Unit
		case possiblyUseFirstToken:
			r := []rune(tok)[0]
			if unicode.IsLower(r) {
				w = Unit
			} else if i == 1 {
				w = WeakVote
			}
		}
		first = false
		if w > 0 {
			obs = append(obs, Observation{
				Folded:  fold(tok),
				Surface: tok,
				Weight:  w,
				Pos:     Position{Line: line, Token: i},
			})
		}
	}
	return obs
}

// TrainOptions controls training.
type TrainOptions struct {
	PossiblyUseFirstToken bool
	// ASR marks a corpus with no reliable case information.
	ASR bool
}

// TrainCounts builds the partial table for lines, numbering them from
// firstLine so partitions of one corpus keep their global order.
func TrainCounts(lines []string, firstLine int, opts TrainOptions) *Counts {
	c := NewCounts()
	for i, line := range lines {
		for _, o := range Learn(SplitXML(line), firstLine+i, opts.PossiblyUseFirstToken) {
			c.Add(o)
		}
	}
	return c
}

// Train builds a model from a tokenized corpus.
func Train(lines []string, opts TrainOptions) *Model {
	return TrainCounts(lines, 0, opts).Model(opts.ASR)
}

// SplitXML splits a tokenized line on whitespace while keeping XML tags,
// which may contain spaces, as single tokens.
func SplitXML(line string) []string {
	var tokens []string
	rest := strings.TrimSpace(line)
	for rest != "" {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		if rest == "" {
			break
		}
		if tag := leadingTag(rest); tag != "" {
			tokens = append(tokens, tag)
			rest = rest[len(tag):]
			continue
		}
		end := strings.IndexFunc(rest, func(r rune) bool {
			return unicode.IsSpace(r) || r == '<' || r == '>'
		})
		if end == 0 {
			// A stray '<' or '>' that does not open a tag.
			end = strings.IndexFunc(rest, unicode.IsSpace)
		}
		if end < 0 {
			end = len(rest)
		}
		tokens = append(tokens, rest[:end])
		rest = rest[end:]
	}
	return tokens
}

func leadingTag(s string) string {
	if len(s) < 3 || s[0] != '<' {
		return ""
	}
	r := []rune(s[1:2])
	if len(r) == 0 || unicode.IsSpace(r[0]) {
		return ""
	}
	end := strings.IndexByte(s[2:], '>')
	if end < 0 {
		return ""
	}
	return s[:end+3]
}
