// CLAUDE:SUMMARY Protected-span masker: compiles caller patterns, swaps non-overlapping matches for unique placeholders and restores them byte-for-byte.
package mask

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// ErrInvalidPattern is wrapped by every PatternError.
var ErrInvalidPattern = errors.New("invalid protected pattern")

// PatternError reports a protected pattern that failed to compile.
type PatternError struct {
	Index   int
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("protected pattern %d %q: %v", e.Index, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() []error { return []error{ErrInvalidPattern, e.Err} }

// MatchTimeout bounds one pattern search over one line. A pattern that
// runs out of time contributes no spans to that line.
const MatchTimeout = 100 * time.Millisecond

// DefaultPrefix starts every placeholder unless the text already contains it.
const DefaultPrefix = "THISISPROTECTED"

// Built-in pattern sources.
var (
	// BasicProtectedPatterns keeps XML tags, e-mail addresses and URLs whole.
	BasicProtectedPatterns = []string{
		`<\/?\S+\/?>`,
		`<\S+( [a-zA-Z0-9]+\="?[^"]")+ ?\/?>`,
		`<\S+( [a-zA-Z0-9]+\='?[^']')+ ?\/?>`,
		`[\w\-\.]+\@([\w\-]+\.)+[a-zA-Z]{2,}`,
		`(http[s]?|ftp):\/\/[^:\/\s]+(\/\w+)*\/[\w\-\.]+`,
	}

	// WebProtectedPatterns keeps whole URLs including query strings, bare
	// www host names, hashtags and @mentions.
	WebProtectedPatterns = []string{
		`<\/?\S+\/?>`,
		`<\S+( [a-zA-Z0-9]+\="?[^"]")+ ?\/?>`,
		`<\S+( [a-zA-Z0-9]+\='?[^']')+ ?\/?>`,
		`(http[s]?|ftp):\/\/[^\s]+`,
		`www\.[\w\-]+(\.[\w\-]+)+(\/[^\s]*)?`,
		`[\w\-\.]+\@([\w\-]+\.)+[a-zA-Z]{2,}`,
		`(?<=^|\s)#\w+`,
		`(?<=^|\s)@\w+`,
	}
)

type pattern struct {
	source string
	re     *regexp2.Regexp
}

// Masker swaps protected spans for placeholders. It is immutable after
// Compile and safe for concurrent use.
type Masker struct {
	patterns []pattern
}

// Compile builds a masker from patterns in priority order. Matching is
// case-insensitive. A malformed pattern fails the whole call.
func Compile(patterns []string) (*Masker, error) {
	m := &Masker{patterns: make([]pattern, 0, len(patterns))}
	for i, p := range patterns {
		re, err := regexp2.Compile(p, regexp2.IgnoreCase)
		if err != nil {
			return nil, &PatternError{Index: i, Pattern: p, Err: err}
		}
		re.MatchTimeout = MatchTimeout
		m.patterns = append(m.patterns, pattern{source: p, re: re})
	}
	return m, nil
}

// MustCompile is like Compile but panics on error. Only meant for the
// built-in pattern sets.
func MustCompile(patterns []string) *Masker {
	m, err := Compile(patterns)
	if err != nil {
		panic(err)
	}
	return m
}

// Len returns the number of compiled patterns.
func (m *Masker) Len() int {
	if m == nil {
		return 0
	}
	return len(m.patterns)
}

// Patterns returns the pattern sources in priority order.
func (m *Masker) Patterns() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.patterns))
	for i, p := range m.patterns {
		out[i] = p.source
	}
	return out
}

// Restore maps placeholders back to the substrings they replaced.
type Restore struct {
	Prefix string
	Spans  []string
}

// Placeholder returns the token standing for span i.
func (r Restore) Placeholder(i int) string {
	return fmt.Sprintf("%s%03d", r.Prefix, i)
}

// Len returns the number of masked spans.
func (r Restore) Len() int { return len(r.Spans) }

// span is a rune range [start, end).
type span struct{ start, end int }

// Mask replaces every protected span of text with a placeholder. Patterns
// are tried in priority order; a match overlapping an already accepted
// span is dropped. Placeholders are numbered in text order.
func (m *Masker) Mask(text string) (string, Restore) {
	r := Restore{Prefix: uniquePrefix(text)}
	if m.Len() == 0 || text == "" {
		return text, r
	}

	var accepted []span
	for _, p := range m.patterns {
		found, err := p.find(text, accepted)
		if err != nil {
			slog.Warn("protected pattern skipped", "pattern", p.source, "error", err)
			continue
		}
		accepted = append(accepted, found...)
	}
	if len(accepted) == 0 {
		return text, r
	}
	sort.Slice(accepted, func(i, j int) bool { return accepted[i].start < accepted[j].start })

	// regexp2 reports rune offsets.
	runes := []rune(text)
	var b strings.Builder
	prev := 0
	for i, s := range accepted {
		b.WriteString(string(runes[prev:s.start]))
		b.WriteString(r.Placeholder(i))
		r.Spans = append(r.Spans, string(runes[s.start:s.end]))
		prev = s.end
	}
	b.WriteString(string(runes[prev:]))
	return b.String(), r
}

// find returns the matches of p that do not overlap accepted. On a match
// error, typically a timeout, no spans are returned.
func (p pattern) find(text string, accepted []span) ([]span, error) {
	var found []span
	match, err := p.re.FindStringMatch(text)
	for err == nil && match != nil {
		s := span{match.Index, match.Index + match.Length}
		if s.end > s.start && !overlaps(accepted, s) && !overlaps(found, s) {
			found = append(found, s)
		}
		match, err = p.re.FindNextMatch(match)
	}
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Unmask puts the original spans back. Placeholders are replaced from the
// highest index down so that PREFIX001 never eats into PREFIX0010.
func (r Restore) Unmask(text string) string {
	for i := len(r.Spans) - 1; i >= 0; i-- {
		text = strings.ReplaceAll(text, r.Placeholder(i), r.Spans[i])
	}
	return text
}

// Unmask is the package-level form of Restore.Unmask.
func Unmask(text string, r Restore) string { return r.Unmask(text) }

func overlaps(accepted []span, s span) bool {
	for _, a := range accepted {
		if s.start < a.end && a.start < s.end {
			return true
		}
	}
	return false
}

// uniquePrefix returns DefaultPrefix, lengthened until it does not occur
// in text. Placeholders stay purely alphanumeric so later punctuation
// rules leave them alone.
func uniquePrefix(text string) string {
	prefix := DefaultPrefix
	for strings.Contains(text, prefix) {
		prefix += "X"
	}
	return prefix
}
