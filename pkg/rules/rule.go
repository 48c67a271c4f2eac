// CLAUDE:SUMMARY Ordered substitution rules (literal or regex) and immutable rule tables shared by every text engine.
package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// Kind tags a Rule as a literal replacement or a regex substitution.
type Kind int

const (
	Literal Kind = iota
	Regex
)

func (k Kind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Regex:
		return "regex"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MatchTimeout bounds one regex rule application. A rule that runs out of
// time leaves the text unchanged.
const MatchTimeout = time.Second

// Rule is a single substitution. Rules are values: once built they are never mutated.
//
// Regex rules use a Perl/Python compatible engine (look-around, \p{..} classes);
// replacement templates reference groups as $1 or ${1}.
type Rule struct {
	Kind        Kind
	Pattern     string
	Replacement string
	IgnoreCase  bool

	re *regexp2.Regexp
}

// Lit builds a literal rule replacing every occurrence of pattern.
func Lit(pattern, replacement string) Rule {
	return Rule{Kind: Literal, Pattern: pattern, Replacement: replacement}
}

// Re compiles a case-sensitive regex rule.
func Re(pattern, replacement string) (Rule, error) {
	return compile(pattern, replacement, false)
}

// ReI compiles a case-insensitive regex rule.
func ReI(pattern, replacement string) (Rule, error) {
	return compile(pattern, replacement, true)
}

// MustRe is like Re but panics on a malformed pattern.
// Only meant for package-level rule groups.
func MustRe(pattern, replacement string) Rule {
	r, err := Re(pattern, replacement)
	if err != nil {
		panic(err)
	}
	return r
}

// MustReI is like ReI but panics on a malformed pattern.
func MustReI(pattern, replacement string) Rule {
	r, err := ReI(pattern, replacement)
	if err != nil {
		panic(err)
	}
	return r
}

func compile(pattern, replacement string, ignoreCase bool) (Rule, error) {
	opts := regexp2.None
	if ignoreCase {
		opts = regexp2.IgnoreCase
	}
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return Rule{}, fmt.Errorf("compile rule %q: %w", pattern, err)
	}
	re.MatchTimeout = MatchTimeout
	return Rule{Kind: Regex, Pattern: pattern, Replacement: replacement, IgnoreCase: ignoreCase, re: re}, nil
}

// Apply runs the rule once over s. Patterns that fail to match leave s unchanged.
func (r Rule) Apply(s string) string {
	switch r.Kind {
	case Literal:
		if r.Pattern == "" {
			return s
		}
		return strings.ReplaceAll(s, r.Pattern, r.Replacement)
	case Regex:
		if r.re == nil {
			return s
		}
		out, err := r.re.Replace(s, r.Replacement, -1, -1)
		if err != nil {
			return s
		}
		return out
	default:
		return s
	}
}

func (r Rule) String() string {
	if r.Kind == Regex && r.IgnoreCase {
		return fmt.Sprintf("%s(?i) %q -> %q", r.Kind, r.Pattern, r.Replacement)
	}
	return fmt.Sprintf("%s %q -> %q", r.Kind, r.Pattern, r.Replacement)
}
