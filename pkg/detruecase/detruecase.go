// CLAUDE:SUMMARY Detruecaser: capitalizes sentence-initial tokens, or every non-function word in headline mode.
package detruecase

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hazyhaar/textprep/pkg/truecase"
)

// alwaysLower lists the function words headline mode leaves alone.
var alwaysLower = map[string]bool{
	"a": true, "after": true, "against": true, "and": true, "any": true,
	"as": true, "at": true, "be": true, "because": true, "between": true,
	"by": true, "during": true, "for": true, "from": true, "his": true,
	"in": true, "is": true, "its": true, "last": true, "not": true,
	"of": true, "off": true, "on": true, "than": true, "the": true,
	"their": true, "this": true, "to": true, "was": true, "were": true,
	"which": true, "will": true, "with": true,
}

// IsFunctionWord reports whether headline mode keeps tok lowercase.
// Arabic article prefixes ("al-", "el-") count as function words.
func IsFunctionWord(tok string) bool {
	if alwaysLower[tok] {
		return true
	}
	for _, p := range []string{"al-", "el-"} {
		if strings.HasPrefix(tok, p) && len(tok) > len(p) {
			return true
		}
	}
	return false
}

// Detruecase restores capitalization on one tokenized line. The first
// content token of every sentence is capitalized; opening brackets, quotes
// and tokens without letters or digits do not count as content. In
// headline mode every token that is not a function word is capitalized as
// well.
func Detruecase(line string, headline bool) string {
	return strings.Join(Tokens(strings.Fields(line), headline), " ")
}

// Tokens is Detruecase over an already split line. The input is not
// modified.
func Tokens(tokens []string, headline bool) []string {
	out := make([]string, len(tokens))
	start := true
	for i, tok := range tokens {
		if start && isContent(tok) {
			tok = upperFirst(tok)
		}
		out[i] = tok

		switch {
		case truecase.IsSentenceEnd(tok):
			start = true
		case truecase.IsDelayedStart(tok), !isContent(tok):
		default:
			start = false
		}
	}
	if headline {
		for i, tok := range out {
			if !IsFunctionWord(tok) {
				out[i] = upperFirst(tok)
			}
		}
	}
	return out
}

func isContent(tok string) bool {
	for _, r := range tok {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// upperFirst uppercases the first rune with full case mapping ("ß" -> "SS").
func upperFirst(tok string) string {
	r, size := utf8.DecodeRuneInString(tok)
	if r == utf8.RuneError || !unicode.IsLower(r) {
		return tok
	}
	return cases.Upper(language.Und).String(tok[:size]) + tok[size:]
}
