// CLAUDE:SUMMARY Moses detokenizer: rejoins tokens with left/right shift heuristics for punctuation, quotes, contractions and CJK.
package tokenize

import (
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/hazyhaar/textprep/pkg/lang"
)

var (
	reRightShift   = regexp2.MustCompile(`^[\p{Sc}\(\[\{¿¡]+$`, regexp2.None)
	reLeftShift    = regexp2.MustCompile(`^[,\.\?!:;\\%\}\]\)]+$`, regexp2.None)
	reFrenchSpaced = regexp2.MustCompile(`^[\?!:;\\%]$`, regexp2.None)
	reContraction  = regexp2.MustCompile(`^'[`+classAlpha+`]`, regexp2.None)
	reElision      = regexp2.MustCompile(`[`+classAlpha+`]'$`, regexp2.None)
	reQuotes       = regexp2.MustCompile(`^['"„“”`+"`"+`]+$`, regexp2.None)
	reCurlyQuotes  = regexp2.MustCompile(`^[„“”]+$`, regexp2.None)
	reCzechLi      = regexp2.MustCompile(`^li$|^mail.*`, regexp2.IgnoreCase)
	reFinnishCase  = regexp2.MustCompile(`^(N|n|A|a|Ä|ä|ssa|Ssa|ssä|Ssä|sta|stä|Sta|Stä|hun|Hun|hyn|Hyn|han|Han|hän|Hän|hön|Hön|un|Un|yn|Yn|an|An|än|Än|ön|Ön|seen|Seen|lla|Lla|llä|Llä|lta|Lta|ltä|Ltä|lle|Lle|ksi|Ksi|kse|Kse|tta|Tta|ine|Ine)(ni|si|mme|nne|nsa)?(ko|kö|han|hän|pa|pä|kaan|kään|kin)?$`, regexp2.None)
)

func match(re *regexp2.Regexp, s string) bool {
	ok, err := re.MatchString(s)
	return err == nil && ok
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Detokenizer joins tokens back into text. It holds no mutable state and
// is safe for concurrent use.
type Detokenizer struct {
	language string
}

// NewDetokenizer returns a detokenizer applying the spacing rules of
// language. Languages without specific rules get the generic ones.
func NewDetokenizer(language string) *Detokenizer {
	code := lang.Canonical(language)
	if code == "" {
		code = lang.Default
	}
	if !detokenizerLanguages[code] {
		if _, ok := lang.Builtin().Lookup(code); !ok {
			lang.WarnFallback(code)
		}
	}
	return &Detokenizer{language: code}
}

// detokenizerLanguages have rules of their own beyond the built-in
// language data.
var detokenizerLanguages = map[string]bool{"fi": true, "ga": true, "ko": true}

// Language returns the canonical language code.
func (d *Detokenizer) Language() string { return d.language }

// Detokenize joins tokens into a single line. When unescape is set, XML
// entities produced by the tokenizer are turned back into characters.
func (d *Detokenizer) Detokenize(tokens []string, unescape bool) string {
	text := " " + strings.Join(tokens, " ") + " "
	text = strings.ReplaceAll(text, " @-@ ", "-")
	if unescape {
		text = UnescapeXML(text)
	}
	words := strings.Fields(text)

	quotes := make(map[string]int)
	prepend := " "
	var b strings.Builder

	for i := 0; i < len(words); i++ {
		tok := words[i]
		switch {
		case isCJK(firstRune(tok)) && d.language != "ko":
			if i > 0 && isCJK(lastRune(words[i-1])) {
				b.WriteString(tok)
			} else {
				b.WriteString(prepend + tok)
			}
			prepend = " "

		case match(reRightShift, tok):
			b.WriteString(prepend + tok)
			prepend = ""

		case match(reLeftShift, tok):
			if d.language == "fr" && match(reFrenchSpaced, tok) {
				b.WriteString(" ")
			}
			b.WriteString(tok)
			prepend = " "

		case d.language == "en" && i > 0 && match(reContraction, tok):
			b.WriteString(tok)
			prepend = " "

		case d.language == "cs" && i > 1 && isDigits(words[i-2]) &&
			(words[i-1] == "." || words[i-1] == ",") && isDigits(tok):
			b.WriteString(tok)
			prepend = " "

		case (d.language == "fr" || d.language == "it" || d.language == "ga") &&
			i < len(words)-1 && match(reElision, tok) && isAlpha(firstRune(words[i+1])):
			b.WriteString(prepend + tok)
			prepend = ""

		case d.language == "cs" && i < len(words)-2 && match(reElision, tok) &&
			(words[i+1] == "-" || words[i+1] == "–") && match(reCzechLi, words[i+2]):
			b.WriteString(prepend + tok + words[i+1])
			i++
			prepend = ""

		case match(reQuotes, tok):
			norm := tok
			if match(reCurlyQuotes, tok) {
				norm = `"`
			}
			if d.language == "cs" && tok == "„" {
				quotes[norm] = 0
			}
			if d.language == "cs" && tok == "“" {
				quotes[norm] = 1
			}
			if quotes[norm]%2 == 0 {
				if d.language == "en" && tok == "'" && i > 0 && strings.HasSuffix(words[i-1], "s") {
					// Possessive: "the Jones' house".
					b.WriteString(tok)
					prepend = " "
				} else {
					b.WriteString(prepend + tok)
					prepend = ""
					quotes[norm]++
				}
			} else {
				b.WriteString(tok)
				prepend = " "
				quotes[norm]++
			}

		case d.language == "fi" && i > 0 && strings.HasSuffix(words[i-1], ":") && match(reFinnishCase, tok):
			// EU:n, EU:ssa
			b.WriteString(strings.ToLower(tok))
			prepend = " "

		default:
			b.WriteString(prepend + tok)
			prepend = " "
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// DetokenizeString splits a tokenized line on whitespace and detokenizes it.
func (d *Detokenizer) DetokenizeString(line string, unescape bool) string {
	return d.Detokenize(strings.Fields(line), unescape)
}

// Detokenize is a one-shot helper with XML unescaping enabled.
func Detokenize(tokens []string, language string) string {
	return NewDetokenizer(language).Detokenize(tokens, true)
}
