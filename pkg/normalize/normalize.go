// CLAUDE:SUMMARY Moses punctuation normalizer: fixed-order rule groups assembled per language and flags into a rule table.
package normalize

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/hazyhaar/textprep/pkg/lang"
	"github.com/hazyhaar/textprep/pkg/rules"
)

const nbsp = "\u00a0"

// Group names, in assembly order.
const (
	GroupExtraWhitespace = "extra_whitespace"
	GroupNotPenn         = "unicode_if_not_penn"
	GroupUnicode         = "unicode"
	GroupFrenchQuotes    = "french_quotes"
	GroupPseudoSpaces    = "pseudo_spaces"
	GroupQuoteCommaEN    = "quote_comma_en"
	GroupQuoteCommaOther = "quote_comma_other"
	GroupNumbersComma    = "numbers_comma"
	GroupNumbersPeriod   = "numbers_period"
)

var extraWhitespace = rules.NewGroup(GroupExtraWhitespace,
	rules.Lit("\r", ""),
	rules.Lit("(", " ("),
	rules.Lit(")", ") "),
	rules.MustRe(` +`, " "),
	rules.MustRe(`\) ([.!:?;,])`, ")$1"),
	rules.Lit("( ", "("),
	rules.Lit(" )", ")"),
	rules.MustRe(`(\d) %`, "$1%"),
	rules.Lit(" :", ":"),
	rules.Lit(" ;", ";"),
)

var unicodeIfNotPenn = rules.NewGroup(GroupNotPenn,
	rules.Lit("`", "'"),
	rules.Lit("''", ` " `),
)

var unicodeQuotes = rules.NewGroup(GroupUnicode,
	rules.Lit("„", `"`),
	rules.Lit("“", `"`),
	rules.Lit("”", `"`),
	rules.Lit("–", "-"),
	rules.Lit("—", " - "),
	rules.MustRe(` +`, " "),
	rules.Lit("´", "'"),
	rules.MustReI(`([a-z])‘([a-z])`, "$1'$2"),
	rules.MustReI(`([a-z])’([a-z])`, "$1'$2"),
	rules.Lit("‘", `"`),
	rules.Lit("‚", `"`),
	// Right single quotes used as apostrophes are caught by the rule above;
	// the remaining ones are treated as closing quotes.
	rules.Lit("’", `"`),
	rules.Lit("''", `"`),
	rules.Lit("´´", `"`),
	rules.Lit("…", "..."),
)

var frenchQuotes = rules.NewGroup(GroupFrenchQuotes,
	rules.Lit(nbsp+"«"+nbsp, ` "`),
	rules.Lit("«"+nbsp, `"`),
	rules.Lit("«", `"`),
	rules.Lit(nbsp+"»"+nbsp, `" `),
	rules.Lit(nbsp+"»", `"`),
	rules.Lit("»", `"`),
)

var pseudoSpaces = rules.NewGroup(GroupPseudoSpaces,
	rules.Lit(nbsp+"%", "%"),
	rules.Lit("nº"+nbsp, "nº "),
	rules.Lit(nbsp+":", ":"),
	rules.Lit(nbsp+"ºC", " ºC"),
	rules.Lit(nbsp+"cm", " cm"),
	rules.Lit(nbsp+"?", "?"),
	rules.Lit(nbsp+"!", "!"),
	rules.Lit(nbsp+";", ";"),
	rules.Lit(","+nbsp, ", "),
	rules.MustRe(` +`, " "),
)

var quoteCommaEN = rules.NewGroup(GroupQuoteCommaEN,
	rules.MustRe(`"([,.]+)`, `$1"`),
)

var quoteCommaOther = rules.NewGroup(GroupQuoteCommaOther,
	rules.Lit(`,"`, `",`),
	// A period closing the sentence stays put.
	rules.MustRe(`(\.+)"(\s*[^<])`, `"$1$2`),
)

// Digits separated by a no-break space are joined into one grouped number.
var numbersComma = rules.NewGroup(GroupNumbersComma,
	rules.MustRe(`(\d)\u00A0(\d)`, "${1},${2}"),
)

var numbersPeriod = rules.NewGroup(GroupNumbersPeriod,
	rules.MustRe(`(\d)\u00A0(\d)`, "${1}.${2}"),
)

var commaGroupedLangs = map[string]bool{"de": true, "es": true, "cz": true, "cs": true, "fr": true}

// Options selects the rule groups assembled into a Normalizer.
type Options struct {
	Language             string
	Penn                 bool
	NormalizeQuoteCommas bool
	NormalizeNumbers     bool
	// UnicodeForm is "NFC" or "NFKC" to compose text before the rules run.
	// Empty or unknown values leave the text as it is; see ParseUnicodeForm.
	UnicodeForm string
}

var unicodeForms = map[string]norm.Form{
	"nfc":  norm.NFC,
	"nfkc": norm.NFKC,
}

// ErrUnicodeForm is returned by ParseUnicodeForm for unsupported forms.
var ErrUnicodeForm = errors.New("unsupported unicode form")

// ParseUnicodeForm returns form in its canonical spelling: "", "nfc" or
// "nfkc".
func ParseUnicodeForm(form string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(form))
	if f == "" {
		return "", nil
	}
	if _, ok := unicodeForms[f]; !ok {
		return "", fmt.Errorf("%w: %q (want NFC or NFKC)", ErrUnicodeForm, form)
	}
	return f, nil
}

// known reports whether code has rules or language data of its own.
func known(code string) bool {
	if code == "en" || commaGroupedLangs[code] {
		return true
	}
	_, ok := lang.Builtin().Lookup(code)
	return ok
}

// DefaultOptions returns the Moses defaults for lang: non-Penn,
// quote/comma and number normalization enabled.
func DefaultOptions(language string) Options {
	return Options{
		Language:             language,
		NormalizeQuoteCommas: true,
		NormalizeNumbers:     true,
	}
}

// Normalizer applies a fixed rule table to single lines of text.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	opts    Options
	table   *rules.Table
	form    norm.Form
	compose bool
}

// New assembles the rule table for opts. Disabled groups are left out
// of the table entirely. Unknown languages get the generic rules and a
// warning.
func New(opts Options) *Normalizer {
	code := lang.Canonical(opts.Language)
	if code == "" {
		code = lang.Default
	}
	if !known(code) {
		lang.WarnFallback(code)
	}
	opts.Language = code

	groups := []rules.Group{extraWhitespace}
	if !opts.Penn {
		groups = append(groups, unicodeIfNotPenn)
	}
	groups = append(groups, unicodeQuotes, frenchQuotes, pseudoSpaces)
	if opts.NormalizeQuoteCommas {
		if code == "en" {
			groups = append(groups, quoteCommaEN)
		} else {
			groups = append(groups, quoteCommaOther)
		}
	}
	if opts.NormalizeNumbers {
		if commaGroupedLangs[code] {
			groups = append(groups, numbersComma)
		} else {
			groups = append(groups, numbersPeriod)
		}
	}

	n := &Normalizer{opts: opts, table: rules.NewTable(code, mode(opts), groups...)}
	n.form, n.compose = unicodeForms[strings.ToLower(opts.UnicodeForm)]
	return n
}

// Normalize returns text with normalized punctuation.
func (n *Normalizer) Normalize(text string) string {
	if n.compose {
		text = n.form.String(text)
	}
	return n.table.Apply(text)
}

// Options returns the options the normalizer was built with.
func (n *Normalizer) Options() Options { return n.opts }

// Table exposes the assembled rule table.
func (n *Normalizer) Table() *rules.Table { return n.table }

// Normalize is a one-shot helper building a Normalizer for opts.
func Normalize(text string, opts Options) string {
	return New(opts).Normalize(text)
}

func mode(opts Options) string {
	var parts []string
	if opts.Penn {
		parts = append(parts, "penn")
	}
	if opts.NormalizeQuoteCommas {
		parts = append(parts, "quote_commas")
	}
	if opts.NormalizeNumbers {
		parts = append(parts, "numbers")
	}
	return strings.Join(parts, ",")
}
