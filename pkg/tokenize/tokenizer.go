// CLAUDE:SUMMARY Moses tokenizer: masks protected spans, pads punctuation, applies per-language apostrophe and non-breaking prefix rules, escapes XML.
package tokenize

import (
	"strings"
	"unicode"

	"github.com/hazyhaar/textprep/pkg/lang"
	"github.com/hazyhaar/textprep/pkg/mask"
	"github.com/hazyhaar/textprep/pkg/rules"
)

// Options configures a Tokenizer.
type Options struct {
	Language             string
	AggressiveDashSplits bool
	EscapeXML            bool
	// ProtectedPatterns are kept whole, highest priority first.
	ProtectedPatterns []string
	// ProtectBasic appends mask.BasicProtectedPatterns (XML tags, e-mail,
	// URLs) after ProtectedPatterns.
	ProtectBasic bool
	// ProtectWeb appends mask.WebProtectedPatterns instead, which also keep
	// query strings, www host names, hashtags and @mentions whole.
	ProtectWeb bool
	// Languages resolves prefix tables. Nil means lang.Builtin().
	Languages *lang.Registry
}

// DefaultOptions mirrors the Moses tokenizer defaults: XML escaping on,
// no dash splitting, no protected patterns.
func DefaultOptions(language string) Options {
	return Options{Language: language, EscapeXML: true}
}

var cleanup = rules.NewTable("", "cleanup", rules.NewGroup("cleanup",
	rules.MustRe(`\s+`, " "),
	rules.MustRe(`[\x00-\x1f]`, ""),
))

var padNotAlnum = rules.NewGroup("pad_not_alnum",
	rules.MustRe("([^"+classAlnum+"\\s\\.'`,\\-])", " $1 "),
)

var aggressiveHyphen = rules.NewGroup("aggressive_hyphen",
	rules.MustRe(`([`+classAlnum+`])\-(?=[`+classAlnum+`])`, "$1 @-@ "),
)

var commaSeparate = rules.NewGroup("comma_separate",
	rules.MustRe(`([^`+classNum+`])[,]`, "$1 , "),
	rules.MustRe(`[,]([^`+classNum+`])`, " , $1"),
	rules.MustRe(`([`+classNum+`])[,]$`, "$1 , "),
)

// The first three rules split quotes that are not inside a word.
var apostropheEN = rules.NewGroup("apostrophe_en",
	rules.MustRe(`([^`+classAlpha+`])[']([^`+classAlpha+`])`, "$1 ' $2"),
	rules.MustRe(`([^`+classAlnum+`])[']([`+classAlpha+`])`, "$1 ' $2"),
	rules.MustRe(`([`+classAlpha+`])[']([^`+classAlpha+`])`, "$1 ' $2"),
	rules.MustRe(`([`+classAlpha+`])[']([`+classAlpha+`])`, "$1 '$2"),
	rules.MustRe(`([`+classNum+`])[']([s])`, "$1 '$2"),
)

var apostropheFRIT = rules.NewGroup("apostrophe_fr_it",
	rules.MustRe(`([^`+classAlpha+`])[']([^`+classAlpha+`])`, "$1 ' $2"),
	rules.MustRe(`([^`+classAlpha+`])[']([`+classAlpha+`])`, "$1 ' $2"),
	rules.MustRe(`([`+classAlpha+`])[']([^`+classAlpha+`])`, "$1 ' $2"),
	rules.MustRe(`([`+classAlpha+`])[']([`+classAlpha+`])`, "$1' $2"),
)

var apostropheOther = rules.NewGroup("apostrophe_other",
	rules.Lit("'", " ' "),
)

var (
	multiDotOpen  = rules.MustRe(`\.([\.]+)`, " DOTMULTI$1")
	multiDotSplit = rules.MustRe(`DOTMULTI\.([^\.])`, "DOTDOTMULTI $1")
	multiDotJoin  = rules.MustRe(`DOTMULTI\.`, "DOTDOTMULTI")

	dedupe         = rules.MustRe(`\s+`, " ")
	trailingDotApo = rules.MustRe(`\.' ?$`, " . ' ")
)

// Tokenizer splits single lines into Moses-style tokens. It is immutable
// after construction and safe for concurrent use.
type Tokenizer struct {
	opts     Options
	prefixes *lang.Prefixes
	masker   *mask.Masker
	pre      *rules.Table
	post     *rules.Table
}

// NewTokenizer builds a tokenizer for opts. Unknown languages use the
// English prefix table; the fallback is logged as a warning. It fails only
// when a protected pattern does not compile.
func NewTokenizer(opts Options) (*Tokenizer, error) {
	code := lang.Canonical(opts.Language)
	if code == "" {
		code = lang.Default
	}
	opts.Language = code

	reg := opts.Languages
	if reg == nil {
		reg = lang.Builtin()
	}
	l, _ := reg.Resolve(code)

	m, err := protector(opts)
	if err != nil {
		return nil, err
	}

	pre := []rules.Group{padNotAlnum}
	if opts.AggressiveDashSplits {
		pre = append(pre, aggressiveHyphen)
	}

	var apostrophes rules.Group
	switch code {
	case "en":
		apostrophes = apostropheEN
	case "fr", "it":
		apostrophes = apostropheFRIT
	default:
		apostrophes = apostropheOther
	}

	return &Tokenizer{
		opts:     opts,
		prefixes: l.Prefixes,
		masker:   m,
		pre:      rules.NewTable(code, "tokenize_pre", pre...),
		post:     rules.NewTable(code, "tokenize_post", commaSeparate, apostrophes),
	}, nil
}

// Shared maskers for the built-in pattern sets.
var (
	basicMasker = mask.MustCompile(mask.BasicProtectedPatterns)
	webMasker   = mask.MustCompile(mask.WebProtectedPatterns)
)

// protector returns the masker for opts, or nil when nothing is protected.
func protector(opts Options) (*mask.Masker, error) {
	var builtin []string
	var shared *mask.Masker
	switch {
	case opts.ProtectWeb:
		builtin, shared = mask.WebProtectedPatterns, webMasker
	case opts.ProtectBasic:
		builtin, shared = mask.BasicProtectedPatterns, basicMasker
	}
	if len(opts.ProtectedPatterns) == 0 {
		return shared, nil
	}
	patterns := append(append([]string(nil), opts.ProtectedPatterns...), builtin...)
	return mask.Compile(patterns)
}

// Options returns the options the tokenizer was built with, with the
// language canonicalized.
func (t *Tokenizer) Options() Options { return t.opts }

// Tokenize splits text into tokens. Empty or blank input yields no tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	return strings.Fields(t.tokenize(text))
}

// TokenizeString returns the tokens joined by single spaces.
func (t *Tokenizer) TokenizeString(text string) string {
	return strings.Join(t.Tokenize(text), " ")
}

func (t *Tokenizer) tokenize(text string) string {
	text = cleanup.Apply(text)

	var restore mask.Restore
	if t.masker != nil {
		text, restore = t.masker.Mask(text)
	}
	text = strings.TrimSpace(text)

	text = t.pre.Apply(text)
	text = replaceMultidots(text)
	text = t.post.Apply(text)
	text = t.nonbreakingPrefixes(text)

	text = strings.TrimSpace(dedupe.Apply(text))
	text = trailingDotApo.Apply(text)

	text = restore.Unmask(text)
	text = restoreMultidots(text)
	if t.opts.EscapeXML {
		text = EscapeXML(text)
	}
	return text
}

// replaceMultidots hides runs of periods behind DOTMULTI markers so the
// sentence-final period rules leave them alone.
func replaceMultidots(text string) string {
	text = multiDotOpen.Apply(text)
	for strings.Contains(text, "DOTMULTI.") {
		text = multiDotSplit.Apply(text)
		text = multiDotJoin.Apply(text)
	}
	return text
}

func restoreMultidots(text string) string {
	for strings.Contains(text, "DOTDOTMULTI") {
		text = strings.ReplaceAll(text, "DOTDOTMULTI", "DOTMULTI.")
	}
	return strings.ReplaceAll(text, "DOTMULTI", ".")
}

// nonbreakingPrefixes splits the final period off every token unless the
// token is a known abbreviation, contains inner periods, or is followed by
// a lowercase word. Numeric-only prefixes stay attached only before a
// number.
func (t *Tokenizer) nonbreakingPrefixes(text string) string {
	tokens := strings.Fields(text)
	for i, tok := range tokens {
		if len(tok) < 2 || !strings.HasSuffix(tok, ".") {
			continue
		}
		prefix := tok[:len(tok)-1]
		numericOnly, known := t.prefixes.Lookup(prefix)
		last := i == len(tokens)-1

		switch {
		case strings.Contains(prefix, ".") && hasAlpha(prefix):
		case known && !numericOnly:
		case !last && unicode.IsLower(firstRune(tokens[i+1])):
		case known && numericOnly && !last && startsWithDigit(tokens[i+1]):
		default:
			tokens[i] = prefix + " ."
		}
	}
	return strings.Join(tokens, " ")
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

// Tokenize is a one-shot helper for the default options of language.
func Tokenize(text, language string) []string {
	t, err := NewTokenizer(DefaultOptions(language))
	if err != nil {
		// Default options carry no protected patterns.
		panic(err)
	}
	return t.Tokenize(text)
}
