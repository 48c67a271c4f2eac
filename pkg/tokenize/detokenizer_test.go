package tokenize

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestDetokenize(t *testing.T) {
	tests := []struct {
		lang, input, want string
	}{
		{"en", "Hello , world !", "Hello, world!"},
		{"en", "This , is a sentence with weird » symbols … appearing everywhere ¿",
			"This, is a sentence with weird » symbols … appearing everywhere ¿"},
		{"en", "This ain &apos;t funny . It &apos;s ( really ) hilarious .",
			"This ain't funny. It's (really) hilarious."},
		{"en", "She said &quot; yes &quot; and left ... finally .",
			`She said "yes" and left... finally.`},
		{"en", "Prices rose 5 % to $ 10 &#91; approx &#93; .", "Prices rose 5% to $10 [approx]."},
		{"en", "The Jones &apos; house", "The Jones' house"},
		{"en", "Hi @-@ there", "Hi-there"},
		{"en", "a &amp; b &#124; c", "a & b | c"},
		{"fr", "Quoi ?", "Quoi ?"},
		{"fr", "l&apos; amour", "l'amour"},
		{"it", "dell&apos; arte", "dell'arte"},
		{"cs", "3 , 14", "3,14"},
		{"en", "3 , 14", "3, 14"},
		{"fi", "EU : N", "EU:n"},
		{"zh", "这 是 测试 。", "这是测试。"},
		{"en", "", ""},
	}
	for _, tt := range tests {
		d := NewDetokenizer(tt.lang)
		got := d.Detokenize(strings.Fields(tt.input), true)
		if got != tt.want {
			t.Errorf("%s: Detokenize(%q)\n got  %q\n want %q", tt.lang, tt.input, got, tt.want)
		}
	}
}

func TestDetokenizeNoUnescape(t *testing.T) {
	d := NewDetokenizer("en")
	if got := d.DetokenizeString("a &amp; b", false); got != "a &amp; b" {
		t.Errorf("no unescape = %q", got)
	}
}

func TestDetokenizeQuoteParity(t *testing.T) {
	d := NewDetokenizer("en")
	in := []string{`"`, "a", `"`, "b", `"`, "c", `"`}
	if got := d.Detokenize(in, false); got != `"a" b "c"` {
		t.Errorf("quote parity = %q", got)
	}
}

func TestDetokenizeHelper(t *testing.T) {
	if got := Detokenize([]string{"Hello", "."}, "en-GB"); got != "Hello." {
		t.Errorf("Detokenize = %q", got)
	}
	if NewDetokenizer("").Language() != "en" {
		t.Error("empty language should default to en")
	}
}

func TestDetokenizerWarnsOnUnknownLanguage(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	NewDetokenizer("fi")
	NewDetokenizer("de")
	if buf.Len() != 0 {
		t.Fatalf("unexpected warning: %s", buf.String())
	}
	if got := NewDetokenizer("xx").Detokenize([]string{"a", ","}, false); got != "a," {
		t.Errorf("xx Detokenize = %q", got)
	}
	if !strings.Contains(buf.String(), "falling back") || !strings.Contains(buf.String(), "language=xx") {
		t.Errorf("missing fallback warning, log = %q", buf.String())
	}
}
