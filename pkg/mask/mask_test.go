package mask

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMaskBasic(t *testing.T) {
	m := MustCompile(BasicProtectedPatterns)
	tests := []struct {
		input, masked string
		spans         []string
	}{
		{"Visit https://example.com/docs/page.html today",
			"Visit THISISPROTECTED000 today",
			[]string{"https://example.com/docs/page.html"}},
		{"mail jane.doe@example.org or <b>",
			"mail THISISPROTECTED000 or THISISPROTECTED001",
			[]string{"jane.doe@example.org", "<b>"}},
		{"no protected text here", "no protected text here", nil},
		{"", "", nil},
	}
	for _, tt := range tests {
		masked, r := m.Mask(tt.input)
		if masked != tt.masked {
			t.Errorf("Mask(%q) = %q, want %q", tt.input, masked, tt.masked)
		}
		if len(r.Spans) != len(tt.spans) {
			t.Errorf("Mask(%q) spans = %q, want %q", tt.input, r.Spans, tt.spans)
			continue
		}
		for i := range tt.spans {
			if r.Spans[i] != tt.spans[i] {
				t.Errorf("span %d = %q, want %q", i, r.Spans[i], tt.spans[i])
			}
		}
		if got := r.Unmask(masked); got != tt.input {
			t.Errorf("Unmask = %q, want %q", got, tt.input)
		}
	}
}

func TestMaskFirstPatternWins(t *testing.T) {
	m := MustCompile([]string{`ab`, `abc`, `c`})
	masked, r := m.Mask("abc c")
	// "abc" overlaps the accepted "ab" and is dropped; the "c" inside it
	// is still free and gets its own placeholder.
	want := "THISISPROTECTED000THISISPROTECTED001 THISISPROTECTED002"
	if masked != want {
		t.Fatalf("Mask = %q, want %q", masked, want)
	}
	if strings.Join(r.Spans, "|") != "ab|c|c" {
		t.Errorf("spans = %q", r.Spans)
	}
	if got := r.Unmask(masked); got != "abc c" {
		t.Errorf("Unmask = %q", got)
	}
}

func TestMaskCaseInsensitive(t *testing.T) {
	m := MustCompile([]string{`hello`})
	masked, r := m.Mask("say HeLLo")
	if masked != "say THISISPROTECTED000" || r.Spans[0] != "HeLLo" {
		t.Errorf("Mask = %q, spans %q", masked, r.Spans)
	}
}

func TestMaskNonASCII(t *testing.T) {
	m := MustCompile([]string{`<[^>]+>`})
	in := "café <tag> naïve <é>"
	masked, r := m.Mask(in)
	if masked != "café THISISPROTECTED000 naïve THISISPROTECTED001" {
		t.Errorf("Mask = %q", masked)
	}
	if got := r.Unmask(masked); got != in {
		t.Errorf("Unmask = %q, want %q", got, in)
	}
}

func TestMaskPrefixCollision(t *testing.T) {
	m := MustCompile([]string{`<x>`})
	in := "THISISPROTECTED000 <x>"
	masked, r := m.Mask(in)
	if r.Prefix == DefaultPrefix {
		t.Fatalf("prefix not changed despite collision")
	}
	if !strings.HasPrefix(masked, "THISISPROTECTED000 ") {
		t.Errorf("original text altered: %q", masked)
	}
	if got := r.Unmask(masked); got != in {
		t.Errorf("Unmask = %q, want %q", got, in)
	}
}

func TestUnmaskManySpans(t *testing.T) {
	m := MustCompile([]string{`x\d+`})
	var parts []string
	for i := 0; i < 1200; i++ {
		parts = append(parts, "x"+strings.Repeat("1", i%5+1))
	}
	in := strings.Join(parts, " ")
	masked, r := m.Mask(in)
	if r.Len() != 1200 {
		t.Fatalf("Len = %d, want 1200", r.Len())
	}
	if got := Unmask(masked, r); got != in {
		t.Error("round trip over 1000 placeholders failed")
	}
}

func TestCompileInvalid(t *testing.T) {
	_, err := Compile([]string{`ok`, `(unclosed`})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("error %v does not wrap ErrInvalidPattern", err)
	}
	var pe *PatternError
	if !errors.As(err, &pe) || pe.Index != 1 || pe.Pattern != "(unclosed" {
		t.Errorf("PatternError = %+v", pe)
	}
}

func TestWebPatterns(t *testing.T) {
	m := MustCompile(WebProtectedPatterns)
	in := "see https://example.com/search?q=go&x=1 and www.golang.org #golang @gopher"
	masked, r := m.Mask(in)
	want := "see THISISPROTECTED000 and THISISPROTECTED001 THISISPROTECTED002 THISISPROTECTED003"
	if masked != want {
		t.Errorf("Mask = %q, want %q", masked, want)
	}
	if r.Spans[0] != "https://example.com/search?q=go&x=1" {
		t.Errorf("url span = %q", r.Spans[0])
	}
}

func TestNilMasker(t *testing.T) {
	var m *Masker
	masked, r := m.Mask("a b")
	if masked != "a b" || r.Len() != 0 {
		t.Errorf("nil masker changed text: %q", masked)
	}
	if m.Patterns() != nil {
		t.Error("nil masker has patterns")
	}
}

func TestMaskBacktrackingPatternTimesOut(t *testing.T) {
	m, err := Compile([]string{`(a+)+$`, `x\d`})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	in := strings.Repeat("a", 40) + "! x1"

	done := make(chan struct{})
	var masked string
	var r Restore
	go func() {
		masked, r = m.Mask(in)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Mask did not return on a backtracking pattern")
	}

	want := strings.Repeat("a", 40) + "! THISISPROTECTED000"
	if masked != want {
		t.Errorf("Mask = %q, want %q", masked, want)
	}
	if r.Len() != 1 || r.Spans[0] != "x1" {
		t.Errorf("spans = %q", r.Spans)
	}
}
