package lang

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"en-US", "en"},
		{"en_GB", "en"},
		{"de-AT", "de"},
		{" fr ", "fr"},
		{"cz", "cz"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Canonical(tt.input); got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestBuiltinLanguages(t *testing.T) {
	reg := Builtin()
	for _, code := range []string{"en", "de", "fr", "es", "it", "nl", "pt", "cs"} {
		l, ok := reg.Lookup(code)
		if !ok {
			t.Errorf("missing builtin language %s", code)
			continue
		}
		if l.Prefixes.Len() == 0 {
			t.Errorf("%s: empty prefix table", code)
		}
	}
}

func TestEnglishPrefixes(t *testing.T) {
	l, ok := Builtin().Lookup("en")
	if !ok {
		t.Fatal("en not found")
	}
	tests := []struct {
		prefix      string
		known       bool
		numericOnly bool
	}{
		{"Mr", true, false},
		{"Dr", true, false},
		{"e.g", true, false},
		{"N", true, false},
		{"No", true, true},
		{"Art", true, true},
		{"pp", true, true},
		{"house", false, false},
	}
	for _, tt := range tests {
		numeric, ok := l.Prefixes.Lookup(tt.prefix)
		if ok != tt.known || numeric != tt.numericOnly {
			t.Errorf("Lookup(%q) = (%v, %v), want (%v, %v)", tt.prefix, numeric, ok, tt.numericOnly, tt.known)
		}
	}
}

func TestResolveFallback(t *testing.T) {
	reg := Builtin()

	l, ok := reg.Resolve("de-CH")
	if !ok || l.Code != "de" {
		t.Errorf("Resolve(de-CH) = %s, %v", l.Code, ok)
	}

	l, ok = reg.Resolve("xx")
	if ok {
		t.Error("Resolve(xx) reported a known language")
	}
	if l.Code != Default {
		t.Errorf("fallback code = %q, want %q", l.Code, Default)
	}
}

func TestParseMosesPrefixes(t *testing.T) {
	src := `# comment line
Mr

Dr # doctor
No #NUMERIC_ONLY#
#NUMERIC_ONLY# stray
`
	p, err := ParseMosesPrefixes(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseMosesPrefixes: %v", err)
	}
	if p.Len() != 3 {
		t.Errorf("Len = %d, want 3", p.Len())
	}
	if numeric, ok := p.Lookup("No"); !ok || !numeric {
		t.Errorf("No = (%v, %v), want numeric-only", numeric, ok)
	}
	if _, ok := p.Lookup("Dr"); !ok {
		t.Error("Dr missing (inline comment not stripped?)")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	manifest := `code: xx
name: Testish
nonbreaking_prefixes:
  - Foo
numeric_only:
  - Bar
`
	os.WriteFile(filepath.Join(dir, "xx.yaml"), []byte(manifest), 0o644)
	os.WriteFile(filepath.Join(dir, "nonbreaking_prefix.yy"), []byte("Baz\nQux #NUMERIC_ONLY#\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "README"), []byte("ignored"), 0o644)

	reg, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if err := reg.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	xx, ok := reg.Lookup("xx")
	if !ok || xx.Name != "Testish" {
		t.Fatalf("xx not loaded: %+v", xx)
	}
	if numeric, ok := xx.Prefixes.Lookup("Bar"); !ok || !numeric {
		t.Error("Bar should be numeric-only")
	}
	if _, ok := reg.Lookup("yy"); !ok {
		t.Error("yy (Moses format) not loaded")
	}
	if _, ok := reg.Lookup("en"); !ok {
		t.Error("builtin en lost after LoadDir")
	}

	// The shared builtin registry is untouched.
	if _, ok := Builtin().Lookup("xx"); ok {
		t.Error("LoadDir on a private registry leaked into Builtin()")
	}
}

func TestLoadDir_BadManifest(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: no code\n"), 0o644)

	reg, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if err := reg.LoadDir(dir); err == nil {
		t.Error("expected error for manifest without code")
	}
}

func TestLoadDir_Missing(t *testing.T) {
	reg, _ := NewRegistry()
	if err := reg.LoadDir("/nonexistent/languages"); err == nil {
		t.Error("expected error for missing dir")
	}
}

func TestList(t *testing.T) {
	infos := Builtin().List()
	if len(infos) == 0 {
		t.Fatal("List returned nothing")
	}
	for i := 1; i < len(infos); i++ {
		if infos[i-1].Code >= infos[i].Code {
			t.Errorf("List not sorted at %d: %s >= %s", i, infos[i-1].Code, infos[i].Code)
		}
	}
	codes := Builtin().Codes()
	if len(codes) != len(infos) {
		t.Errorf("Codes = %d entries, List = %d", len(codes), len(infos))
	}
}
