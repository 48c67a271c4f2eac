// CLAUDE:SUMMARY Per-language non-breaking prefix tables, language code canonicalization and the registry with English fallback.
package lang

import (
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// Default is the language whose data is used when a code is unknown.
const Default = "en"

//go:embed data/*.yaml
var builtinFS embed.FS

// Prefixes maps an abbreviation to its numeric-only flag.
type Prefixes struct {
	entries map[string]bool
}

func newPrefixes(n int) *Prefixes {
	return &Prefixes{entries: make(map[string]bool, n)}
}

// Lookup reports whether prefix is a non-breaking prefix and whether it
// only stays attached in front of a number.
func (p *Prefixes) Lookup(prefix string) (numericOnly, ok bool) {
	if p == nil {
		return false, false
	}
	numericOnly, ok = p.entries[prefix]
	return numericOnly, ok
}

// Len returns the number of prefixes.
func (p *Prefixes) Len() int {
	if p == nil {
		return 0
	}
	return len(p.entries)
}

// Language is the resolved data for one language code.
type Language struct {
	Code     string
	Name     string
	Prefixes *Prefixes
}

// Canonical maps a user-supplied code ("en_US", "EN", "de-AT") to the
// lowercase base code used to select rules. Codes x/text cannot parse
// (such as the legacy "cz") are kept as written, lowercased.
func Canonical(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	code = strings.ReplaceAll(code, "_", "-")
	if tag, err := language.Raw.Parse(code); err == nil {
		if base, conf := tag.Base(); conf != language.No {
			return base.String()
		}
	}
	if i := strings.IndexByte(code, '-'); i > 0 {
		return code[:i]
	}
	return code
}

// Registry holds language data keyed by canonical code.
// Reads are safe for concurrent use; LoadDir replaces entries atomically.
type Registry struct {
	mu    sync.RWMutex
	langs map[string]*Language
}

// NewRegistry returns a registry preloaded with the embedded languages.
func NewRegistry() (*Registry, error) {
	r := &Registry{langs: make(map[string]*Language)}
	entries, err := builtinFS.ReadDir("data")
	if err != nil {
		return nil, fmt.Errorf("read embedded languages: %w", err)
	}
	for _, e := range entries {
		data, err := builtinFS.ReadFile("data/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read embedded %s: %w", e.Name(), err)
		}
		m, err := parseManifest(data)
		if err != nil {
			return nil, fmt.Errorf("embedded %s: %w", e.Name(), err)
		}
		r.langs[m.Code] = &Language{Code: m.Code, Name: m.Name, Prefixes: m.Table()}
	}
	return r, nil
}

var (
	builtinOnce sync.Once
	builtin     *Registry
)

// Builtin returns the shared registry of embedded languages.
func Builtin() *Registry {
	builtinOnce.Do(func() {
		r, err := NewRegistry()
		if err != nil {
			panic(err)
		}
		builtin = r
	})
	return builtin
}

// LoadDir adds languages from dir. It accepts YAML manifests (*.yaml, *.yml)
// and Moses files named nonbreaking_prefix.<code>. Entries from dir replace
// built-in entries with the same code.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read languages dir %s: %w", dir, err)
	}

	loaded := make(map[string]*Language)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".yaml"), strings.HasSuffix(name, ".yml"):
			m, err := LoadManifest(path)
			if err != nil {
				return err
			}
			loaded[m.Code] = &Language{Code: m.Code, Name: m.Name, Prefixes: m.Table()}
		case strings.HasPrefix(name, "nonbreaking_prefix."):
			code := Canonical(strings.TrimPrefix(name, "nonbreaking_prefix."))
			if code == "" {
				continue
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			p, err := ParseMosesPrefixes(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			loaded[code] = &Language{Code: code, Name: code, Prefixes: p}
		}
	}

	r.mu.Lock()
	for code, l := range loaded {
		r.langs[code] = l
	}
	r.mu.Unlock()
	return nil
}

// Lookup returns the data for code without fallback.
func (r *Registry) Lookup(code string) (*Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.langs[Canonical(code)]
	return l, ok
}

// Resolve returns the data for code. Unknown codes fall back to English
// and the fallback is logged at warning level; ok reports whether code
// itself was known.
func (r *Registry) Resolve(code string) (l *Language, ok bool) {
	if l, ok := r.Lookup(code); ok {
		return l, true
	}
	WarnFallback(code)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if l, ok := r.langs[Default]; ok {
		return l, false
	}
	return &Language{Code: Default, Name: "English", Prefixes: newPrefixes(0)}, false
}

// WarnFallback logs that code has no data of its own and the default
// rules are used instead.
func WarnFallback(code string) {
	slog.Warn("no language data, falling back to default",
		"language", code, "fallback", Default)
}

// Codes returns the known language codes, sorted.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]string, 0, len(r.langs))
	for c := range r.langs {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// LanguageInfo is the public description of a registered language.
type LanguageInfo struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Prefixes int    `json:"nonbreaking_prefixes"`
}

// List returns every registered language, sorted by code.
func (r *Registry) List() []LanguageInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]LanguageInfo, 0, len(r.langs))
	for _, l := range r.langs {
		infos = append(infos, LanguageInfo{Code: l.Code, Name: l.Name, Prefixes: l.Prefixes.Len()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Code < infos[j].Code })
	return infos
}
