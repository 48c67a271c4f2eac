// CLAUDE:SUMMARY Language manifest YAML schema (non-breaking prefixes, numeric-only prefixes) and Moses prefix file parser.
package lang

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrManifest is returned for unreadable or inconsistent language data.
var ErrManifest = errors.New("invalid language manifest")

// numericOnlyMarker flags a prefix in Moses nonbreaking_prefix files.
const numericOnlyMarker = "#NUMERIC_ONLY#"

// Manifest describes one language's tokenization data.
type Manifest struct {
	Code        string   `yaml:"code" json:"code"`
	Name        string   `yaml:"name" json:"name"`
	Prefixes    []string `yaml:"nonbreaking_prefixes" json:"-"`
	NumericOnly []string `yaml:"numeric_only" json:"-"`
}

// LoadManifest reads and parses a language manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	m, err := parseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

func parseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifest, err)
	}
	m.Code = Canonical(m.Code)
	if m.Code == "" {
		return nil, fmt.Errorf("%w: missing code", ErrManifest)
	}
	return &m, nil
}

// Table builds the prefix table described by the manifest.
// Numeric-only prefixes are also non-breaking prefixes.
func (m *Manifest) Table() *Prefixes {
	p := newPrefixes(len(m.Prefixes) + len(m.NumericOnly))
	for _, w := range m.Prefixes {
		if w = strings.TrimSpace(w); w != "" {
			p.entries[w] = false
		}
	}
	for _, w := range m.NumericOnly {
		if w = strings.TrimSpace(w); w != "" {
			p.entries[w] = true
		}
	}
	return p
}

// ParseMosesPrefixes reads the Moses nonbreaking_prefix.<lang> format:
// one prefix per line, '#' comments, and an optional #NUMERIC_ONLY# marker.
func ParseMosesPrefixes(r io.Reader) (*Prefixes, error) {
	p := newPrefixes(0)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		numeric := false
		if i := strings.Index(line, numericOnlyMarker); i >= 0 {
			numeric = true
			line = strings.TrimSpace(line[:i])
		} else if i := strings.Index(line, " #"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}
		p.entries[line] = numeric
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read prefixes: %w", err)
	}
	return p, nil
}
