package rules

// Group is a named, ordered run of rules. Groups are shared read-only
// between tables; a table never appends into a group's backing array.
type Group struct {
	Name  string
	rules []Rule
}

// NewGroup copies rules into a new group.
func NewGroup(name string, rs ...Rule) Group {
	owned := make([]Rule, len(rs))
	copy(owned, rs)
	return Group{Name: name, rules: owned}
}

// Len returns the number of rules in the group.
func (g Group) Len() int { return len(g.rules) }

// Table is an ordered, immutable sequence of rules built for one
// (language, mode) configuration.
type Table struct {
	language string
	mode     string
	groups   []string
	rules    []Rule
}

// NewTable concatenates groups, in order, into a fresh instance-owned slice.
func NewTable(language, mode string, groups ...Group) *Table {
	n := 0
	for _, g := range groups {
		n += len(g.rules)
	}
	t := &Table{
		language: language,
		mode:     mode,
		groups:   make([]string, 0, len(groups)),
		rules:    make([]Rule, 0, n),
	}
	for _, g := range groups {
		t.groups = append(t.groups, g.Name)
		t.rules = append(t.rules, g.rules...)
	}
	return t
}

// Apply runs every rule in table order against the running string.
func (t *Table) Apply(s string) string {
	for _, r := range t.rules {
		s = r.Apply(s)
	}
	return s
}

// Language returns the language code the table was built for.
func (t *Table) Language() string { return t.language }

// Mode returns the mode descriptor the table was built for.
func (t *Table) Mode() string { return t.mode }

// Len returns the number of rules.
func (t *Table) Len() int { return len(t.rules) }

// Groups returns the names of the groups, in assembly order.
func (t *Table) Groups() []string {
	out := make([]string, len(t.groups))
	copy(out, t.groups)
	return out
}
