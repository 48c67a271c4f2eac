package rules

import "testing"

func TestTableOrder(t *testing.T) {
	// Order matters: swapping these two rules changes the result.
	first := NewGroup("first", Lit("a", "b"))
	second := NewGroup("second", Lit("b", "c"))

	if got := NewTable("en", "", first, second).Apply("a"); got != "c" {
		t.Errorf("first,second = %q, want c", got)
	}
	if got := NewTable("en", "", second, first).Apply("a"); got != "b" {
		t.Errorf("second,first = %q, want b", got)
	}
}

func TestTableRepeatedRule(t *testing.T) {
	collapse := MustRe(` +`, " ")
	g1 := NewGroup("g1", collapse, Lit("x", "  "))
	g2 := NewGroup("g2", collapse)
	tbl := NewTable("en", "", g1, g2)

	if tbl.Len() != 3 {
		t.Fatalf("Len = %d, want 3", tbl.Len())
	}
	if got := tbl.Apply("a  x  b"); got != "a b" {
		t.Errorf("Apply = %q, want %q", got, "a b")
	}
}

func TestTableIsolation(t *testing.T) {
	// A group whose backing array has spare capacity must not leak
	// rules appended by one table into another.
	backing := make([]Rule, 1, 8)
	backing[0] = Lit("a", "b")
	base := Group{Name: "base", rules: backing}

	t1 := NewTable("en", "one", base, NewGroup("extra", Lit("b", "X")))
	t2 := NewTable("en", "two", base, NewGroup("other", Lit("b", "Y")))

	if got := t1.Apply("a"); got != "X" {
		t.Errorf("t1 = %q, want X", got)
	}
	if got := t2.Apply("a"); got != "Y" {
		t.Errorf("t2 = %q, want Y", got)
	}
	if base.Len() != 1 {
		t.Errorf("base group grew to %d rules", base.Len())
	}
}

func TestTableAccessors(t *testing.T) {
	tbl := NewTable("fr", "penn", NewGroup("a", Lit("x", "y")), NewGroup("b"))
	if tbl.Language() != "fr" || tbl.Mode() != "penn" {
		t.Errorf("Language/Mode = %q/%q", tbl.Language(), tbl.Mode())
	}
	if got := tbl.Groups(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Groups = %v, want [a b]", got)
	}
	if tbl.Len() != 1 {
		t.Errorf("Len = %d, want 1", tbl.Len())
	}

	gs := tbl.Groups()
	gs[0] = "z"
	if tbl.Groups()[0] != "a" {
		t.Error("mutating Groups() copy changed the table")
	}
}
