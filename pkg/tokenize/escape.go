package tokenize

import "github.com/hazyhaar/textprep/pkg/rules"

// The ampersand goes first so later entities are not escaped twice.
var escapeTable = rules.NewTable("", "escape_xml", rules.NewGroup("escape_xml",
	rules.Lit("&", "&amp;"),
	rules.Lit("|", "&#124;"),
	rules.Lit("<", "&lt;"),
	rules.Lit(">", "&gt;"),
	rules.Lit("'", "&apos;"),
	rules.Lit(`"`, "&quot;"),
	rules.Lit("[", "&#91;"),
	rules.Lit("]", "&#93;"),
))

// &amp; goes last so "&amp;lt;" decodes to "&lt;" and not "<".
var unescapeTable = rules.NewTable("", "unescape_xml", rules.NewGroup("unescape_xml",
	rules.Lit("&bar;", "|"),
	rules.Lit("&#124;", "|"),
	rules.Lit("&lt;", "<"),
	rules.Lit("&gt;", ">"),
	rules.Lit("&bra;", "["),
	rules.Lit("&ket;", "]"),
	rules.Lit("&quot;", `"`),
	rules.Lit("&apos;", "'"),
	rules.Lit("&#91;", "["),
	rules.Lit("&#93;", "]"),
	rules.Lit("&amp;", "&"),
))

// EscapeXML replaces the characters reserved by Moses tools with entities.
func EscapeXML(s string) string { return escapeTable.Apply(s) }

// UnescapeXML reverses EscapeXML, also accepting the legacy &bar; &bra;
// and &ket; entities.
func UnescapeXML(s string) string { return unescapeTable.Apply(s) }
