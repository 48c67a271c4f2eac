// CLAUDE:SUMMARY Partial casing frequency tables: exact tenth-unit weights, first-seen positions, associative and commutative merge.
package truecase

import (
	"sort"
	"strconv"
)

// Weight counts observations in tenths. One ordinary observation is 10;
// the weak vote given to a capitalized second token is 1. Integer weights
// keep merging exact regardless of order.
type Weight int64

// Observation weights.
const (
	Unit     Weight = 10
	WeakVote Weight = 1
)

// String formats w as a decimal count ("3", "0.1", "2.5").
func (w Weight) String() string {
	if w%10 == 0 {
		return strconv.FormatInt(int64(w/10), 10)
	}
	return strconv.FormatFloat(float64(w)/10, 'f', 1, 64)
}

// Position locates an observation in the training corpus.
type Position struct {
	Line  int
	Token int
}

// Before reports whether p comes strictly before q in corpus order.
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Token < q.Token
}

// VariantCount is the accumulated weight of one surface form.
type VariantCount struct {
	Weight Weight
	First  Position
}

// Counts is a partial frequency table: case-folded word to surface form
// to accumulated weight. Exported fields let partial tables travel through
// gob between processes.
type Counts struct {
	Words map[string]map[string]VariantCount
}

// NewCounts returns an empty table.
func NewCounts() *Counts {
	return &Counts{Words: make(map[string]map[string]VariantCount)}
}

// Add records one observation.
func (c *Counts) Add(o Observation) {
	c.add(o.Folded, o.Surface, VariantCount{Weight: o.Weight, First: o.Pos})
}

func (c *Counts) add(folded, surface string, v VariantCount) {
	variants, ok := c.Words[folded]
	if !ok {
		variants = make(map[string]VariantCount)
		c.Words[folded] = variants
	}
	cur, ok := variants[surface]
	if !ok {
		variants[surface] = v
		return
	}
	cur.Weight += v.Weight
	if v.First.Before(cur.First) {
		cur.First = v.First
	}
	variants[surface] = cur
}

// Merge folds other into c. Weights add and the earliest first-seen
// position wins, so merging partial tables in any order and grouping
// yields the same table.
func (c *Counts) Merge(other *Counts) {
	if other == nil {
		return
	}
	for folded, variants := range other.Words {
		for surface, v := range variants {
			c.add(folded, surface, v)
		}
	}
}

// MergeCounts merges tables into a fresh one.
func MergeCounts(tables ...*Counts) *Counts {
	out := NewCounts()
	for _, t := range tables {
		out.Merge(t)
	}
	return out
}

// Len returns the number of case-folded words.
func (c *Counts) Len() int { return len(c.Words) }

type rankedVariant struct {
	form string
	VariantCount
}

// ranked orders variants by weight desc, then first-seen asc, then byte
// order of the surface form.
func ranked(variants map[string]VariantCount) []rankedVariant {
	out := make([]rankedVariant, 0, len(variants))
	for form, v := range variants {
		out = append(out, rankedVariant{form: form, VariantCount: v})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		if a.First != b.First {
			return a.First.Before(b.First)
		}
		return a.form < b.form
	})
	return out
}

// Model finalizes the table into a read-only casing model. Records are
// ordered by the first time their word was seen. In ASR mode no surface
// form is trusted as already correct.
func (c *Counts) Model(asr bool) *Model {
	type word struct {
		folded string
		first  Position
		vs     []rankedVariant
	}
	words := make([]word, 0, len(c.Words))
	for folded, variants := range c.Words {
		if len(variants) == 0 {
			continue
		}
		vs := ranked(variants)
		first := vs[0].First
		for _, v := range vs[1:] {
			if v.First.Before(first) {
				first = v.First
			}
		}
		words = append(words, word{folded: folded, first: first, vs: vs})
	}
	sort.Slice(words, func(i, j int) bool {
		if words[i].first != words[j].first {
			return words[i].first.Before(words[j].first)
		}
		return words[i].folded < words[j].folded
	})

	records := make([]Record, 0, len(words))
	for _, w := range words {
		r := Record{Word: w.folded, Variants: make([]Variant, len(w.vs))}
		for i, v := range w.vs {
			r.Variants[i] = Variant{Form: v.form, Weight: v.Weight}
		}
		r.SentenceInitial = !hasUpper(r.Variants[0].Form)
		records = append(records, r)
	}
	return newModel(records, asr)
}
