// Package analysis summarizes a claim table before cleaning: inferred column
// kinds, missing counts, numeric statistics and per-outcome means.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/claimvision-cli/internal/clean"
	"github.com/KaramelBytes/claimvision-cli/internal/schema"
	"github.com/KaramelBytes/claimvision-cli/internal/table"
)

// Column kinds.
const (
	KindNumeric     = "numeric"
	KindCategorical = "categorical"
	KindText        = "text"
	KindEmpty       = "empty"
)

// missingKey labels the group of rows without an outcome.
const missingKey = "<missing>"

// Options controls inspection.
type Options struct {
	// SampleRows is the number of head rows copied into the report.
	SampleRows int
	// GroupBy is the outcome column whose groups get numeric means. Empty
	// disables grouping.
	GroupBy string
	// MaxCategories is the distinct-value ceiling for a categorical column.
	MaxCategories int
	// TopValues is how many of the most frequent categories are kept.
	TopValues int
}

// DefaultOptions groups by the claim outcome.
func DefaultOptions() Options {
	return Options{SampleRows: 5, GroupBy: schema.ColClaim, MaxCategories: 20, TopValues: 5}
}

// Report describes one table.
type Report struct {
	Name    string
	Rows    int
	Cols    []ColumnSummary
	Samples [][]string
	// GroupBy names the grouping column, empty when no groups were built.
	GroupBy string
	Groups  []Group
	Notes   []string
}

// ColumnSummary holds the inferred kind and statistics of one column.
type ColumnSummary struct {
	Name     string
	Kind     string
	NonNull  int
	Missing  int
	Distinct int

	Min, Max, Mean, Median float64

	Top []Count
}

// Count is one categorical value and how often it occurs.
type Count struct {
	Value string
	N     int
}

// Group carries numeric column means for one outcome value.
type Group struct {
	Key   string
	Size  int
	Means map[string]float64
}

// Inspect summarizes t without modifying it.
func Inspect(t *table.Table, opt Options) *Report {
	if opt.MaxCategories <= 0 {
		opt.MaxCategories = 20
	}
	if opt.TopValues <= 0 {
		opt.TopValues = 5
	}
	rep := &Report{Name: t.Name, Rows: len(t.Rows)}
	for i := 0; i < len(t.Rows) && i < opt.SampleRows; i++ {
		rep.Samples = append(rep.Samples, t.Rows[i])
	}

	var numeric []int
	for ci := range t.Columns {
		cs := summarize(t, ci, opt)
		if cs.Kind == KindNumeric {
			numeric = append(numeric, ci)
		}
		if cs.Missing > 0 {
			rep.Notes = append(rep.Notes, fmt.Sprintf("%s: %d missing", cs.Name, cs.Missing))
		}
		rep.Cols = append(rep.Cols, cs)
	}

	if opt.GroupBy != "" {
		if gi := t.Index(opt.GroupBy); gi < 0 {
			rep.Notes = append(rep.Notes, fmt.Sprintf("group-by column %s not found", opt.GroupBy))
		} else {
			rep.GroupBy = opt.GroupBy
			rep.Groups = groups(t, gi, numeric)
		}
	}
	return rep
}

func summarize(t *table.Table, ci int, opt Options) ColumnSummary {
	cs := ColumnSummary{Name: t.Columns[ci]}
	freq := map[string]int{}
	for r := range t.Rows {
		v := t.Cell(r, ci)
		if table.IsMissing(v) {
			cs.Missing++
			continue
		}
		cs.NonNull++
		freq[strings.TrimSpace(v)]++
	}
	cs.Distinct = len(freq)

	switch {
	case cs.NonNull == 0:
		cs.Kind = KindEmpty
	case t.IsNumeric(ci):
		cs.Kind = KindNumeric
		vals := t.Numbers(ci)
		cs.Min, cs.Max = vals[0], vals[0]
		sum := 0.0
		for _, x := range vals {
			cs.Min = math.Min(cs.Min, x)
			cs.Max = math.Max(cs.Max, x)
			sum += x
		}
		cs.Mean = sum / float64(len(vals))
		cs.Median = clean.Median(vals)
	case cs.Distinct <= opt.MaxCategories:
		cs.Kind = KindCategorical
		cs.Top = top(freq, opt.TopValues)
	default:
		cs.Kind = KindText
		cs.Top = top(freq, 1)
	}
	return cs
}

func top(freq map[string]int, k int) []Count {
	out := make([]Count, 0, len(freq))
	for v, n := range freq {
		out = append(out, Count{Value: v, N: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// groups averages every numeric column per value of column gi, sorted by key.
func groups(t *table.Table, gi int, numeric []int) []Group {
	type acc struct {
		size int
		sum  map[int]float64
		n    map[int]int
	}
	byKey := map[string]*acc{}
	for r := range t.Rows {
		key := strings.TrimSpace(t.Cell(r, gi))
		if table.IsMissing(key) {
			key = missingKey
		}
		a := byKey[key]
		if a == nil {
			a = &acc{sum: map[int]float64{}, n: map[int]int{}}
			byKey[key] = a
		}
		a.size++
		for _, ci := range numeric {
			if x, ok := table.ParseNumber(t.Cell(r, ci)); ok && ci != gi {
				a.sum[ci] += x
				a.n[ci]++
			}
		}
	}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Group, 0, len(keys))
	for _, k := range keys {
		a := byKey[k]
		g := Group{Key: k, Size: a.size, Means: map[string]float64{}}
		for ci, s := range a.sum {
			g.Means[t.Columns[ci]] = s / float64(a.n[ci])
		}
		out = append(out, g)
	}
	return out
}

// Markdown renders the report as Markdown tables.
func (r *Report) Markdown() string {
	var b strings.Builder
	name := r.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(&b, "# Dataset: %s\n\nRows: %d, columns: %d\n\n", name, r.Rows, len(r.Cols))

	b.WriteString("## Columns\n\n")
	writeRow(&b, "column", "kind", "non-null", "missing", "summary")
	writeRule(&b, 5)
	for _, c := range r.Cols {
		writeRow(&b, c.Name, c.Kind, strconv.Itoa(c.NonNull), strconv.Itoa(c.Missing), c.describe())
	}

	if r.GroupBy != "" && len(r.Groups) > 0 {
		var cols []string
		for _, c := range r.Cols {
			if c.Kind == KindNumeric && c.Name != r.GroupBy {
				cols = append(cols, c.Name)
			}
		}
		fmt.Fprintf(&b, "\n## By %s\n\n", r.GroupBy)
		header := append([]string{r.GroupBy, "rows"}, prefixed("mean ", cols)...)
		writeRow(&b, header...)
		writeRule(&b, len(header))
		for _, g := range r.Groups {
			cells := []string{g.Key, strconv.Itoa(g.Size)}
			for _, c := range cols {
				if m, ok := g.Means[c]; ok {
					cells = append(cells, fmt.Sprintf("%.4g", m))
				} else {
					cells = append(cells, "")
				}
			}
			writeRow(&b, cells...)
		}
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n## Head\n\n")
		header := make([]string, len(r.Cols))
		for i, c := range r.Cols {
			header[i] = c.Name
		}
		writeRow(&b, header...)
		writeRule(&b, len(header))
		for _, row := range r.Samples {
			cells := make([]string, len(header))
			copy(cells, row)
			writeRow(&b, cells...)
		}
	}

	if len(r.Notes) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, n := range r.Notes {
			fmt.Fprintf(&b, "- %s\n", n)
		}
	}
	return b.String()
}

func (c ColumnSummary) describe() string {
	switch c.Kind {
	case KindNumeric:
		return fmt.Sprintf("min %.4g, max %.4g, mean %.4g, median %.4g", c.Min, c.Max, c.Mean, c.Median)
	case KindCategorical, KindText:
		parts := make([]string, len(c.Top))
		for i, v := range c.Top {
			parts[i] = fmt.Sprintf("%s %d", v.Value, v.N)
		}
		s := strings.Join(parts, ", ")
		if c.Distinct > len(c.Top) {
			s += fmt.Sprintf(" (%d distinct)", c.Distinct)
		}
		return s
	}
	return ""
}

func prefixed(p string, names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = p + n
	}
	return out
}

func writeRow(b *strings.Builder, cells ...string) {
	b.WriteString("|")
	for _, c := range cells {
		c = strings.NewReplacer("|", "/", "\n", " ").Replace(c)
		if len(c) > 60 {
			c = c[:57] + "..."
		}
		b.WriteString(" " + c + " |")
	}
	b.WriteString("\n")
}

func writeRule(b *strings.Builder, n int) {
	b.WriteString("|" + strings.Repeat(" --- |", n) + "\n")
}
