package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the type tag assigned to a column once, when the table is built.
type Kind string

const (
	Numeric Kind = "numeric"
	Text    Kind = "text"
)

// Column is a named, typed sequence of cells. Numeric columns keep their values in
// Nums (NaN where missing); text columns keep them in Texts. Valid marks present cells.
type Column struct {
	Name  string
	Kind  Kind
	Nums  []float64
	Texts []string
	Valid []bool
}

// Table is an ordered set of columns sharing one row count.
type Table struct {
	Columns []*Column
}

// New returns an empty table.
func New() *Table { return &Table{} }

// Rows returns the shared row count.
func (t *Table) Rows() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// Names lists column names in order.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Column looks up a column by exact name.
func (t *Table) Column(name string) (*Column, bool) {
	if t == nil {
		return nil, false
	}
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// NumericColumns returns the numeric columns in table order.
func (t *Table) NumericColumns() []*Column {
	if t == nil {
		return nil
	}
	var out []*Column
	for _, c := range t.Columns {
		if c.Kind == Numeric {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of cells in the column.
func (c *Column) Len() int { return len(c.Valid) }

// IsMissing reports whether cell i is missing.
func (c *Column) IsMissing(i int) bool { return !c.Valid[i] }

// CountMissing returns how many cells are missing.
func (c *Column) CountMissing() int {
	n := 0
	for _, ok := range c.Valid {
		if !ok {
			n++
		}
	}
	return n
}

// Present returns the column's non-missing numeric values in row order.
func (c *Column) Present() []float64 {
	if c.Kind != Numeric {
		return nil
	}
	out := make([]float64, 0, len(c.Nums))
	for i, v := range c.Nums {
		if c.Valid[i] {
			out = append(out, v)
		}
	}
	return out
}

// SetNumber stores v in cell i. NaN leaves the cell missing.
func (c *Column) SetNumber(i int, v float64) {
	c.Nums[i] = v
	c.Valid[i] = !math.IsNaN(v)
}

// Cell renders cell i the way it is written back to disk; missing cells are empty.
func (c *Column) Cell(i int) string {
	if !c.Valid[i] {
		return ""
	}
	if c.Kind == Numeric {
		return FormatNumber(c.Nums[i])
	}
	return c.Texts[i]
}

// FormatNumber writes integral values without an exponent and everything else in the
// shortest form that parses back to the same float64.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// missingTokens mirrors the markers pandas treats as NA by default.
var missingTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// IsMissingToken reports whether a raw cell denotes a missing value.
func IsMissingToken(s string) bool {
	_, ok := missingTokens[strings.TrimSpace(s)]
	return ok
}

// FromRecords builds a table from a header and raw string rows, inferring each column's
// kind in a single scan: a column is numeric when every present cell parses as a float.
// A column with rows but no present cells is numeric; a column with no rows is text.
// Short rows are padded with missing cells; long rows are rejected.
func FromRecords(header []string, rows [][]string) (*Table, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("no columns in header")
	}
	names := dedupeNames(header)
	ncol := len(names)
	for i, rec := range rows {
		if len(rec) > ncol {
			return nil, fmt.Errorf("row %d: expected %d fields, saw %d", i+1, ncol, len(rec))
		}
	}

	t := &Table{Columns: make([]*Column, ncol)}
	for j, name := range names {
		raw := make([]string, len(rows))
		for i, rec := range rows {
			if j < len(rec) {
				raw[i] = rec[j]
			}
		}
		t.Columns[j] = buildColumn(name, raw)
	}
	return t, nil
}

func buildColumn(name string, raw []string) *Column {
	valid := make([]bool, len(raw))
	nums := make([]float64, len(raw))
	numeric := len(raw) > 0
	for i, s := range raw {
		if IsMissingToken(s) {
			nums[i] = math.NaN()
			continue
		}
		valid[i] = true
		if !numeric {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			numeric = false
			continue
		}
		nums[i] = f
	}
	if numeric {
		return &Column{Name: name, Kind: Numeric, Nums: nums, Valid: valid}
	}
	texts := make([]string, len(raw))
	for i, s := range raw {
		if valid[i] {
			texts[i] = s
		}
	}
	return &Column{Name: name, Kind: Text, Texts: texts, Valid: valid}
}

// Records flattens the table back to a header and string rows.
func (t *Table) Records() ([]string, [][]string) {
	header := t.Names()
	n := t.Rows()
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			row[j] = c.Cell(i)
		}
		rows[i] = row
	}
	return header, rows
}

// dedupeNames strips a UTF-8 BOM from the first name and suffixes repeats as "name.1", "name.2".
func dedupeNames(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	next := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		name := h
		for used[name] {
			next[h]++
			name = fmt.Sprintf("%s.%d", h, next[h])
		}
		used[name] = true
		out[i] = name
	}
	return out
}
