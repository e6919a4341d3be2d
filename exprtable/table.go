// Package exprtable loads a transcript-by-sample expression matrix. The first
// column holds the transcript identifiers; the header row holds the sample
// names, each optionally carrying an assay prefix such as "FPKM.".
package exprtable

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// DefaultPrefix is the assay token stripped from sample column headers.
const DefaultPrefix = "FPKM."

// Table is an immutable expression matrix. Missing cells hold NaN.
type Table struct {
	IndexName string
	Columns   []string
	RowIDs    []string

	// values is nil when the table has no rows or no sample columns, since
	// gonum refuses zero-sized matrices.
	values *mat.Dense

	rowIndex map[string]int
	colIndex map[string]int
}

// NewTable builds a Table from row-major values. It is used by Load and is
// handy for constructing tables in memory.
func NewTable(indexName string, columns, rowIDs []string, rows [][]float64) (*Table, error) {
	if len(rows) != len(rowIDs) {
		return nil, fmt.Errorf("%d row ids but %d rows of values", len(rowIDs), len(rows))
	}

	colIndex, err := indexNames("column", columns)
	if err != nil {
		return nil, err
	}
	rowIndex, err := indexNames("transcript id", rowIDs)
	if err != nil {
		return nil, err
	}

	t := &Table{
		IndexName: indexName,
		Columns:   columns,
		RowIDs:    rowIDs,
		rowIndex:  rowIndex,
		colIndex:  colIndex,
	}

	if len(rows) == 0 || len(columns) == 0 {
		return t, nil
	}

	data := make([]float64, 0, len(rows)*len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %s has %d values, expected %d", rowIDs[i], len(row), len(columns))
		}
		data = append(data, row...)
	}
	t.values = mat.NewDense(len(rows), len(columns), data)

	return t, nil
}

// NRows is the number of transcripts.
func (t *Table) NRows() int { return len(t.RowIDs) }

// NCols is the number of sample columns, excluding the index column.
func (t *Table) NCols() int { return len(t.Columns) }

// Row copies the values for transcript row i into dst (allocating when dst is
// too small) and returns it.
func (t *Table) Row(dst []float64, i int) []float64 {
	if cap(dst) < t.NCols() {
		dst = make([]float64, t.NCols())
	}
	dst = dst[:t.NCols()]
	if t.values == nil {
		return dst
	}

	return mat.Row(dst, i, t.values)
}

// ColumnIndex returns the position of the named sample column, or -1.
func (t *Table) ColumnIndex(name string) int {
	if j, exists := t.colIndex[name]; exists {
		return j
	}

	return -1
}

// HasRow reports whether id is a transcript in the table.
func (t *Table) HasRow(id string) bool {
	_, exists := t.rowIndex[id]
	return exists
}

// IsMissing reports whether a cell value stands for a missing measurement.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// indexNames maps each name to its position, rejecting duplicates.
func indexNames(what string, names []string) (map[string]int, error) {
	out := make(map[string]int, len(names))
	for i, name := range names {
		if _, exists := out[name]; exists {
			return nil, fmt.Errorf("duplicate %s %q", what, name)
		}
		out[name] = i
	}

	return out, nil
}
