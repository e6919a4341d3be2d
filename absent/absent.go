// Package absent finds transcripts whose mean expression across a group of
// samples is exactly zero.
package absent

import (
	"errors"
	"fmt"
	"math"

	"github.com/carbocation/pavs/exprtable"
	"gonum.org/v1/gonum/stat"
)

// ErrNoColumns is returned when a group has no columns to average over.
var ErrNoColumns = errors.New("no columns selected: the group mean is undefined")

// Predicate decides whether a transcript with the given group mean is of
// interest.
type Predicate func(mean float64) bool

// IsZero is the absence predicate. The comparison is exact: any non-zero mean,
// however small, excludes the transcript.
func IsZero(mean float64) bool {
	return mean == 0
}

// Means computes, for each transcript, the arithmetic mean of its values in
// cols. Missing cells are skipped; a row with no measured cell gets NaN. A
// column listed twice in cols counts twice.
func Means(t *exprtable.Table, cols []int) ([]float64, error) {
	if len(cols) == 0 {
		return nil, ErrNoColumns
	}
	for _, j := range cols {
		if j < 0 || j >= t.NCols() {
			return nil, fmt.Errorf("column index %d out of range [0, %d)", j, t.NCols())
		}
	}

	out := make([]float64, t.NRows())
	row := make([]float64, t.NCols())
	x := make([]float64, 0, len(cols))
	for i := range out {
		row = t.Row(row, i)

		x = x[:0]
		for _, j := range cols {
			if exprtable.IsMissing(row[j]) {
				continue
			}
			x = append(x, row[j])
		}

		if len(x) == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = stat.Mean(x, nil)
	}

	return out, nil
}

// Select returns, in table row order, the ids of transcripts whose mean
// satisfies pred.
func Select(t *exprtable.Table, means []float64, pred Predicate) []string {
	out := make([]string, 0)
	for i, mean := range means {
		if pred(mean) {
			out = append(out, t.RowIDs[i])
		}
	}

	return out
}

// Find returns the transcripts whose mean over cols is exactly zero.
func Find(t *exprtable.Table, cols []int) ([]string, error) {
	means, err := Means(t, cols)
	if err != nil {
		return nil, err
	}

	return Select(t, means, IsZero), nil
}

// AllColumns lists every column index of t.
func AllColumns(t *exprtable.Table) []int {
	out := make([]int, t.NCols())
	for j := range out {
		out[j] = j
	}

	return out
}

// FindAll returns the transcripts whose mean over every column is exactly
// zero, independent of any clade grouping.
func FindAll(t *exprtable.Table) ([]string, error) {
	return Find(t, AllColumns(t))
}
