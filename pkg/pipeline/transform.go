package pipeline

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// Select keeps the given columns in the given order.
type Select struct {
	Columns []int
}

// SelectByName resolves names against the dataset column names.
func SelectByName(all []string, names ...string) (*Select, error) {
	cols, err := columnsByName(all, names)
	if err != nil {
		return nil, err
	}
	return &Select{Columns: cols}, nil
}

func columnsByName(all, names []string) ([]int, error) {
	if len(names) == 0 {
		return nil, errors.New("pipeline: no columns named")
	}
	cols := make([]int, len(names))
	for i, n := range names {
		j := slices.Index(all, n)
		if j < 0 {
			return nil, fmt.Errorf("pipeline: unknown column %q", n)
		}
		cols[i] = j
	}
	return cols, nil
}

// Fit is a no-op; the columns are fixed.
func (s *Select) Fit([][]float64) error { return nil }

// Transform returns new rows holding only the selected columns.
func (s *Select) Transform(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		picked := make([]float64, len(s.Columns))
		for j, c := range s.Columns {
			if c < 0 || c >= len(row) {
				return nil, fmt.Errorf("pipeline: row %d has no column %d", i, c)
			}
			picked[j] = row[c]
		}
		out[i] = picked
	}
	return out, nil
}

// Log1p replaces the given columns with log(1+x). Skewed columns such as
// CRIM and LSTAT become closer to symmetric.
type Log1p struct {
	Columns []int
}

// Log1pByName resolves names against the dataset column names.
func Log1pByName(all []string, names ...string) (*Log1p, error) {
	cols, err := columnsByName(all, names)
	if err != nil {
		return nil, err
	}
	return &Log1p{Columns: cols}, nil
}

// Fit is a no-op; the transform has no learned state.
func (l *Log1p) Fit([][]float64) error { return nil }

// Transform returns copies of the rows with the chosen columns log-scaled.
func (l *Log1p) Transform(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		r := append([]float64(nil), row...)
		for _, c := range l.Columns {
			if c < 0 || c >= len(r) {
				return nil, fmt.Errorf("pipeline: row %d has no column %d", i, c)
			}
			if r[c] <= -1 {
				return nil, fmt.Errorf("pipeline: log1p of %v in row %d column %d", r[c], i, c)
			}
			r[c] = math.Log1p(r[c])
		}
		out[i] = r
	}
	return out, nil
}
