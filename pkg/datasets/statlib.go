package datasets

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	statLibPreamble = 22
	statLibFirst    = 11 // CRIM..PTRATIO on the first line of a record
	statLibSecond   = 3  // B, LSTAT, MEDV on the second
)

// ParseStatLib parses the Boston housing data as published on StatLib: a
// free-text preamble followed by records wrapped over two lines each.
func ParseStatLib(r io.Reader) (*Bunch, error) {
	sc := bufio.NewScanner(r)
	b := &Bunch{
		FeatureNames: BostonFeatureNames(),
		TargetName:   bostonTargetName,
		Descr:        bostonDescr,
	}

	lineNo := 0
	var pending []float64
	for sc.Scan() {
		lineNo++
		if lineNo <= statLibPreamble {
			continue
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		vals := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: statlib line %d: %v", ErrMalformed, lineNo, err)
			}
			vals[i] = v
		}

		if pending == nil {
			if len(vals) != statLibFirst {
				return nil, fmt.Errorf("%w: statlib line %d: got %d values, want %d", ErrMalformed, lineNo, len(vals), statLibFirst)
			}
			pending = vals
			continue
		}
		if len(vals) != statLibSecond {
			return nil, fmt.Errorf("%w: statlib line %d: got %d values, want %d", ErrMalformed, lineNo, len(vals), statLibSecond)
		}
		row := make([]float64, 0, statLibFirst+statLibSecond-1)
		row = append(row, pending...)
		row = append(row, vals[:2]...)
		b.Data = append(b.Data, row)
		b.Target = append(b.Target, vals[2])
		pending = nil
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("datasets: read statlib: %w", err)
	}
	if pending != nil {
		return nil, fmt.Errorf("%w: statlib record truncated at line %d", ErrMalformed, lineNo)
	}
	if len(b.Data) == 0 {
		return nil, fmt.Errorf("%w: statlib file has no records", ErrMalformed)
	}
	return b, nil
}
