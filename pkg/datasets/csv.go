package datasets

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ReadCSV parses a dataset in the bundled CSV layout:
//
//	n_samples,n_features
//	name_1,...,name_n,target_name
//	x_1,...,x_n,y
//	...
func ReadCSV(r io.Reader) (*Bunch, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	head, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: line 1: %v", ErrMalformed, err)
	}
	if len(head) < 2 {
		return nil, fmt.Errorf("%w: line 1: expected n_samples,n_features", ErrMalformed)
	}
	nSamples, err := strconv.Atoi(strings.TrimSpace(head[0]))
	if err != nil || nSamples < 0 {
		return nil, fmt.Errorf("%w: line 1: bad sample count %q", ErrMalformed, head[0])
	}
	nFeatures, err := strconv.Atoi(strings.TrimSpace(head[1]))
	if err != nil || nFeatures <= 0 {
		return nil, fmt.Errorf("%w: line 1: bad feature count %q", ErrMalformed, head[1])
	}

	names, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: line 2: missing header", ErrMalformed)
	}
	if len(names) != nFeatures+1 {
		return nil, fmt.Errorf("%w: line 2: got %d names, want %d", ErrMalformed, len(names), nFeatures+1)
	}
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}

	b := &Bunch{
		Data:         make([][]float64, 0, nSamples),
		Target:       make([]float64, 0, nSamples),
		FeatureNames: append([]string(nil), names[:nFeatures]...),
		TargetName:   names[nFeatures],
	}

	for line := 3; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}
		if len(rec) != nFeatures+1 {
			return nil, fmt.Errorf("%w: line %d: got %d fields, want %d", ErrMalformed, line, len(rec), nFeatures+1)
		}
		row := make([]float64, nFeatures)
		for j := 0; j < nFeatures; j++ {
			row[j], err = strconv.ParseFloat(strings.TrimSpace(rec[j]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d, column %s: %v", ErrMalformed, line, b.FeatureNames[j], err)
			}
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(rec[nFeatures]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d, column %s: %v", ErrMalformed, line, b.TargetName, err)
		}
		b.Data = append(b.Data, row)
		b.Target = append(b.Target, y)
	}

	if len(b.Data) != nSamples {
		return nil, fmt.Errorf("%w: got %d samples, header declares %d", ErrMalformed, len(b.Data), nSamples)
	}
	return b, nil
}

// WriteCSV writes b in the layout ReadCSV accepts.
func WriteCSV(w io.Writer, b *Bunch) error {
	if len(b.Data) != len(b.Target) {
		return fmt.Errorf("datasets: %d rows but %d targets", len(b.Data), len(b.Target))
	}
	nFeatures := len(b.FeatureNames)
	target := b.TargetName
	if target == "" {
		target = "target"
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{strconv.Itoa(len(b.Data)), strconv.Itoa(nFeatures)}); err != nil {
		return err
	}
	if err := cw.Write(append(append([]string(nil), b.FeatureNames...), target)); err != nil {
		return err
	}
	rec := make([]string, nFeatures+1)
	for i, row := range b.Data {
		if len(row) != nFeatures {
			return fmt.Errorf("datasets: row %d has %d values, want %d", i, len(row), nFeatures)
		}
		for j, v := range row {
			rec[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		rec[nFeatures] = strconv.FormatFloat(b.Target[i], 'g', -1, 64)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func readCSVFile(path string) (*Bunch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	b.Filename = path
	return b, nil
}

// writeCSVFile replaces path atomically so a reader never sees a partial file.
func writeCSVFile(path string, b *Bunch) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("datasets: create data home: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".dataset-*.csv")
	if err != nil {
		return fmt.Errorf("datasets: create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = WriteCSV(tmp, b); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("datasets: install %s: %w", path, err)
	}
	return nil
}
