package solution

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// Header is the table header; the value is always the fourth column.
var Header = []string{"variable", "index_1", "index_2", "value"}

const valueColumn = 3

func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		if len(r.Index) > MaxIndex {
			return fmt.Errorf("row %s has %d indices, at most %d supported", r.Variable, len(r.Index), MaxIndex)
		}
		rec := []string{r.Variable, "", "", fmtFloat(r.Value)}
		for k, idx := range r.Index {
			rec[1+k] = strconv.Itoa(idx)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the table to path, creating parent directories.
func WriteFile(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)
	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("solution table is empty")
		}
		return nil, err
	}
	if head[0] != Header[0] || head[valueColumn] != Header[valueColumn] {
		return nil, fmt.Errorf("unexpected solution header %v", head)
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		row := Row{Variable: rec[0]}
		for _, s := range rec[1:valueColumn] {
			if s == "" {
				continue
			}
			idx, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad index %q: %w", line, s, err)
			}
			row.Index = append(row.Index, idx)
		}
		row.Value, err = strconv.ParseFloat(rec[valueColumn], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad value %q: %w", line, rec[valueColumn], err)
		}
		rows = append(rows, row)
	}
}

func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
