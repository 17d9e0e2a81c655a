package ratetable

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed data/rates.csv
var defaultRates []byte

var (
	nameColumns = []string{"reaction"}
	rateColumns = []string{"rate_constant", "value"}
)

// Default returns the table bundled with the binary.
func Default() (*Table, error) {
	return Load(bytes.NewReader(defaultRates))
}

// LoadFile reads a rate table from a CSV file.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Load parses CSV with a header naming a Reaction column and a Rate_Constant
// or Value column. Other columns are ignored, rows with an empty name or
// rate are dropped.
func Load(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyTable
		}
		return nil, err
	}

	nameCol := findColumn(header, nameColumns)
	if nameCol < 0 {
		return nil, fmt.Errorf("%w: Reaction", ErrMissingColumn)
	}
	rateCol := findColumn(header, rateColumns)
	if rateCol < 0 {
		return nil, fmt.Errorf("%w: Rate_Constant or Value", ErrMissingColumn)
	}

	var entries []Entry
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if nameCol >= len(rec) || rateCol >= len(rec) {
			continue
		}
		entries = append(entries, NewEntry(rec[nameCol], rec[rateCol]))
	}

	t, err := New(entries)
	if err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return nil, ErrEmptyTable
	}
	return t, nil
}

func findColumn(header []string, names []string) int {
	for _, want := range names {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), want) {
				return i
			}
		}
	}
	return -1
}
