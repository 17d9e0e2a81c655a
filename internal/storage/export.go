package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/plasmasim/internal/dynamo"
)

// TimeColumn is the last CSV column; times are written in milliseconds.
const TimeColumn = "Time (ms)"

var ErrNoTimeColumn = errors.New("storage: missing time column")

// Trajectory is a trajectory read back from CSV.
type Trajectory struct {
	Species []string
	Times   []float64 // s
	States  []dynamo.State
}

// WriteCSV writes one row per sample: species concentrations followed by
// the sample time in milliseconds.
func WriteCSV(w io.Writer, species []string, result *dynamo.Result) error {
	cw := csv.NewWriter(w)

	header := append(append([]string(nil), species...), TimeColumn)
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, state := range result.States {
		if len(state) != len(species) {
			return fmt.Errorf("%w: sample %d has %d values for %d species",
				dynamo.ErrDimensionMismatch, i, len(state), len(species))
		}
		row := make([]string, 0, len(state)+1)
		for _, val := range state {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}
		row = append(row, strconv.FormatFloat(result.Times[i]*1e3, 'g', -1, 64))
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func ExportCSV(path string, species []string, result *dynamo.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(file, species, result); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// ReadCSV parses the WriteCSV layout. Rows that do not parse are skipped.
func ReadCSV(r io.Reader) (*Trajectory, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoTimeColumn
	}

	header := records[0]
	if len(header) == 0 || header[len(header)-1] != TimeColumn {
		return nil, ErrNoTimeColumn
	}
	n := len(header) - 1

	traj := &Trajectory{
		Species: append([]string(nil), header[:n]...),
		Times:   make([]float64, 0, len(records)-1),
		States:  make([]dynamo.State, 0, len(records)-1),
	}

rows:
	for _, record := range records[1:] {
		if len(record) != n+1 {
			continue
		}
		ms, err := strconv.ParseFloat(record[n], 64)
		if err != nil {
			continue
		}
		state := make(dynamo.State, n)
		for j := 0; j < n; j++ {
			state[j], err = strconv.ParseFloat(record[j], 64)
			if err != nil {
				continue rows
			}
		}
		traj.Times = append(traj.Times, ms/1e3)
		traj.States = append(traj.States, state)
	}

	return traj, nil
}

type ExportData struct {
	RunMetadata
	Times  []float64   `json:"times"`
	States [][]float64 `json:"states"`
}

// WriteJSON writes the run metadata together with the full trajectory.
func WriteJSON(w io.Writer, meta RunMetadata, result *dynamo.Result) error {
	data := ExportData{
		RunMetadata: meta,
		Times:       result.Times,
		States:      make([][]float64, len(result.States)),
	}
	for i, s := range result.States {
		data.States[i] = s
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, meta RunMetadata, result *dynamo.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteJSON(file, meta, result); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
