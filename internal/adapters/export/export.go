// Package export writes and reads the run artifact.
//
// The JSON artifact is the wire contract with the visualization layer. The
// write is all-or-nothing: content lands in a temp file in the target
// directory and is renamed into place, so an aborted run never leaves a
// partial artifact behind. A flat companion CSV is emitted for ad-hoc
// inspection.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/okian/ageincome/internal/domain/model"
)

// WriteJSON atomically writes the artifact to path.
func WriteJSON(path string, out *model.RunOutput) error {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	data = append(data, '\n')
	return writeAtomic(path, data)
}

// ReadJSON loads an existing artifact, e.g. for projection post-processing.
func ReadJSON(path string) (*model.RunOutput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var out model.RunOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	return &out, nil
}

// WriteCSV writes the flat companion table: one row per (year, age) cell,
// years and ages ascending, percentile columns in rank order.
func WriteCSV(path string, out *model.RunOutput) error {
	ranks := out.Metadata.PercentilesComputed

	header := []string{"income_year", "age", "n_samples", "est_workforce", "mean"}
	for _, r := range ranks {
		header = append(header, "p"+strconv.FormatFloat(r, 'f', -1, 64))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, year := range out.Years() {
		for _, age := range out.Ages(year) {
			cell, ok := out.Cell(year, age)
			if !ok {
				continue
			}
			row := []string{
				strconv.Itoa(year),
				strconv.Itoa(age),
				strconv.Itoa(cell.NSamples),
				strconv.FormatInt(int64(cell.EstWorkforce), 10),
				formatFloat(cell.Mean),
			}
			for _, r := range ranks {
				row = append(row, formatFloat(cell.Percentiles[r]))
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return writeAtomic(path, buf.Bytes())
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// writeAtomic writes data to a temp file next to path and renames it over.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
