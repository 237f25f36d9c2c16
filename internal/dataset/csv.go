package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// FromCSV decodes a CSV stream with a header row into a table. Cell values
// are trimmed; ragged rows are rejected by the reader.
func FromCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv stream is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	columns := make([]string, len(header))
	for i, name := range header {
		// Strip a UTF-8 BOM the source occasionally prefixes to the first
		// header cell.
		columns[i] = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(rows)+2, err)
		}
		cells := make([]string, len(record))
		for i, cell := range record {
			cells[i] = strings.TrimSpace(cell)
		}
		rows = append(rows, cells)
	}

	return New(columns, rows)
}
