package dataset

import (
	"fmt"

	"incidentcli/internal/errors"
)

// Table is an immutable, column-addressed view of tabular data. Cells are
// strings as decoded from the source; typed interpretation (dates, booleans)
// happens in the normalizer and downstream stages. Derived tables share no
// state with their source, so a caller always retains its original.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// New builds a table from a column list and row data. Every row must have
// exactly one cell per column.
func New(columns []string, rows [][]string) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		index[name] = i
	}

	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d cells, table has %d columns", i, len(row), len(columns))
		}
	}

	return &Table{
		columns: append([]string(nil), columns...),
		index:   index,
		rows:    rows,
	}, nil
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Value returns the cell at the given row for the named column.
func (t *Table) Value(row int, column string) (string, error) {
	idx, ok := t.index[column]
	if !ok {
		return "", errors.UnknownColumn(column)
	}
	if row < 0 || row >= len(t.rows) {
		return "", fmt.Errorf("row %d out of range [0,%d)", row, len(t.rows))
	}
	return t.rows[row][idx], nil
}

// Column returns all values of the named column in row order.
func (t *Table) Column(name string) ([]string, error) {
	idx, ok := t.index[name]
	if !ok {
		return nil, errors.UnknownColumn(name)
	}
	values := make([]string, len(t.rows))
	for i, row := range t.rows {
		values[i] = row[idx]
	}
	return values, nil
}

// Drop returns a new table without the named columns. Dropping a column the
// table does not have is a no-op, which keeps callers robust against schema
// drift in the source dataset.
func (t *Table) Drop(columns ...string) *Table {
	dropped := make(map[string]bool, len(columns))
	for _, name := range columns {
		dropped[name] = true
	}

	var keep []int
	var keepNames []string
	for i, name := range t.columns {
		if !dropped[name] {
			keep = append(keep, i)
			keepNames = append(keepNames, name)
		}
	}

	rows := make([][]string, len(t.rows))
	for i, row := range t.rows {
		cells := make([]string, len(keep))
		for j, idx := range keep {
			cells[j] = row[idx]
		}
		rows[i] = cells
	}

	out, err := New(keepNames, rows)
	if err != nil {
		// Unreachable: keepNames is a subset of an already-unique column set.
		panic(err)
	}
	return out
}

// withColumn returns a copy of the table with the named column's values
// replaced. Used by the normalizer; not part of the public surface.
func (t *Table) withColumn(name string, values []string) (*Table, error) {
	idx, ok := t.index[name]
	if !ok {
		return nil, errors.UnknownColumn(name)
	}
	if len(values) != len(t.rows) {
		return nil, fmt.Errorf("column %q: %d values for %d rows", name, len(values), len(t.rows))
	}

	rows := make([][]string, len(t.rows))
	for i, row := range t.rows {
		cells := append([]string(nil), row...)
		cells[idx] = values[i]
		rows[i] = cells
	}
	return New(t.columns, rows)
}
