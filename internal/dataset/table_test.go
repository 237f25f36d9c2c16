package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"incidentcli/internal/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		rows    [][]string
		wantErr string
	}{
		{
			name:    "valid table",
			columns: []string{"region", "race"},
			rows:    [][]string{{"BRONX", "BLACK"}, {"QUEENS", "WHITE"}},
		},
		{
			name:    "duplicate column",
			columns: []string{"region", "region"},
			wantErr: "duplicate column",
		},
		{
			name:    "ragged row",
			columns: []string{"region", "race"},
			rows:    [][]string{{"BRONX"}},
			wantErr: "has 1 cells",
		},
		{
			name:    "empty table",
			columns: []string{"region"},
			rows:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := New(tt.columns, tt.rows)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.rows), table.Len())
			assert.Equal(t, tt.columns, table.Columns())
		})
	}
}

func TestTable_Value(t *testing.T) {
	table, err := New([]string{"region", "race"}, [][]string{{"BRONX", "BLACK"}})
	require.NoError(t, err)

	got, err := table.Value(0, "race")
	require.NoError(t, err)
	assert.Equal(t, "BLACK", got)

	_, err = table.Value(0, "precinct")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeUnknownColumn))

	_, err = table.Value(5, "region")
	assert.Error(t, err)
}

func TestTable_Drop(t *testing.T) {
	table, err := New(
		[]string{"occur_date", "region", "precinct", "race"},
		[][]string{{"01/15/2020", "BRONX", "40", "BLACK"}},
	)
	require.NoError(t, err)

	dropped := table.Drop("precinct", "jurisdiction_code")

	assert.Equal(t, []string{"occur_date", "region", "race"}, dropped.Columns())
	assert.Equal(t, 1, dropped.Len())

	// Source table is untouched.
	assert.Equal(t, []string{"occur_date", "region", "precinct", "race"}, table.Columns())

	got, err := dropped.Value(0, "race")
	require.NoError(t, err)
	assert.Equal(t, "BLACK", got)
}

func TestTable_DropUnknownColumnIsNoOp(t *testing.T) {
	table, err := New([]string{"region"}, [][]string{{"BRONX"}})
	require.NoError(t, err)

	dropped := table.Drop("no_such_column")
	assert.Equal(t, table.Columns(), dropped.Columns())
}

func TestFromCSV(t *testing.T) {
	input := "occur_date,region,race,fatal\n" +
		"01/15/2020, BRONX ,BLACK,true\n" +
		"02/20/2020,QUEENS,WHITE,false\n"

	table, err := FromCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"occur_date", "region", "race", "fatal"}, table.Columns())

	region, err := table.Value(0, "region")
	require.NoError(t, err)
	assert.Equal(t, "BRONX", region, "cells are trimmed")
}

func TestFromCSV_BOMHeader(t *testing.T) {
	input := "\ufeffregion,race\nBRONX,BLACK\n"

	table, err := FromCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.True(t, table.HasColumn("region"))
}

func TestFromCSV_Empty(t *testing.T) {
	_, err := FromCSV(strings.NewReader(""))
	assert.Error(t, err)
}
