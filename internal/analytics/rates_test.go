package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"incidentcli/internal/dataset"
	"incidentcli/internal/errors"
)

// rateTable builds one group of 10 rows with 2 fatal incidents.
func rateTable(t *testing.T) *dataset.Table {
	t.Helper()
	rows := make([][]string, 10)
	for i := range rows {
		fatal := "0"
		if i < 2 {
			fatal = "1"
		}
		rows[i] = []string{"R1", fatal}
	}
	table, err := dataset.New([]string{"region", "is_fatal"}, rows)
	require.NoError(t, err)
	return table
}

func TestCalculator_Rates_Fraction(t *testing.T) {
	table := rateTable(t)
	agg := NewAggregator(nil)
	calc := NewCalculator(nil)
	ctx := context.Background()

	grouped, err := agg.CountBy(ctx, table, "region")
	require.NoError(t, err)

	rates, err := calc.Rates(ctx, table, grouped, "is_fatal", RateOptions{})
	require.NoError(t, err)

	require.Len(t, rates, 1)
	assert.Equal(t, 10, rates[0].Count)
	assert.Equal(t, 2, rates[0].LethalCount)
	assert.InDelta(t, 0.2, rates[0].LethalRate, 1e-12)
}

func TestCalculator_Rates_Percent(t *testing.T) {
	table := rateTable(t)
	agg := NewAggregator(nil)
	calc := NewCalculator(nil)
	ctx := context.Background()

	grouped, err := agg.CountBy(ctx, table, "region")
	require.NoError(t, err)

	rates, err := calc.Rates(ctx, table, grouped, "is_fatal", RateOptions{Percent: true})
	require.NoError(t, err)

	require.Len(t, rates, 1)
	assert.InDelta(t, 20.0, rates[0].LethalRate, 1e-12)
}

func TestCalculator_Rates_Bounds(t *testing.T) {
	rows := [][]string{
		{"R1", "A", "1"},
		{"R1", "A", "0"},
		{"R1", "B", "0"},
		{"R2", "A", "1"},
		{"R2", "A", "1"},
	}
	table, err := dataset.New([]string{"region", "race", "is_fatal"}, rows)
	require.NoError(t, err)

	agg := NewAggregator(nil)
	calc := NewCalculator(nil)
	ctx := context.Background()

	grouped, err := agg.CountBy(ctx, table, "region", "race")
	require.NoError(t, err)

	rates, err := calc.Rates(ctx, table, grouped, "is_fatal", RateOptions{})
	require.NoError(t, err)

	for _, r := range rates {
		assert.LessOrEqual(t, r.LethalCount, r.Count)
		assert.GreaterOrEqual(t, r.LethalRate, 0.0)
		assert.LessOrEqual(t, r.LethalRate, 1.0)
	}
}

func TestCalculator_Rates_SingleRowGroup(t *testing.T) {
	table, err := dataset.New([]string{"region", "is_fatal"}, [][]string{{"R1", "1"}})
	require.NoError(t, err)

	agg := NewAggregator(nil)
	calc := NewCalculator(nil)
	ctx := context.Background()

	grouped, err := agg.CountBy(ctx, table, "region")
	require.NoError(t, err)

	rates, err := calc.Rates(ctx, table, grouped, "is_fatal", RateOptions{})
	require.NoError(t, err)

	require.Len(t, rates, 1)
	assert.Contains(t, []float64{0, 1}, rates[0].LethalRate)
}

func TestCalculator_Rates_UnknownFatalColumn(t *testing.T) {
	table := rateTable(t)
	agg := NewAggregator(nil)
	calc := NewCalculator(nil)
	ctx := context.Background()

	grouped, err := agg.CountBy(ctx, table, "region")
	require.NoError(t, err)

	_, err = calc.Rates(ctx, table, grouped, "murder_flag", RateOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeUnknownColumn))
}

func TestCalculator_Rates_EmptyGroupDefensive(t *testing.T) {
	table := rateTable(t)
	calc := NewCalculator(nil)

	grouped := &Grouped{
		Keys:   []string{"region"},
		Groups: []Group{{Values: []string{"R9"}, Count: 0}},
	}

	_, err := calc.Rates(context.Background(), table, grouped, "is_fatal", RateOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeEmptyGroup))
	assert.Contains(t, err.Error(), "R9")
}

func TestRoundTo(t *testing.T) {
	tests := []struct {
		v      float64
		places int
		want   float64
	}{
		{0.18333333, 3, 0.183},
		{18.333333, 1, 18.3},
		{0.6666666, 2, 0.67},
		{0.75, 2, 0.75},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, RoundTo(tt.v, tt.places), 1e-12)
	}
}
