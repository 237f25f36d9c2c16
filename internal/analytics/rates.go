package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"incidentcli/internal/dataset"
	"incidentcli/internal/errors"
)

// GroupRate is one grouped row extended with the lethal sum and the
// lethal/total ratio. LethalRate is full precision, in [0,1] as a fraction or
// [0,100] in percentage mode.
type GroupRate struct {
	Values      []string
	Count       int
	LethalCount int
	LethalRate  float64
}

// RateOptions configures rate derivation.
type RateOptions struct {
	// Percent scales lethal rates by 100. Callers must not mix scaled and
	// unscaled rates within one output table.
	Percent bool
}

// Calculator derives fatality rates for grouped aggregates.
type Calculator struct {
	logger *slog.Logger
}

// NewCalculator creates a rate calculator. A nil logger falls back to the
// default.
func NewCalculator(logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{logger: logger}
}

// Rates sums the 0/1 fatal column over each group's member rows and derives
// lethal_count / count per group. The grouped aggregate must come from the
// same table; a group with zero members fails with EmptyGroup rather than
// dividing by zero, though CountBy never emits one.
func (c *Calculator) Rates(ctx context.Context, t *dataset.Table, grouped *Grouped, fatalColumn string, opts RateOptions) ([]GroupRate, error) {
	fatal, err := t.Column(fatalColumn)
	if err != nil {
		return nil, fmt.Errorf("rates: %w", err)
	}

	rates := make([]GroupRate, 0, len(grouped.Groups))
	for _, group := range grouped.Groups {
		if group.Count == 0 {
			return nil, fmt.Errorf("rates: %w", errors.EmptyGroup(strings.Join(group.Values, "/")))
		}

		lethal := 0
		for _, row := range group.Rows {
			if isLethal(fatal[row]) {
				lethal++
			}
		}

		rate := float64(lethal) / float64(group.Count)
		if opts.Percent {
			rate *= 100
		}

		rates = append(rates, GroupRate{
			Values:      append([]string(nil), group.Values...),
			Count:       group.Count,
			LethalCount: lethal,
			LethalRate:  rate,
		})
	}

	c.logger.DebugContext(ctx, "derived fatality rates",
		slog.Any("keys", grouped.Keys),
		slog.String("fatal_column", fatalColumn),
		slog.Bool("percent", opts.Percent),
		slog.Int("groups", len(rates)))

	return rates, nil
}

func isLethal(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "1", "true", "y", "yes":
		return true
	default:
		return false
	}
}

// RoundTo rounds v to the given number of decimal places. The reporting
// boundary uses it: 2 places for proportions, 3 for fractional rates, 1 for
// percentage rates.
func RoundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
