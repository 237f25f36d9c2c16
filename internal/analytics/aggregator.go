package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"incidentcli/internal/dataset"
	"incidentcli/internal/errors"
)

// Group is one distinct key combination present in the input, with the
// indices of its member rows. Count is always > 0: empty groups are absent
// from the aggregate, never zero rows.
type Group struct {
	Values     []string // key tuple, in aggregation key order
	Rows       []int    // member row indices in the source table
	Count      int
	Proportion float64 // count / parent-key total; set by WithProportions
}

// Grouped is the aggregate table produced by CountBy, ordered
// lexicographically by key tuple.
type Grouped struct {
	Keys   []string
	Groups []Group
}

// Aggregator computes per-group counts over configurable grouping keys.
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator creates an aggregator. A nil logger falls back to the default.
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger}
}

// CountBy produces one group per distinct combination of the key columns'
// values, with member row indices and counts. Missing key columns fail with
// UnknownColumn naming the offender.
func (a *Aggregator) CountBy(ctx context.Context, t *dataset.Table, keys ...string) (*Grouped, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("count by: no grouping keys supplied")
	}
	for _, key := range keys {
		if !t.HasColumn(key) {
			return nil, fmt.Errorf("count by: %w", errors.UnknownColumn(key))
		}
	}

	columns := make([][]string, len(keys))
	for i, key := range keys {
		values, err := t.Column(key)
		if err != nil {
			return nil, fmt.Errorf("count by: %w", err)
		}
		columns[i] = values
	}

	byTuple := make(map[string]*Group)
	var order []string
	for row := 0; row < t.Len(); row++ {
		tuple := make([]string, len(keys))
		for i := range keys {
			tuple[i] = columns[i][row]
		}
		id := tupleID(tuple)
		g, ok := byTuple[id]
		if !ok {
			g = &Group{Values: tuple}
			byTuple[id] = g
			order = append(order, id)
		}
		g.Rows = append(g.Rows, row)
		g.Count++
	}

	groups := make([]Group, 0, len(byTuple))
	for _, id := range order {
		groups = append(groups, *byTuple[id])
	}
	sort.Slice(groups, func(i, j int) bool {
		return lessTuple(groups[i].Values, groups[j].Values)
	})

	a.logger.DebugContext(ctx, "grouped table",
		slog.Any("keys", keys),
		slog.Int("rows", t.Len()),
		slog.Int("groups", len(groups)))

	return &Grouped{Keys: append([]string(nil), keys...), Groups: groups}, nil
}

// WithProportions fills each group's Proportion as its count divided by the
// total count across all groups sharing the same first-key value. Requires
// at least two grouping keys; with one key the proportion of every group
// against a single global parent carries no information the count lacks.
// Values keep full precision; round only at the reporting boundary.
func (g *Grouped) WithProportions() error {
	if len(g.Keys) < 2 {
		return fmt.Errorf("proportions need a parent key: grouped by %d key(s)", len(g.Keys))
	}

	// First pass: totals per first-key value.
	parentTotals := make(map[string]int)
	for _, group := range g.Groups {
		parentTotals[group.Values[0]] += group.Count
	}

	// Second pass: divide. Parent totals are sums of positive counts, so the
	// divisor is never zero.
	for i := range g.Groups {
		g.Groups[i].Proportion = float64(g.Groups[i].Count) / float64(parentTotals[g.Groups[i].Values[0]])
	}
	return nil
}

func tupleID(tuple []string) string {
	id := ""
	for _, v := range tuple {
		id += v + "\x00"
	}
	return id
}

func lessTuple(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
