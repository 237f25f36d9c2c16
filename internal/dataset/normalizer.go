package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"incidentcli/internal/errors"
	"incidentcli/pkg/contracts/domain"
)

// DateISO is the canonical layout normalized date cells are re-encoded in.
const DateISO = "2006-01-02"

// NormalizeOptions configures schema normalization.
type NormalizeOptions struct {
	DateColumn string   // column holding the locale-formatted date
	DateLayout string   // source layout, month/day/year (default "01/02/2006")
	Drop       []string // columns to exclude; unknown names are ignored
	Strict     bool     // fail on the first malformed date instead of nulling
}

// Normalizer cleans the raw incident table: it parses the date column into
// canonical calendar dates and drops the columns the analysis does not use.
// The input table is never mutated.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a normalizer. A nil logger falls back to the default.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger}
}

// Normalize returns a derived table with parsed dates and excluded columns
// absent, along with the number of rows whose date was malformed. Malformed
// dates become empty cells unless Strict is set, in which case the first one
// fails the call with a MalformedDate error naming the column.
func (n *Normalizer) Normalize(ctx context.Context, t *Table, opts NormalizeOptions) (*Table, int, error) {
	if opts.DateLayout == "" {
		opts.DateLayout = "01/02/2006"
	}

	n.logger.InfoContext(ctx, "normalizing incident table",
		slog.Int("rows", t.Len()),
		slog.String("date_column", opts.DateColumn),
		slog.Int("drop_columns", len(opts.Drop)))

	raw, err := t.Column(opts.DateColumn)
	if err != nil {
		return nil, 0, fmt.Errorf("normalize: %w", err)
	}

	parsed := make([]string, len(raw))
	malformed := 0
	for i, value := range raw {
		date, perr := time.Parse(opts.DateLayout, strings.TrimSpace(value))
		if perr != nil {
			if opts.Strict {
				return nil, 0, fmt.Errorf("normalize row %d: %w", i, errors.MalformedDate(opts.DateColumn, value))
			}
			malformed++
			parsed[i] = ""
			continue
		}
		parsed[i] = date.Format(DateISO)
	}

	out, err := t.withColumn(opts.DateColumn, parsed)
	if err != nil {
		return nil, 0, fmt.Errorf("normalize: %w", err)
	}
	out = out.Drop(opts.Drop...)

	if malformed > 0 {
		n.logger.WarnContext(ctx, "malformed dates nulled",
			slog.String("column", opts.DateColumn),
			slog.Int("count", malformed))
	}
	n.logger.InfoContext(ctx, "normalization complete",
		slog.Int("rows", out.Len()),
		slog.Int("columns", len(out.Columns())))

	return out, malformed, nil
}

// IncidentMapping names the columns a normalized table uses for the typed
// incident contract.
type IncidentMapping struct {
	Date   string
	Region string
	Race   string
	Fatal  string
}

// Incidents converts a normalized table into typed incident records. Fatal
// cells accept the source's boolean spellings ("true"/"false") as well as
// 0/1. Empty date cells map to a zero OccurredOn.
func Incidents(t *Table, m IncidentMapping) ([]domain.Incident, error) {
	for _, column := range []string{m.Date, m.Region, m.Race, m.Fatal} {
		if !t.HasColumn(column) {
			return nil, errors.UnknownColumn(column)
		}
	}

	incidents := make([]domain.Incident, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		dateCell, _ := t.Value(i, m.Date)
		region, _ := t.Value(i, m.Region)
		race, _ := t.Value(i, m.Race)
		fatalCell, _ := t.Value(i, m.Fatal)

		var occurred time.Time
		if dateCell != "" {
			parsed, err := time.Parse(DateISO, dateCell)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, errors.MalformedDate(m.Date, dateCell))
			}
			occurred = parsed
		}

		incidents = append(incidents, domain.Incident{
			OccurredOn: occurred,
			Region:     region,
			VictimRace: race,
			Fatal:      parseFatal(fatalCell),
		})
	}
	return incidents, nil
}

func parseFatal(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "true", "1", "y", "yes":
		return true
	default:
		return false
	}
}

// Canonical column names for tables built from typed incidents.
const (
	ColOccurredOn = "occurred_on"
	ColRegion     = "region"
	ColVictimRace = "victim_race"
	ColIsFatal    = "is_fatal"
)

// FromIncidents builds the canonical analysis table from typed incidents,
// with is_fatal encoded as "1"/"0" so aggregation can sum it.
func FromIncidents(incidents []domain.Incident) *Table {
	rows := make([][]string, len(incidents))
	for i, inc := range incidents {
		date := ""
		if inc.HasDate() {
			date = inc.OccurredOn.Format(DateISO)
		}
		fatal := "0"
		if inc.Fatal {
			fatal = "1"
		}
		rows[i] = []string{date, inc.Region, inc.VictimRace, fatal}
	}

	t, err := New([]string{ColOccurredOn, ColRegion, ColVictimRace, ColIsFatal}, rows)
	if err != nil {
		// Unreachable: fixed distinct columns, rows built to width.
		panic(err)
	}
	return t
}
