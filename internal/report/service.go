// Package report orchestrates the full analysis pipeline: schema
// normalization, grouped aggregation, fatality-rate derivation, and the
// regression fit, assembled into one bundle of data products for external
// renderers.
//
// Stage failure policy: normalizer and aggregator errors are fatal because
// every later stage depends on valid grouped data; a regression failure is
// isolated so the descriptive tables still come back.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"incidentcli/internal/analytics"
	"incidentcli/internal/config"
	"incidentcli/internal/dataset"
	"incidentcli/internal/regression"
	"incidentcli/pkg/contracts/domain"
)

// ResponseColumn names the regression response in the report.
const ResponseColumn = "lethal_rate"

// Service runs the analysis pipeline. Every stage is a pure function over
// derived tables, so running the same input twice yields identical bundles
// apart from the run ID and timestamp.
type Service struct {
	logger     *slog.Logger
	normalizer *dataset.Normalizer
	aggregator *analytics.Aggregator
	calculator *analytics.Calculator
}

// NewService creates a report service. A nil logger falls back to the
// default.
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		logger:     logger,
		normalizer: dataset.NewNormalizer(logger),
		aggregator: analytics.NewAggregator(logger),
		calculator: analytics.NewCalculator(logger),
	}
}

// Run produces the report bundle from the raw incident table.
func (s *Service) Run(ctx context.Context, raw *dataset.Table, cfg config.AnalysisConfig) (*domain.ReportBundle, error) {
	start := time.Now()
	runID := uuid.New().String()

	s.logger.InfoContext(ctx, "starting report run",
		slog.String("run_id", runID),
		slog.Int("rows", raw.Len()))

	normalized, malformed, err := s.normalizer.Normalize(ctx, raw, dataset.NormalizeOptions{
		DateColumn: cfg.DateColumn,
		DateLayout: cfg.DateLayout,
		Drop:       cfg.DropColumns,
	})
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}

	incidents, err := dataset.Incidents(normalized, dataset.IncidentMapping{
		Date:   cfg.DateColumn,
		Region: cfg.RegionColumn,
		Race:   cfg.RaceColumn,
		Fatal:  cfg.FatalColumn,
	})
	if err != nil {
		return nil, fmt.Errorf("typed incidents: %w", err)
	}
	table := dataset.FromIncidents(incidents)

	regionRates, err := s.regionRates(ctx, table, cfg.Populations)
	if err != nil {
		return nil, fmt.Errorf("region rates: %w", err)
	}

	raceMix, err := s.raceMix(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("race mix: %w", err)
	}

	fatalityRates, observations, err := s.fatalityRates(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("fatality rates: %w", err)
	}

	bundle := &domain.ReportBundle{
		RunID:          runID,
		GeneratedAt:    time.Now().UTC(),
		RegionRates:    regionRates,
		RaceMix:        raceMix,
		FatalityRates:  fatalityRates,
		TotalIncidents: len(incidents),
		MalformedDates: malformed,
	}

	// Regression failure is isolated: the descriptive tables above remain
	// valid and reportable.
	model, err := regression.Fit(observations, regression.Spec{
		Response:   ResponseColumn,
		Predictors: []string{dataset.ColVictimRace, dataset.ColRegion},
		Include:    map[string][]string{dataset.ColVictimRace: cfg.IncludeRaces},
		Reference:  references(cfg),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "regression stage failed, descriptive tables unaffected",
			slog.String("run_id", runID),
			slog.String("error", err.Error()))
		bundle.RegressionErr = err.Error()
	} else {
		model.RunID = runID
		bundle.Regression = model
	}

	s.logger.InfoContext(ctx, "report run complete",
		slog.String("run_id", runID),
		slog.Int("incidents", bundle.TotalIncidents),
		slog.Int("malformed_dates", malformed),
		slog.Bool("regression_ok", bundle.Regression != nil),
		slog.Duration("duration", time.Since(start)))

	return bundle, nil
}

// regionRates builds the per-region count and per-1,000-population table.
func (s *Service) regionRates(ctx context.Context, t *dataset.Table, populations map[string]int) ([]domain.RegionRate, error) {
	grouped, err := s.aggregator.CountBy(ctx, t, dataset.ColRegion)
	if err != nil {
		return nil, err
	}

	rates := make([]domain.RegionRate, 0, len(grouped.Groups))
	for _, g := range grouped.Groups {
		region := g.Values[0]
		population, ok := populations[region]
		perThousand := 0.0
		if ok {
			perThousand = analytics.RoundTo(float64(g.Count)/(float64(population)/1000), 2)
		} else {
			s.logger.WarnContext(ctx, "no population configured for region",
				slog.String("region", region))
		}
		rates = append(rates, domain.RegionRate{
			Region:      region,
			Count:       g.Count,
			Population:  population,
			PerThousand: perThousand,
		})
	}
	return rates, nil
}

// raceMix builds the per-region-per-race count table with within-region
// proportions, rounded to 2 decimals at this boundary.
func (s *Service) raceMix(ctx context.Context, t *dataset.Table) ([]domain.GroupShare, error) {
	grouped, err := s.aggregator.CountBy(ctx, t, dataset.ColRegion, dataset.ColVictimRace)
	if err != nil {
		return nil, err
	}
	if err := grouped.WithProportions(); err != nil {
		return nil, err
	}

	shares := make([]domain.GroupShare, 0, len(grouped.Groups))
	for _, g := range grouped.Groups {
		shares = append(shares, domain.GroupShare{
			Region:     g.Values[0],
			Race:       g.Values[1],
			Count:      g.Count,
			Proportion: analytics.RoundTo(g.Proportion, 2),
		})
	}
	return shares, nil
}

// fatalityRates builds the per-race-per-region fatality percentage table and
// the full-precision regression sample. Rounding happens only in the table
// rows; the regression consumes unrounded percentages so display rounding
// never compounds into the fit.
func (s *Service) fatalityRates(ctx context.Context, t *dataset.Table) ([]domain.RaceRegionRate, []regression.Observation, error) {
	grouped, err := s.aggregator.CountBy(ctx, t, dataset.ColVictimRace, dataset.ColRegion)
	if err != nil {
		return nil, nil, err
	}

	rates, err := s.calculator.Rates(ctx, t, grouped, dataset.ColIsFatal, analytics.RateOptions{Percent: true})
	if err != nil {
		return nil, nil, err
	}

	rows := make([]domain.RaceRegionRate, 0, len(rates))
	observations := make([]regression.Observation, 0, len(rates))
	for _, r := range rates {
		rows = append(rows, domain.RaceRegionRate{
			Race:        r.Values[0],
			Region:      r.Values[1],
			Count:       r.Count,
			LethalCount: r.LethalCount,
			LethalRate:  analytics.RoundTo(r.LethalRate, 1),
			Mode:        domain.RateModePercent,
		})
		observations = append(observations, regression.Observation{
			Levels: map[string]string{
				dataset.ColVictimRace: r.Values[0],
				dataset.ColRegion:     r.Values[1],
			},
			Response: r.LethalRate,
		})
	}
	return rows, observations, nil
}

func references(cfg config.AnalysisConfig) map[string]string {
	refs := make(map[string]string)
	if cfg.ReferenceRace != "" {
		refs[dataset.ColVictimRace] = cfg.ReferenceRace
	}
	if cfg.ReferenceRegion != "" {
		refs[dataset.ColRegion] = cfg.ReferenceRegion
	}
	return refs
}
