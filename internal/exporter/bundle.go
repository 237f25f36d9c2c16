package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"incidentcli/pkg/contracts/domain"
)

// Output file names under the output directory.
const (
	FileRegionRates   = "region_rates.csv"
	FileRaceMix       = "race_mix.csv"
	FileFatalityRates = "fatality_rates.csv"
	FileRegression    = "regression.json"
	FileWorkbook      = "incident_report.xlsx"
)

// ExportBundle writes every data product of the bundle and returns the paths
// written. A failed regression stage simply leaves regression.json out; the
// descriptive tables are always written.
func (e *Exporter) ExportBundle(ctx context.Context, bundle *domain.ReportBundle) ([]string, error) {
	e.logger.InfoContext(ctx, "exporting report bundle",
		slog.String("run_id", bundle.RunID),
		slog.String("output_dir", e.outputDir))

	var written []string

	path, err := e.WriteCSV(FileRegionRates, WriteOptions{
		Headers:   []string{"region", "count", "population", "per_thousand"},
		Records:   regionRateRecords(bundle.RegionRates),
		BOMPrefix: true,
	})
	if err != nil {
		return nil, fmt.Errorf("export region rates: %w", err)
	}
	written = append(written, path)

	path, err = e.WriteCSV(FileRaceMix, WriteOptions{
		Headers:   []string{"region", "race", "count", "proportion"},
		Records:   raceMixRecords(bundle.RaceMix),
		BOMPrefix: true,
	})
	if err != nil {
		return nil, fmt.Errorf("export race mix: %w", err)
	}
	written = append(written, path)

	path, err = e.WriteCSV(FileFatalityRates, WriteOptions{
		Headers:   []string{"race", "region", "count", "lethal_count", "lethal_rate_pct"},
		Records:   fatalityRateRecords(bundle.FatalityRates),
		BOMPrefix: true,
	})
	if err != nil {
		return nil, fmt.Errorf("export fatality rates: %w", err)
	}
	written = append(written, path)

	if bundle.Regression != nil {
		path, err = e.writeRegressionJSON(bundle.Regression)
		if err != nil {
			return nil, fmt.Errorf("export regression report: %w", err)
		}
		written = append(written, path)
	}

	path, err = e.WriteWorkbook(ctx, bundle)
	if err != nil {
		return nil, fmt.Errorf("export workbook: %w", err)
	}
	written = append(written, path)

	e.logger.InfoContext(ctx, "report bundle exported",
		slog.Int("files", len(written)))
	return written, nil
}

func (e *Exporter) writeRegressionJSON(report *domain.RegressionReport) (string, error) {
	fullPath := filepath.Join(e.outputDir, FileRegression)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal regression report: %w", err)
	}
	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", fmt.Errorf("write regression report: %w", err)
	}
	return fullPath, nil
}

func regionRateRecords(rates []domain.RegionRate) [][]string {
	records := make([][]string, len(rates))
	for i, r := range rates {
		records[i] = []string{
			r.Region,
			strconv.Itoa(r.Count),
			strconv.Itoa(r.Population),
			strconv.FormatFloat(r.PerThousand, 'f', -1, 64),
		}
	}
	return records
}

func raceMixRecords(shares []domain.GroupShare) [][]string {
	records := make([][]string, len(shares))
	for i, s := range shares {
		records[i] = []string{
			s.Region,
			s.Race,
			strconv.Itoa(s.Count),
			strconv.FormatFloat(s.Proportion, 'f', -1, 64),
		}
	}
	return records
}

func fatalityRateRecords(rates []domain.RaceRegionRate) [][]string {
	records := make([][]string, len(rates))
	for i, r := range rates {
		records[i] = []string{
			r.Race,
			r.Region,
			strconv.Itoa(r.Count),
			strconv.Itoa(r.LethalCount),
			strconv.FormatFloat(r.LethalRate, 'f', -1, 64),
		}
	}
	return records
}
