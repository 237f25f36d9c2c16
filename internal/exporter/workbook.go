package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"incidentcli/pkg/contracts/domain"
)

// Workbook sheet names, in tab order.
const (
	SheetRegionRates   = "Region Rates"
	SheetRaceMix       = "Race Mix"
	SheetFatalityRates = "Fatality Rates"
	SheetRegression    = "Regression"
)

// WriteWorkbook writes the full bundle into a single xlsx workbook with one
// sheet per data product. The regression sheet is created even when the fit
// failed; it then carries the failure message instead of coefficients.
func (e *Exporter) WriteWorkbook(ctx context.Context, bundle *domain.ReportBundle) (string, error) {
	fullPath := filepath.Join(e.outputDir, FileWorkbook)

	e.logger.InfoContext(ctx, "writing workbook",
		slog.String("path", fullPath),
		slog.String("run_id", bundle.RunID))

	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeRegionSheet(f, bundle.RegionRates); err != nil {
		return "", err
	}
	if err := writeRaceMixSheet(f, bundle.RaceMix); err != nil {
		return "", err
	}
	if err := writeFatalitySheet(f, bundle.FatalityRates); err != nil {
		return "", err
	}
	if err := writeRegressionSheet(f, bundle); err != nil {
		return "", err
	}

	// The default sheet only exists because excelize requires one.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", fmt.Errorf("delete default sheet: %w", err)
	}

	if err := f.SaveAs(fullPath); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return fullPath, nil
}

func writeRegionSheet(f *excelize.File, rates []domain.RegionRate) error {
	rows := make([][]interface{}, 0, len(rates)+1)
	rows = append(rows, []interface{}{"Region", "Incidents", "Population", "Per 1,000"})
	for _, r := range rates {
		rows = append(rows, []interface{}{r.Region, r.Count, r.Population, r.PerThousand})
	}
	return writeSheet(f, SheetRegionRates, rows)
}

func writeRaceMixSheet(f *excelize.File, shares []domain.GroupShare) error {
	rows := make([][]interface{}, 0, len(shares)+1)
	rows = append(rows, []interface{}{"Region", "Victim Race", "Incidents", "Proportion"})
	for _, s := range shares {
		rows = append(rows, []interface{}{s.Region, s.Race, s.Count, s.Proportion})
	}
	return writeSheet(f, SheetRaceMix, rows)
}

func writeFatalitySheet(f *excelize.File, rates []domain.RaceRegionRate) error {
	rows := make([][]interface{}, 0, len(rates)+1)
	rows = append(rows, []interface{}{"Victim Race", "Region", "Incidents", "Fatal", "Fatality %"})
	for _, r := range rates {
		rows = append(rows, []interface{}{r.Race, r.Region, r.Count, r.LethalCount, r.LethalRate})
	}
	return writeSheet(f, SheetFatalityRates, rows)
}

func writeRegressionSheet(f *excelize.File, bundle *domain.ReportBundle) error {
	if bundle.Regression == nil {
		return writeSheet(f, SheetRegression, [][]interface{}{
			{"Status", "failed"},
			{"Error", bundle.RegressionErr},
		})
	}

	model := bundle.Regression
	rows := [][]interface{}{
		{"Response", model.Response},
		{"Observations", model.N},
		{"R-squared", model.R2},
		{"Residual DF", model.ResidualDF},
		{},
		{"Term", "Level", "Estimate", "Std Err", "t", "p"},
		{"(intercept)", "", model.Intercept.Estimate, model.Intercept.StdErr, model.Intercept.TStat, model.Intercept.PValue},
	}
	for _, c := range model.Coefficients {
		rows = append(rows, []interface{}{c.Term, c.Level, c.Estimate, c.StdErr, c.TStat, c.PValue})
	}
	return writeSheet(f, SheetRegression, rows)
}

func writeSheet(f *excelize.File, name string, rows [][]interface{}) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	for rowIdx, row := range rows {
		for colIdx, value := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return fmt.Errorf("cell coordinates for %s: %w", name, err)
			}
			if err := f.SetCellValue(name, cell, value); err != nil {
				return fmt.Errorf("set cell %s on %s: %w", cell, name, err)
			}
		}
	}

	if err := f.SetColWidth(name, "A", "F", 16); err != nil {
		return fmt.Errorf("set column widths on %s: %w", name, err)
	}
	return nil
}
