package domain

import (
	"time"
)

// RateMode tags how a lethal rate column is expressed so consumers never mix
// fractions and percentages within one table.
type RateMode string

const (
	// RateModeFraction expresses rates in [0,1], rounded to 3 decimals.
	RateModeFraction RateMode = "fraction"
	// RateModePercent expresses rates in [0,100], rounded to 1 decimal.
	RateModePercent RateMode = "percent"
)

// RegionRate is one row of the per-region incident rate table: incident count
// and incidents per 1,000 residents.
type RegionRate struct {
	Region      string  `json:"region"`
	Count       int     `json:"count"`
	Population  int     `json:"population"`
	PerThousand float64 `json:"per_thousand"`
}

// GroupShare is one row of the per-region-per-race mix table. Proportion is
// the share of the region's incidents attributed to the race, rounded to 2
// decimals at the reporting boundary; shares within a region sum to 1.
type GroupShare struct {
	Region     string  `json:"region"`
	Race       string  `json:"race"`
	Count      int     `json:"count"`
	Proportion float64 `json:"proportion"`
}

// RaceRegionRate is one row of the fatality-rate table keyed by race then
// region. LethalRate is expressed per Mode.
type RaceRegionRate struct {
	Race        string   `json:"race"`
	Region      string   `json:"region"`
	Count       int      `json:"count"`
	LethalCount int      `json:"lethal_count"`
	LethalRate  float64  `json:"lethal_rate"`
	Mode        RateMode `json:"mode"`
}

// Coefficient is one estimated term of the fitted linear model. Estimate is
// the expected difference in the response versus the predictor's reference
// level, holding the other predictor fixed.
type Coefficient struct {
	Term     string  `json:"term"`     // predictor name, e.g. "victim_race"
	Level    string  `json:"level"`    // encoded level, e.g. "WHITE"
	Estimate float64 `json:"estimate"`
	StdErr   float64 `json:"std_err"`
	TStat    float64 `json:"t_stat"`
	PValue   float64 `json:"p_value"`
}

// RegressionReport is the fitted-model summary handed to the text renderer.
type RegressionReport struct {
	RunID           string            `json:"run_id"`
	Response        string            `json:"response"`
	N               int               `json:"n"`
	Intercept       Coefficient       `json:"intercept"`
	Coefficients    []Coefficient     `json:"coefficients"`
	ReferenceLevels map[string]string `json:"reference_levels"`
	R2              float64           `json:"r2"`
	ResidualDF      int               `json:"residual_df"`
}

// ReportBundle carries every data product of one report run. Regression is
// nil when the regression stage failed; RegressionErr preserves the failure
// without invalidating the descriptive tables.
type ReportBundle struct {
	RunID          string           `json:"run_id"`
	GeneratedAt    time.Time        `json:"generated_at"`
	RegionRates    []RegionRate     `json:"region_rates"`
	RaceMix        []GroupShare     `json:"race_mix"`
	FatalityRates  []RaceRegionRate `json:"fatality_rates"`
	Regression     *RegressionReport `json:"regression,omitempty"`
	RegressionErr  string           `json:"regression_error,omitempty"`
	TotalIncidents int              `json:"total_incidents"`
	MalformedDates int              `json:"malformed_dates"`
}
