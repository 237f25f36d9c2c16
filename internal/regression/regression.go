package regression

import (
	"fmt"
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"

	"incidentcli/internal/errors"
	"incidentcli/pkg/contracts/domain"
)

// Observation is one sample row: a level per predictor and the response
// value (here, a fatality rate expressed as a percentage).
type Observation struct {
	Levels   map[string]string
	Response float64
}

// Spec describes the model to fit.
type Spec struct {
	// Response names the response column for reporting.
	Response string
	// Predictors lists the categorical predictors in reporting order.
	Predictors []string
	// Include restricts a predictor to an allow-list of levels; predictors
	// without an entry keep every level present in the sample.
	Include map[string][]string
	// Reference pins a predictor's reference level. Unpinned predictors use
	// the first retained level in ascending sort order.
	Reference map[string]string
}

// term is one encoded design-matrix column.
type term struct {
	predictor string
	level     string
}

// Fit filters the sample by the spec's allow-lists, encodes the predictors,
// and fits the additive OLS model. The returned report is deterministic for
// a given sample: level ordering is sorted, never input-order dependent.
func Fit(obs []Observation, spec Spec) (*domain.RegressionReport, error) {
	if spec.Response == "" {
		return nil, fmt.Errorf("fit: response name is empty")
	}
	if len(spec.Predictors) == 0 {
		return nil, fmt.Errorf("fit: no predictors supplied")
	}

	sample := filter(obs, spec)

	levels, err := collectLevels(sample, spec)
	if err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}

	references, err := pickReferences(levels, spec)
	if err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}

	var terms []term
	for _, predictor := range spec.Predictors {
		for _, level := range levels[predictor] {
			if level != references[predictor] {
				terms = append(terms, term{predictor: predictor, level: level})
			}
		}
	}

	params := len(terms) + 1 // encoded levels plus intercept
	n := len(sample)
	if n < params+1 {
		return nil, fmt.Errorf("fit: %w", errors.InsufficientSample(spec.Response, n, params))
	}

	if err := checkDegenerate(sample, spec, levels); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}

	// Design matrix: intercept column then one dummy per encoded term.
	x := make([][]float64, n)
	y := make([]float64, n)
	for i, ob := range sample {
		row := make([]float64, params)
		row[0] = 1
		for j, tm := range terms {
			if ob.Levels[tm.predictor] == tm.level {
				row[j+1] = 1
			}
		}
		x[i] = row
		y[i] = ob.Response
	}

	beta, cov, err := solveOLS(x, y, terms)
	if err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}

	// Residual statistics.
	var ssr, sst, mean float64
	for _, v := range y {
		mean += v
	}
	mean /= float64(n)
	for i := range y {
		fitted := 0.0
		for j := range beta {
			fitted += x[i][j] * beta[j]
		}
		ssr += (y[i] - fitted) * (y[i] - fitted)
		sst += (y[i] - mean) * (y[i] - mean)
	}

	df := n - params
	sigma2 := ssr / float64(df)
	tdist := stats.TDist{V: float64(df)}

	coef := func(tm term, j int) domain.Coefficient {
		se := math.Sqrt(sigma2 * cov[j][j])
		tstat := 0.0
		pvalue := 1.0
		if se > 0 {
			tstat = beta[j] / se
			pvalue = 2 * (1 - tdist.CDF(math.Abs(tstat)))
		}
		return domain.Coefficient{
			Term:     tm.predictor,
			Level:    tm.level,
			Estimate: beta[j],
			StdErr:   se,
			TStat:    tstat,
			PValue:   pvalue,
		}
	}

	report := &domain.RegressionReport{
		Response:        spec.Response,
		N:               n,
		Intercept:       coef(term{predictor: "(intercept)"}, 0),
		ReferenceLevels: references,
		ResidualDF:      df,
	}
	for j, tm := range terms {
		report.Coefficients = append(report.Coefficients, coef(tm, j+1))
	}

	r2 := 0.0
	if sst > 0 {
		r2 = 1 - ssr/sst
		if r2 < 0 {
			r2 = 0
		}
	}
	report.R2 = r2

	return report, nil
}

// filter keeps observations whose levels pass every allow-list.
func filter(obs []Observation, spec Spec) []Observation {
	if len(spec.Include) == 0 {
		return obs
	}

	allowed := make(map[string]map[string]bool, len(spec.Include))
	for predictor, list := range spec.Include {
		set := make(map[string]bool, len(list))
		for _, level := range list {
			set[level] = true
		}
		allowed[predictor] = set
	}

	var kept []Observation
	for _, ob := range obs {
		ok := true
		for predictor, set := range allowed {
			if !set[ob.Levels[predictor]] {
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, ob)
		}
	}
	return kept
}

// collectLevels gathers the distinct retained levels per predictor, sorted
// ascending for stable encoding.
func collectLevels(sample []Observation, spec Spec) (map[string][]string, error) {
	levels := make(map[string][]string, len(spec.Predictors))
	for _, predictor := range spec.Predictors {
		seen := make(map[string]bool)
		for _, ob := range sample {
			level, ok := ob.Levels[predictor]
			if !ok {
				return nil, errors.UnknownColumn(predictor)
			}
			seen[level] = true
		}
		sorted := make([]string, 0, len(seen))
		for level := range seen {
			sorted = append(sorted, level)
		}
		sort.Strings(sorted)
		levels[predictor] = sorted
	}
	return levels, nil
}

// pickReferences resolves the reference level per predictor: explicit choice
// when pinned and present, otherwise the first sorted level.
func pickReferences(levels map[string][]string, spec Spec) (map[string]string, error) {
	references := make(map[string]string, len(spec.Predictors))
	for _, predictor := range spec.Predictors {
		retained := levels[predictor]
		if len(retained) == 0 {
			return nil, fmt.Errorf("predictor %q has no levels in the filtered sample", predictor)
		}
		if pinned, ok := spec.Reference[predictor]; ok {
			found := false
			for _, level := range retained {
				if level == pinned {
					found = true
					break
				}
			}
			if !found {
				return nil, fmt.Errorf("reference level %q for predictor %q is not in the filtered sample", pinned, predictor)
			}
			references[predictor] = pinned
			continue
		}
		references[predictor] = retained[0]
	}
	return references, nil
}

// checkDegenerate rejects predictor levels that appear in only one
// combination of the other predictors' levels: their effect is inseparable
// from that combination, and the fit would report unstable coefficients
// instead of failing. Known limitation: this is stricter than a rank check.
func checkDegenerate(sample []Observation, spec Spec, levels map[string][]string) error {
	for _, predictor := range spec.Predictors {
		others := otherPredictorsWithVariation(predictor, spec, levels)
		if len(others) == 0 {
			continue
		}

		combos := make(map[string]map[string]bool) // level -> distinct other-tuples
		for _, ob := range sample {
			tuple := ""
			for _, other := range others {
				tuple += ob.Levels[other] + "\x00"
			}
			level := ob.Levels[predictor]
			if combos[level] == nil {
				combos[level] = make(map[string]bool)
			}
			combos[level][tuple] = true
		}

		for _, level := range levels[predictor] {
			if len(combos[level]) == 1 {
				return errors.DegenerateFactor(predictor, level)
			}
		}
	}
	return nil
}

func otherPredictorsWithVariation(predictor string, spec Spec, levels map[string][]string) []string {
	var others []string
	for _, p := range spec.Predictors {
		if p != predictor && len(levels[p]) > 1 {
			others = append(others, p)
		}
	}
	return others
}
