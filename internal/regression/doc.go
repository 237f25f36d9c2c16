// Package regression fits an additive ordinary-least-squares model of a
// numeric response on categorical predictors and reports per-level
// coefficients with standard errors, t-statistics, and p-values.
//
// Categorical predictors are one-hot encoded with one omitted reference
// level each. The reference rule is deterministic: the first level in
// ascending lexicographic order among the levels retained by the sample
// filter, unless the caller names a reference explicitly. Coefficients read
// as the expected difference in response versus the reference level, holding
// the other predictor fixed; the intercept is the expected response when
// every predictor sits at its reference level.
//
// The model is additive only. No interaction terms, no model selection, no
// automatic exclusion of sparse levels: the caller's allow-list decides
// which levels enter the sample.
package regression
