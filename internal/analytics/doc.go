// Package analytics computes the grouped aggregates of the incident report:
// per-group counts over one or two categorical keys, within-parent
// proportions, and lethal/total fatality rates.
//
// Every operation is a pure function from an input table (plus parameters) to
// a derived result; nothing holds state across invocations. Output order is
// lexicographic by key tuple so runs are reproducible. Full precision flows
// between stages; rounding belongs to the reporting boundary.
package analytics
