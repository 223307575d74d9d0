// Package score aggregates unit scores into dimension scores and
// consolidates issues into the three-sprint action plan.
//
// Aggregation is a weighted mean over executed, scored units: a unit that
// was skipped or failed contributes nothing, so missing data can never read
// as a zero score. Sprint bucketing is rule-driven from the analysis
// config: impact comes from issue severity, effort from the origin unit.
package score
