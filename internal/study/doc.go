// Package study implements the statistical engine of the event study: market
// model estimation, abnormal return computation, event-to-trading-day
// alignment, cumulative abnormal return aggregation, and impact labeling.
//
// # Pipeline
//
// The stages run strictly in order over fully materialized inputs:
//
//  1. EstimateParams fits a single-factor market model per ticker by ordinary
//     least squares, producing an immutable ParamTable.
//  2. ComputeAbnormal applies the fitted parameters to every panel row,
//     adding expected return and abnormal return (AR) columns.
//  3. Aligner resolves each event's calendar date to the nearest trading day
//     at or before it (backward asof join, per ticker).
//  4. ComputeCAR sums AR over inclusive calendar-day windows around each
//     event's trading date.
//  5. LabelEvents classifies each event from the magnitude of its CAR over
//     the canonical (-1,+1) window.
//
// # Null propagation
//
// Missing data propagates as nil pointers, never as zero substitutes: a
// ticker without usable observations keeps nil parameters, and every derived
// field downstream of a nil stays nil. The single exception is the CAR
// sum-of-empty-set convention, where a resolvable window that matches no
// panel rows yields 0.
//
// # Windows
//
// CAR windows are calendar-day offsets, not trading-day offsets. A window
// spanning a weekend therefore covers fewer trading observations than its
// calendar span suggests. This is carried over deliberately from the study
// design; changing it materially changes results.
package study
