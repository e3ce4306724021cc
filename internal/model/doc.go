// Package model defines the core data types flowing through the batch
// pipeline: input rows, per-station metrics, moving-average records, and
// the run summary.
//
// Rows are immutable after ingestion except for their anomaly flags, which
// are written exactly once by the single worker that owns the row's station
// partition. That disjoint-write discipline is what makes lock-free flag
// mutation safe; it is established by the dataset package and relied on
// everywhere else.
package model
