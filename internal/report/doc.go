// Package report holds the per-partition verification table and renders it.
//
// The table is created with one empty row per partition. Each verification
// phase records outcomes into it; Render then reads it back and prints every
// failure. Outcomes that concern a partition id outside the cluster's range
// cannot be indexed and are kept as strays, which always fail the run.
package report
