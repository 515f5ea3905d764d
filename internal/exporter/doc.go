// Package exporter persists pipeline outputs as delimited text with explicit
// headers. Price panels are comma-separated; event outputs keep the
// semicolon separator of the catalog they extend. Null values are written as
// empty fields, never as zeros, and the free-text provenance columns
// (source_url, notes) are excluded from persisted event output.
package exporter
