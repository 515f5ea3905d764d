// Package panel builds the canonical long-format price panel for the event
// study: one row per (ticker, date) with adjusted close, per-ticker daily
// simple return, and the market index return joined on by date.
//
// Raw per-security series arrive in several provider layouts (headered,
// headerless with preamble rows, and wide multi-ticker sheets, as CSV or
// XLSX); the loader normalizes all of them into Series values before Build
// merges them into the panel.
package panel
