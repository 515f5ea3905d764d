// Package config provides centralized configuration for the event study
// pipeline. Configuration is loaded from environment variables (prefix EVS)
// layered over an optional YAML file, with defaults suitable for a local run.
//
// The package is also the single source of truth for file system paths: every
// input and output file the pipeline touches is named here, never assembled
// ad hoc by callers.
package config
