// Package config resolves the options of a crawlctl invocation.
//
// Options come from four layers, later layers winning: built-in defaults
// (NewConfig), the YAML config file (defaults plus an optional named
// profile), CRAWLCTL_* environment variables, and command-line flags.
// The resulting Config is passed explicitly to the API client, the
// pipeline and the report writers.
package config
