// Package cli builds the walkgrid cobra command tree. Settings come from
// flags, WALKGRID_* environment variables and an optional config file, in
// that order of precedence, and end up in an app.Config. Failures are
// reported as ExitError values carrying the process exit code.
package cli
