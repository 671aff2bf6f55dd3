// Package config resolves the immutable configuration record for a run.
//
// Each field of a [Record] is resolved in priority order: explicit input
// (flag, answers file, interactive prompt), then the environment or a
// detected default (the EC2 public IP for the domain), then a hard-coded
// fallback. Only a missing domain is fatal.
//
// The package also carries the platform directory layout the deploy
// steps read and rewrite, and the readiness timeouts, which follow the
// VSB_TIMEOUT_* environment variables.
package config
