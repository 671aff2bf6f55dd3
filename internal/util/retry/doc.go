// Package retry provides bounded retry and polling primitives.
//
// [WithExponentialBackoff] retries an operation that returns an error, with
// configurable max retries, initial delay, and maximum delay. It is used for
// installer script downloads and other transient network work.
//
// [Poll] evaluates a condition until it reports done, bounded by a timeout
// and an optional attempt budget, with an optional interval multiplier. It is
// the primitive underneath readiness polling.
package retry
