// Package readiness waits for host and cluster components to become ready.
//
// A Target is polled at a fixed interval until its timeout. When that
// expires the Poller runs a bounded number of fallback passes, each a WARN,
// a growing sleep, and a single re-probe. Targets that are still not ready
// end as warnings unless marked Fatal.
package readiness
