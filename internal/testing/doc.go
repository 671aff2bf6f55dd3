// Package testing provides fakes, builders, and helpers shared by unit tests.
//
// This package centralizes common testing patterns to avoid duplication across test files:
//   - RecordBuilder: Fluent builder for configuration records
//   - FakeRunner: Records shell commands and replays scripted results
//   - FakeCluster: In-memory provisioning.Cluster with scripted readiness
//   - MockReleaseManager: testify mock for Helm release access
//
// Usage:
//
//	rec := testutil.NewRecordBuilder().
//	    WithDomain("verify.example.com").
//	    WithSSL(true).
//	    Build()
//
//	runner := testutil.NewFakeRunner()
//	runner.FailOn("apt-get", errors.New("dpkg lock held"))
package testing
