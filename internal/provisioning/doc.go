// Package provisioning provides shared types and orchestration for the
// host bootstrap.
//
// # Subpackages
//
//   - host/: Docker, k3s, kubeconfig, Helm CLI, Java and Maven
//   - workload/: generated artifacts, PostgreSQL, ConfigMap, application
//     and readiness polling
//   - steps/: step recording shared by host and workload
//
// # Core Types
//
// Context carries the configuration record, state, command runner, cluster
// clients and observer. Phase defines a provisioning step with Name(),
// Stage() and Provision() methods. State accumulates the outcome of every
// step, which the summary and metrics read after the run.
package provisioning
