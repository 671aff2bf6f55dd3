// Package host provides the phases that install host-level capabilities:
// Docker, k3s with the user kubeconfig, the Helm CLI, Java and Maven.
package host
