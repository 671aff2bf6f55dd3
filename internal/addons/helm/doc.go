// Package helm installs and inspects Helm releases on the local cluster
// through the Helm SDK, using in-memory kubeconfig bytes.
//
// Charts are located in their upstream repositories at install time.
// Values files are read with chartutil and merged with overrides before
// install or upgrade.
package helm
