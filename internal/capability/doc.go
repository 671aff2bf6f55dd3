// Package capability installs host and cluster capabilities idempotently.
//
// A Capability pairs a side-effect-free presence probe with an install
// action. Installer.Ensure probes first and only installs what is absent,
// then probes again to confirm the install took effect. The catalogue
// functions build the concrete capabilities the bootstrap needs.
package capability
