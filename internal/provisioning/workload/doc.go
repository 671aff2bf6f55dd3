// Package workload provides the phases that prepare and deploy the cluster
// workload: the generated artifacts, the PostgreSQL release and its init
// script, the application ConfigMap and deploy, and the final pod
// readiness checks.
package workload
