// Package artifacts rewrites the deployment files in the platform directory
// from a resolved configuration: the PostgreSQL Helm values file and the
// application ConfigMap manifest.
//
// Both rewrites are idempotent. A file whose content already matches is left
// untouched, and an existing values file is backed up before it changes.
package artifacts
