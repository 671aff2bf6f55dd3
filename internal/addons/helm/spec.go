package helm

import "os"

// Environment overrides for the PostgreSQL chart.
const (
	EnvPostgresRepo    = "VSB_POSTGRES_CHART_REPO"
	EnvPostgresVersion = "VSB_POSTGRES_CHART_VERSION"
)

// PostgreSQLSpec returns the PostgreSQL chart spec, applying any
// environment overrides for repository and version.
func PostgreSQLSpec() ChartSpec {
	spec := PostgreSQL
	if v := os.Getenv(EnvPostgresRepo); v != "" {
		spec.Repository = v
	}
	if v := os.Getenv(EnvPostgresVersion); v != "" {
		spec.Version = v
	}
	return spec
}
