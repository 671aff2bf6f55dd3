package helm

// ChartSpec identifies a chart in a repository.
type ChartSpec struct {
	Repository string
	Name       string
	// Version is empty for the latest release.
	Version string
}

// PostgreSQL is the database chart.
var PostgreSQL = ChartSpec{
	Repository: "https://charts.bitnami.com/bitnami",
	Name:       "postgresql",
}
