package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultPlatformDir is the sibling checkout holding the deploy assets.
const DefaultPlatformDir = "../verify-platform"

// Layout locates the platform directory assets.
type Layout struct {
	Root string
}

// DBInitDir holds the database init script and Helm values.
func (l Layout) DBInitDir() string { return filepath.Join(l.Root, "db-init") }

// ValuesFile is the PostgreSQL Helm values file that gets rewritten.
func (l Layout) ValuesFile() string { return filepath.Join(l.DBInitDir(), "values.yaml") }

// InitScript is the optional database initialisation script.
func (l Layout) InitScript() string { return filepath.Join(l.DBInitDir(), "init.sh") }

// DeployDir holds the application deployment assets.
func (l Layout) DeployDir() string { return filepath.Join(l.Root, "deploy") }

// InstallAllScript deploys the application.
func (l Layout) InstallAllScript() string { return filepath.Join(l.DeployDir(), "install-all.sh") }

// ConfigMapFile is the ConfigMap manifest fragment that gets rewritten.
func (l Layout) ConfigMapFile() string { return filepath.Join(l.DeployDir(), "configmap.yaml") }

// Verify checks that the root and both subdirectories exist.
func (l Layout) Verify() error {
	for _, dir := range []string{l.Root, l.DBInitDir(), l.DeployDir()} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("%w: %s", ErrMissingDirectory, dir)
		}
	}
	return nil
}
