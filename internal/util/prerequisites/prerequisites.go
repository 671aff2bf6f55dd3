// Package prerequisites answers "is X already present?" without side effects.
//
// A Probe is a cheap presence check. Probe errors never escape as failures:
// Present logs them at DEBUG and reports the capability as absent, which
// leads the caller to attempt an install.
//
// The Tool API lists the host binaries the doctor command reports on.
package prerequisites

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/chainguard-dev/clog"
)

// Probe reports whether something is present. It must not mutate state.
type Probe func(ctx context.Context) (bool, error)

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// Binary probes for an executable on PATH.
func Binary(name string) Probe {
	return func(context.Context) (bool, error) {
		if _, err := lookPath(name); err != nil {
			return false, nil
		}
		return true, nil
	}
}

// File probes for a regular file at path.
func File(path string) Probe {
	return func(context.Context) (bool, error) {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return false, nil
			}
			return false, err
		}
		return info.Mode().IsRegular(), nil
	}
}

// All is present only when every probe is present.
func All(probes ...Probe) Probe {
	return func(ctx context.Context) (bool, error) {
		for _, p := range probes {
			ok, err := p(ctx)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
}

// Present runs the probe and folds errors into "absent".
func Present(ctx context.Context, name string, probe Probe) bool {
	ok, err := probe(ctx)
	if err != nil {
		clog.FromContext(ctx).Debug("presence probe failed, treating as absent", "capability", name, "error", err)
		return false
	}
	return ok
}

// Tool represents a client tool that may be required.
type Tool struct {
	// Name is the binary name to look for in PATH.
	Name string

	// Required indicates if this tool is mandatory.
	Required bool

	// Description explains what the tool is used for.
	Description string

	// InstallURL provides a URL for installation instructions.
	InstallURL string
}

// DefaultTools are needed before any capability can be installed.
func DefaultTools() []Tool {
	return []Tool{
		{
			Name:        "sh",
			Required:    true,
			Description: "Runs the downloaded installer scripts",
		},
		{
			Name:        "sudo",
			Required:    true,
			Description: "Elevates package and service installs for the non-root operator",
			InstallURL:  "https://www.sudo.ws/",
		},
		{
			Name:        "apt-get",
			Required:    true,
			Description: "Installs Java and Maven packages",
			InstallURL:  "https://wiki.debian.org/Apt",
		},
	}
}

// CapabilityTools are the binaries the run installs when missing.
func CapabilityTools() []Tool {
	return []Tool{
		{Name: "docker", Description: "Container runtime", InstallURL: "https://get.docker.com"},
		{Name: "k3s", Description: "Lightweight Kubernetes distribution", InstallURL: "https://get.k3s.io"},
		{Name: "kubectl", Description: "Kubernetes CLI used by the deploy scripts", InstallURL: "https://get.k3s.io"},
		{Name: "helm", Description: "Helm CLI used by the deploy scripts", InstallURL: "https://helm.sh/docs/intro/install/"},
		{Name: "java", Description: "Java runtime for the application build", InstallURL: "https://openjdk.org/"},
		{Name: "mvn", Description: "Maven for the application build", InstallURL: "https://maven.apache.org/"},
	}
}

// CheckResult contains the result of checking a single tool.
type CheckResult struct {
	Tool    Tool
	Found   bool
	Path    string
	Version string
}

// CheckResults contains the results of checking multiple tools.
type CheckResults struct {
	Results []CheckResult
	Missing []Tool
}

// HasErrors returns true if any required tools are missing.
func (r *CheckResults) HasErrors() bool {
	for _, tool := range r.Missing {
		if tool.Required {
			return true
		}
	}
	return false
}

// Error returns an error if any required tools are missing.
func (r *CheckResults) Error() error {
	var missing []string
	for _, tool := range r.Missing {
		if tool.Required {
			missing = append(missing, tool.Name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
}

// Check verifies that the specified tools are available.
// Versions are looked up only when withVersion is set.
func Check(tools []Tool, withVersion bool) *CheckResults {
	results := &CheckResults{}

	for _, tool := range tools {
		result := CheckResult{Tool: tool}

		path, err := lookPath(tool.Name)
		if err == nil {
			result.Found = true
			result.Path = path
			if withVersion {
				result.Version = toolVersion(tool.Name)
			}
		} else {
			results.Missing = append(results.Missing, tool)
		}

		results.Results = append(results.Results, result)
	}

	return results
}

// toolVersion returns the first line of the tool's version output, or "".
func toolVersion(name string) string {
	for _, flag := range []string{"--version", "version", "-version"} {
		// #nosec G204 - name comes from fixed Tool definitions
		output, err := exec.Command(name, flag).CombinedOutput()
		if err != nil {
			continue
		}
		if line, _, _ := strings.Cut(string(output), "\n"); strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line)
		}
	}
	return ""
}
