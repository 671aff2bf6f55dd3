package helm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chainguard-dev/clog"
	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/cli"
	"helm.sh/helm/v3/pkg/release"
	"helm.sh/helm/v3/pkg/storage/driver"
)

// DefaultTimeout bounds a single install or upgrade.
const DefaultTimeout = 10 * time.Minute

// ReleaseManager is the subset of Helm operations the bootstrap uses.
type ReleaseManager interface {
	// ReleaseDeployed reports whether the latest revision of a release is deployed.
	ReleaseDeployed(ctx context.Context, releaseName string) (bool, error)
	InstallOrUpgrade(ctx context.Context, releaseName string, spec ChartSpec, values Values) (*release.Release, error)
}

// Client provides Helm operations using in-memory kubeconfig.
type Client struct {
	namespace    string
	actionConfig *action.Configuration
	settings     *cli.EnvSettings
	// Wait makes install and upgrade block until resources are ready.
	Wait    bool
	Timeout time.Duration
}

var _ ReleaseManager = (*Client)(nil)

// NewClient creates a Helm client from kubeconfig bytes.
func NewClient(ctx context.Context, kubeconfig []byte, namespace string) (*Client, error) {
	actionConfig := new(action.Configuration)
	restGetter := NewInMemoryRESTClientGetter(kubeconfig, namespace)

	log := clog.FromContext(ctx).With("component", "helm")
	debug := func(format string, v ...interface{}) {
		log.Debug(fmt.Sprintf(format, v...))
	}
	if err := actionConfig.Init(restGetter, namespace, "secret", debug); err != nil {
		return nil, fmt.Errorf("failed to initialize helm action config: %w", err)
	}

	return NewClientFromConfig(actionConfig, namespace), nil
}

// NewClientFromConfig wraps a prepared action configuration.
// This is useful for testing with in-memory storage.
func NewClientFromConfig(actionConfig *action.Configuration, namespace string) *Client {
	return &Client{
		namespace:    namespace,
		actionConfig: actionConfig,
		settings:     cli.New(),
		Timeout:      DefaultTimeout,
	}
}

// ReleaseDeployed reports whether the latest revision of a release is deployed.
func (c *Client) ReleaseDeployed(_ context.Context, releaseName string) (bool, error) {
	history, err := c.actionConfig.Releases.History(releaseName)
	if errors.Is(err, driver.ErrReleaseNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read history of release %s: %w", releaseName, err)
	}
	if len(history) == 0 {
		return false, nil
	}

	latest := history[0]
	for _, r := range history[1:] {
		if r.Version > latest.Version {
			latest = r
		}
	}
	return latest.Info != nil && latest.Info.Status == release.StatusDeployed, nil
}

// InstallOrUpgrade installs a chart or upgrades if already installed.
func (c *Client) InstallOrUpgrade(ctx context.Context, releaseName string, spec ChartSpec, values Values) (*release.Release, error) {
	ch, err := c.loadChart(spec)
	if err != nil {
		return nil, err
	}

	history, err := c.actionConfig.Releases.History(releaseName)
	if err != nil || len(history) == 0 {
		clog.FromContext(ctx).Info("installing helm release", "release", releaseName, "chart", spec.Name, "namespace", c.namespace)
		return c.install(ctx, releaseName, ch, values)
	}
	clog.FromContext(ctx).Info("upgrading helm release", "release", releaseName, "chart", spec.Name, "namespace", c.namespace)
	return c.upgrade(ctx, releaseName, ch, values)
}

func (c *Client) install(ctx context.Context, releaseName string, ch *chart.Chart, values Values) (*release.Release, error) {
	installClient := action.NewInstall(c.actionConfig)
	installClient.ReleaseName = releaseName
	installClient.Namespace = c.namespace
	installClient.CreateNamespace = true
	installClient.Wait = c.Wait
	installClient.Timeout = c.Timeout

	rel, err := installClient.RunWithContext(ctx, ch, values)
	if err != nil {
		return nil, fmt.Errorf("helm install %s failed: %w", releaseName, err)
	}
	return rel, nil
}

func (c *Client) upgrade(ctx context.Context, releaseName string, ch *chart.Chart, values Values) (*release.Release, error) {
	upgradeClient := action.NewUpgrade(c.actionConfig)
	upgradeClient.Namespace = c.namespace
	upgradeClient.Wait = c.Wait
	upgradeClient.Timeout = c.Timeout
	upgradeClient.ReuseValues = false

	rel, err := upgradeClient.RunWithContext(ctx, releaseName, ch, values)
	if err != nil {
		return nil, fmt.Errorf("helm upgrade %s failed: %w", releaseName, err)
	}
	return rel, nil
}

func (c *Client) loadChart(spec ChartSpec) (*chart.Chart, error) {
	cp := &action.ChartPathOptions{}
	cp.RepoURL = spec.Repository
	cp.Version = spec.Version

	chartPath, err := cp.LocateChart(spec.Name, c.settings)
	if err != nil {
		return nil, fmt.Errorf("failed to locate chart %s in %s: %w", spec.Name, spec.Repository, err)
	}

	ch, err := loader.Load(chartPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load chart %s: %w", spec.Name, err)
	}
	return ch, nil
}
