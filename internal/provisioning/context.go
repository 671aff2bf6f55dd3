package provisioning

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vsops/vsbootstrap/internal/addons/helm"
	"github.com/vsops/vsbootstrap/internal/config"
	"github.com/vsops/vsbootstrap/internal/k8s"
	"github.com/vsops/vsbootstrap/internal/platform/shell"
)

// Options are run-wide switches.
type Options struct {
	// Redeploy forces the application deploy even when it is present.
	Redeploy bool
	// AppRelease overrides the Helm release that marks the application
	// as deployed.
	AppRelease string
}

// Context wraps all dependencies and state needed for a provisioning phase.
type Context struct {
	context.Context
	Record   config.Record
	Layout   config.Layout
	State    *State
	Observer Observer
	Timeouts *config.Timeouts
	Runner   shell.Runner
	Options  Options

	// Home is the invoking user's home directory.
	Home string
	// User is the invoking user's login name.
	User string

	KubeFactory     KubeFactory
	ReleasesFactory ReleasesFactory

	cluster  Cluster
	releases map[string]helm.ReleaseManager
}

// NewContext creates a new provisioning context with the default
// factories and observer.
func NewContext(ctx context.Context, rec config.Record, layout config.Layout, runner shell.Runner) *Context {
	home, _ := os.UserHomeDir()
	return &Context{
		Context:         ctx,
		Record:          rec,
		Layout:          layout,
		State:           NewState(),
		Observer:        NewLogObserver(ctx),
		Timeouts:        config.LoadTimeouts(),
		Runner:          runner,
		Home:            home,
		User:            currentUser(),
		KubeFactory:     defaultKubeFactory,
		ReleasesFactory: defaultReleasesFactory,
		releases:        map[string]helm.ReleaseManager{},
	}
}

func currentUser() string {
	if u := os.Getenv("SUDO_USER"); u != "" {
		return u
	}
	return os.Getenv("USER")
}

func defaultKubeFactory(path string) (Cluster, error) {
	return k8s.NewClient(path)
}

func defaultReleasesFactory(ctx context.Context, path, namespace string) (helm.ReleaseManager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read kubeconfig: %w", err)
	}
	return helm.NewClient(ctx, data, namespace)
}

// KubeconfigPath is where the user's kubeconfig lives.
func (c *Context) KubeconfigPath() string {
	if c.State.KubeconfigPath != "" {
		return c.State.KubeconfigPath
	}
	return filepath.Join(c.Home, ".kube", "config")
}

// Cluster opens cluster access on first use.
func (c *Context) Cluster() (Cluster, error) {
	if c.cluster != nil {
		return c.cluster, nil
	}
	cl, err := c.KubeFactory(c.KubeconfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open cluster: %w", err)
	}
	c.cluster = cl
	return cl, nil
}

// Releases opens Helm release access for namespace on first use.
func (c *Context) Releases(namespace string) (helm.ReleaseManager, error) {
	if c.releases == nil {
		c.releases = map[string]helm.ReleaseManager{}
	}
	if rm, ok := c.releases[namespace]; ok {
		return rm, nil
	}
	rm, err := c.ReleasesFactory(c.Context, c.KubeconfigPath(), namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to open helm releases in %s: %w", namespace, err)
	}
	c.releases[namespace] = rm
	return rm, nil
}

// RecordStep appends a step result and notifies the observer.
func (c *Context) RecordStep(res StepResult) {
	if res.Stage == "" {
		res.Stage = c.State.Stage
	}
	c.State.Steps = append(c.State.Steps, res)
	c.Observer.Event(Event{
		Type:     EventStepCompleted,
		Step:     res.Name,
		Stage:    res.Stage,
		Outcome:  res.Outcome,
		Duration: res.Duration,
		Err:      res.Err,
	})
}

// Transition moves the run to stage and notifies the observer. Moving to
// the current stage is a no-op.
func (c *Context) Transition(stage Stage) {
	if c.State.Stage == stage {
		return
	}
	from := c.State.Stage
	c.State.Stage = stage
	c.Observer.Event(Event{
		Type:    EventStageChanged,
		Stage:   stage,
		From:    from,
		Message: fmt.Sprintf("%s -> %s", from, stage),
	})
}

// Abort moves the run to StageAborted, naming the failed step.
func (c *Context) Abort(step string, err error) {
	from := c.State.Stage
	c.State.Stage = StageAborted
	c.Observer.Event(Event{
		Type:    EventStageChanged,
		Stage:   StageAborted,
		From:    from,
		Step:    step,
		Err:     err,
		Message: fmt.Sprintf("%s -> %s", from, StageAborted),
	})
}
