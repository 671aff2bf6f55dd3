package testing

import (
	"context"
	"io"
	"strings"
	"sync"

	corev1 "k8s.io/api/core/v1"

	"github.com/vsops/vsbootstrap/internal/k8s"
	"github.com/vsops/vsbootstrap/internal/platform/shell"
)

// FakeRunner records commands instead of executing them.
// Failures are scripted per command name.
type FakeRunner struct {
	mu       sync.Mutex
	Commands []shell.Command
	// Stdin holds what each command would have read, in call order.
	Stdin []string
	errs  map[string]error
	// OnRun, if set, runs after recording and before the scripted result.
	OnRun func(cmd shell.Command)
}

// NewFakeRunner creates a FakeRunner where every command succeeds.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{errs: map[string]error{}}
}

// FailOn makes every command named name fail with err.
func (f *FakeRunner) FailOn(name string, err error) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[name] = err
	return f
}

// Run implements shell.Runner.
func (f *FakeRunner) Run(_ context.Context, cmd shell.Command) (string, error) {
	stdin := ""
	if cmd.Stdin != nil {
		b, _ := io.ReadAll(cmd.Stdin)
		stdin = string(b)
	}
	f.mu.Lock()
	f.Commands = append(f.Commands, cmd)
	f.Stdin = append(f.Stdin, stdin)
	hook := f.OnRun
	err := f.errs[cmd.Name]
	f.mu.Unlock()

	if hook != nil {
		hook(cmd)
	}
	return "", err
}

// Lines renders each recorded command as "name arg arg".
func (f *FakeRunner) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, len(f.Commands))
	for i, c := range f.Commands {
		lines[i] = strings.Join(append([]string{c.Name}, c.Args...), " ")
	}
	return lines
}

// FakeCluster is an in-memory provisioning.Cluster.
// Readiness answers are consumed in order; the last one repeats.
type FakeCluster struct {
	mu         sync.Mutex
	Nodes      []bool
	Pods       map[string][]bool
	Namespaces map[string]bool
	NodePorts  map[string]int32
	Statuses   map[string][]k8s.PodStatus
	Applied    []*corev1.ConfigMap
	NodesErr   error
	PodsCalls  map[string]int
	NodesCalls int
}

// NewFakeCluster creates an empty FakeCluster with ready nodes.
func NewFakeCluster() *FakeCluster {
	return &FakeCluster{
		Nodes:      []bool{true},
		Pods:       map[string][]bool{},
		Namespaces: map[string]bool{},
		NodePorts:  map[string]int32{},
		Statuses:   map[string][]k8s.PodStatus{},
		PodsCalls:  map[string]int{},
	}
}

func next(answers []bool, call int) bool {
	if len(answers) == 0 {
		return false
	}
	if call >= len(answers) {
		return answers[len(answers)-1]
	}
	return answers[call]
}

// NodesReady implements provisioning.Cluster.
func (c *FakeCluster) NodesReady(context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	call := c.NodesCalls
	c.NodesCalls++
	if c.NodesErr != nil {
		return false, c.NodesErr
	}
	return next(c.Nodes, call), nil
}

// PodsReady implements provisioning.Cluster. Answers are keyed by namespace.
func (c *FakeCluster) PodsReady(_ context.Context, namespace, _ string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	call := c.PodsCalls[namespace]
	c.PodsCalls[namespace]++
	return next(c.Pods[namespace], call), nil
}

// NamespaceExists implements provisioning.Cluster.
func (c *FakeCluster) NamespaceExists(_ context.Context, name string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Namespaces[name], nil
}

// ApplyConfigMap implements provisioning.Cluster.
func (c *FakeCluster) ApplyConfigMap(_ context.Context, cm *corev1.ConfigMap) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Applied = append(c.Applied, cm.DeepCopy())
	c.Namespaces[cm.Namespace] = true
	return true, nil
}

// ServiceNodePort implements provisioning.Cluster. Ports are keyed "namespace/name".
func (c *FakeCluster) ServiceNodePort(_ context.Context, namespace, name string) (int32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.NodePorts[namespace+"/"+name]
	if !ok {
		return 0, k8s.ErrNoNodePort
	}
	return p, nil
}

// PodStatuses implements provisioning.Cluster.
func (c *FakeCluster) PodStatuses(_ context.Context, namespace, _ string) ([]k8s.PodStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Statuses[namespace], nil
}

// FakePrompter answers prompts from fixed values and records what was asked.
type FakePrompter struct {
	DomainAnswer   string
	SSLAnswer      bool
	PasswordAnswer string
	ConfirmAnswer  bool
	Err            error

	Asked      []string
	Suggestion string
}

// Domain implements config.Prompter.
func (p *FakePrompter) Domain(_ context.Context, suggestion string) (string, error) {
	p.Asked = append(p.Asked, "domain")
	p.Suggestion = suggestion
	return p.DomainAnswer, p.Err
}

// SSL implements config.Prompter.
func (p *FakePrompter) SSL(context.Context, bool) (bool, error) {
	p.Asked = append(p.Asked, "ssl")
	return p.SSLAnswer, p.Err
}

// DBPassword implements config.Prompter.
func (p *FakePrompter) DBPassword(context.Context) (string, error) {
	p.Asked = append(p.Asked, "password")
	return p.PasswordAnswer, p.Err
}

// Confirm implements config.Prompter.
func (p *FakePrompter) Confirm(context.Context, string) (bool, error) {
	p.Asked = append(p.Asked, "confirm")
	return p.ConfirmAnswer, p.Err
}
