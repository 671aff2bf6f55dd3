package provisioning

import (
	"context"

	corev1 "k8s.io/api/core/v1"

	"github.com/vsops/vsbootstrap/internal/addons/helm"
	"github.com/vsops/vsbootstrap/internal/k8s"
)

// Phase defines the interface for a provisioning phase.
type Phase interface {
	// Name returns the human-readable name of this phase.
	Name() string

	// Stage returns the run stage this phase belongs to.
	Stage() Stage

	// Provision executes the phase. A returned error aborts the run;
	// advisory failures are recorded as warned steps instead.
	Provision(ctx *Context) error
}

// Cluster is the cluster access used by phases and the summary.
// Implemented by internal/k8s.Client.
type Cluster interface {
	NodesReady(ctx context.Context) (bool, error)
	PodsReady(ctx context.Context, namespace, labelSelector string) (bool, error)
	NamespaceExists(ctx context.Context, name string) (bool, error)
	ApplyConfigMap(ctx context.Context, cm *corev1.ConfigMap) (bool, error)
	ServiceNodePort(ctx context.Context, namespace, name string) (int32, error)
	PodStatuses(ctx context.Context, namespace, labelSelector string) ([]k8s.PodStatus, error)
}

var _ Cluster = (*k8s.Client)(nil)

// KubeFactory opens cluster access from a kubeconfig path.
type KubeFactory func(kubeconfigPath string) (Cluster, error)

// ReleasesFactory opens Helm release access for a namespace.
type ReleasesFactory func(ctx context.Context, kubeconfigPath, namespace string) (helm.ReleaseManager, error)
