package k8s

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// PodStatus is a condensed view of a pod for status output.
type PodStatus struct {
	Name     string
	Phase    corev1.PodPhase
	Ready    bool
	Restarts int32
}

// NodesReady reports whether at least one node is registered and every
// node has the Ready condition.
func (c *Client) NodesReady(ctx context.Context) (bool, error) {
	nodes, err := c.clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return false, fmt.Errorf("failed to list nodes: %w", err)
	}
	if len(nodes.Items) == 0 {
		return false, nil
	}
	for i := range nodes.Items {
		if !isNodeReady(&nodes.Items[i]) {
			return false, nil
		}
	}
	return true, nil
}

// PodsReady reports whether at least one pod matches the selector and all
// matching pods are ready. A missing namespace is not ready, not an error.
// Completed pods are ignored.
func (c *Client) PodsReady(ctx context.Context, namespace, labelSelector string) (bool, error) {
	exists, err := c.NamespaceExists(ctx, namespace)
	if err != nil || !exists {
		return false, err
	}

	pods, err := c.GetPods(ctx, namespace, labelSelector)
	if err != nil {
		return false, err
	}

	running := 0
	for i := range pods {
		if pods[i].Status.Phase == corev1.PodSucceeded {
			continue
		}
		if !isPodReady(&pods[i]) {
			return false, nil
		}
		running++
	}
	return running > 0, nil
}

// GetPods returns pods matching a label selector.
func (c *Client) GetPods(ctx context.Context, namespace, labelSelector string) ([]corev1.Pod, error) {
	pods, err := c.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: labelSelector,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods in %s: %w", namespace, err)
	}
	return pods.Items, nil
}

// PodStatuses summarises pods matching a label selector.
func (c *Client) PodStatuses(ctx context.Context, namespace, labelSelector string) ([]PodStatus, error) {
	pods, err := c.GetPods(ctx, namespace, labelSelector)
	if err != nil {
		return nil, err
	}
	out := make([]PodStatus, 0, len(pods))
	for i := range pods {
		var restarts int32
		for _, cs := range pods[i].Status.ContainerStatuses {
			restarts += cs.RestartCount
		}
		out = append(out, PodStatus{
			Name:     pods[i].Name,
			Phase:    pods[i].Status.Phase,
			Ready:    isPodReady(&pods[i]),
			Restarts: restarts,
		})
	}
	return out, nil
}

// isPodReady checks if a pod is ready.
func isPodReady(pod *corev1.Pod) bool {
	if pod.Status.Phase != corev1.PodRunning {
		return false
	}

	for _, condition := range pod.Status.Conditions {
		if condition.Type == corev1.PodReady &&
			condition.Status == corev1.ConditionTrue {
			return true
		}
	}

	return false
}

func isNodeReady(node *corev1.Node) bool {
	for _, condition := range node.Status.Conditions {
		if condition.Type == corev1.NodeReady {
			return condition.Status == corev1.ConditionTrue
		}
	}
	return false
}
