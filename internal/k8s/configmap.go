package k8s

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ConfigMapExists reports whether a ConfigMap exists.
func (c *Client) ConfigMapExists(ctx context.Context, namespace, name string) (bool, error) {
	_, err := c.clientset.CoreV1().ConfigMaps(namespace).Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get configmap %s/%s: %w", namespace, name, err)
	}
	return true, nil
}

// ApplyConfigMap creates the ConfigMap, or replaces its data when it
// exists. The namespace is created when missing. It reports whether the
// stored data changed.
func (c *Client) ApplyConfigMap(ctx context.Context, cm *corev1.ConfigMap) (bool, error) {
	if cm.Namespace == "" {
		return false, fmt.Errorf("configmap namespace is required")
	}
	if cm.Name == "" {
		return false, fmt.Errorf("configmap name is required")
	}
	if err := c.EnsureNamespace(ctx, cm.Namespace); err != nil {
		return false, err
	}

	cms := c.clientset.CoreV1().ConfigMaps(cm.Namespace)
	existing, err := cms.Get(ctx, cm.Name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		if _, err := cms.Create(ctx, cm, metav1.CreateOptions{}); err != nil {
			return false, fmt.Errorf("failed to create configmap %s/%s: %w", cm.Namespace, cm.Name, err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get configmap %s/%s: %w", cm.Namespace, cm.Name, err)
	}

	if sameData(existing.Data, cm.Data) {
		return false, nil
	}
	updated := existing.DeepCopy()
	updated.Data = cm.Data
	if _, err := cms.Update(ctx, updated, metav1.UpdateOptions{}); err != nil {
		return false, fmt.Errorf("failed to update configmap %s/%s: %w", cm.Namespace, cm.Name, err)
	}
	return true, nil
}

func sameData(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
