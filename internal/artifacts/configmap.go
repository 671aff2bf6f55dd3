package artifacts

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"

	"github.com/vsops/vsbootstrap/internal/config"
)

// Cluster-side names the application expects.
const (
	AppNamespace  = "verify"
	ConfigMapName = "verify-config"
	DBHost        = "postgres-postgresql.database.svc.cluster.local"
	DBPort        = "5432"
	RedisHost     = "redis-master.verify.svc.cluster.local"
)

// ConfigMap keys.
const (
	KeyAppHost    = "APP_HOST"
	KeyDBHost     = "DB_HOST"
	KeyDBPort     = "DB_PORT"
	KeyRedisHost  = "REDIS_HOST"
	KeySSLEnabled = "SSL_ENABLED"
	KeyPublicURL  = "PUBLIC_URL"
)

// RenderConfigMap builds the application ConfigMap for rec.
func RenderConfigMap(rec config.Record) *corev1.ConfigMap {
	return &corev1.ConfigMap{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "ConfigMap"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      ConfigMapName,
			Namespace: AppNamespace,
			Labels:    map[string]string{"app.kubernetes.io/managed-by": "vsbootstrap"},
		},
		Data: map[string]string{
			KeyAppHost:    rec.Domain(),
			KeyDBHost:     DBHost,
			KeyDBPort:     DBPort,
			KeyRedisHost:  RedisHost,
			KeySSLEnabled: strconv.FormatBool(rec.SSL()),
			KeyPublicURL:  rec.PublicURL(),
		},
	}
}

// WriteConfigMap renders the ConfigMap for rec to path. It reports whether
// the file changed.
func WriteConfigMap(path string, rec config.Record) (bool, error) {
	out, err := yaml.Marshal(RenderConfigMap(rec))
	if err != nil {
		return false, fmt.Errorf("failed to marshal configmap: %w", err)
	}
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, out) {
		return false, nil
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return false, fmt.Errorf("failed to write configmap manifest: %w", err)
	}
	return true, nil
}

// ReadConfigMap decodes a ConfigMap manifest.
func ReadConfigMap(path string) (*corev1.ConfigMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configmap manifest: %w", err)
	}
	var cm corev1.ConfigMap
	if err := yaml.UnmarshalStrict(data, &cm); err != nil {
		return nil, fmt.Errorf("failed to parse configmap manifest %s: %w", path, err)
	}
	if cm.Kind != "ConfigMap" {
		return nil, fmt.Errorf("%s: expected kind ConfigMap, got %q", path, cm.Kind)
	}
	if cm.Namespace == "" {
		cm.Namespace = AppNamespace
	}
	return &cm, nil
}
