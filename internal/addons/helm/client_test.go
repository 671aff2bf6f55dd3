package helm

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/release"
	"helm.sh/helm/v3/pkg/storage"
	"helm.sh/helm/v3/pkg/storage/driver"
)

const k3sKubeconfig = `apiVersion: v1
kind: Config
clusters:
- cluster:
    server: https://127.0.0.1:6443
    insecure-skip-tls-verify: true
  name: default
contexts:
- context:
    cluster: default
    user: default
  name: default
current-context: default
users:
- name: default
  user:
    token: test-token
`

func TestInMemoryRESTClientGetter_ToRESTConfig(t *testing.T) {
	getter := NewInMemoryRESTClientGetter([]byte(k3sKubeconfig), "database")

	cfg1, err := getter.ToRESTConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://127.0.0.1:6443", cfg1.Host)
	assert.Equal(t, "test-token", cfg1.BearerToken)

	cfg2, err := getter.ToRESTConfig()
	require.NoError(t, err)
	assert.Same(t, cfg1, cfg2)
}

func TestInMemoryRESTClientGetter_NamespaceOverride(t *testing.T) {
	getter := NewInMemoryRESTClientGetter([]byte(k3sKubeconfig), "database")

	ns, _, err := getter.ToRawKubeConfigLoader().Namespace()
	require.NoError(t, err)
	assert.Equal(t, "database", ns)
}

func TestInMemoryRESTClientGetter_InvalidKubeconfig(t *testing.T) {
	getter := NewInMemoryRESTClientGetter([]byte(`not valid yaml: {{{{`), "default")

	_, err := getter.ToRESTConfig()
	assert.Error(t, err)
}

func memoryClient(t *testing.T, releases ...*release.Release) *Client {
	t.Helper()
	mem := driver.NewMemory()
	mem.SetNamespace("database")
	store := storage.Init(mem)
	for _, r := range releases {
		require.NoError(t, store.Create(r))
	}
	return NewClientFromConfig(&action.Configuration{Releases: store}, "database")
}

func rel(version int, status release.Status) *release.Release {
	return &release.Release{
		Name:      "postgres",
		Namespace: "database",
		Version:   version,
		Info:      &release.Info{Status: status},
	}
}

func TestReleaseDeployed(t *testing.T) {
	ctx := context.Background()

	t.Run("absent", func(t *testing.T) {
		ok, err := memoryClient(t).ReleaseDeployed(ctx, "postgres")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("deployed", func(t *testing.T) {
		ok, err := memoryClient(t, rel(1, release.StatusDeployed)).ReleaseDeployed(ctx, "postgres")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("latest revision failed", func(t *testing.T) {
		c := memoryClient(t, rel(1, release.StatusSuperseded), rel(2, release.StatusFailed))
		ok, err := c.ReleaseDeployed(ctx, "postgres")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestReadValuesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "values.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  username: verify\nprimary:\n  persistence:\n    size: 8Gi\n"), 0o600))

	v, err := ReadValuesFile(path)
	require.NoError(t, err)
	got, ok := v.Get("primary.persistence.size")
	require.True(t, ok)
	assert.Equal(t, "8Gi", got)

	_, err = ReadValuesFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMerge_Deep(t *testing.T) {
	base := Values{
		"auth":    map[string]any{"username": "verify", "postgresPassword": "old"},
		"primary": map[string]any{"replicas": 1},
	}
	override := Values{
		"auth": map[string]any{"postgresPassword": "new", "database": "verify"},
	}

	merged := Merge(base, override)

	auth := merged["auth"].(map[string]any)
	assert.Equal(t, "verify", auth["username"])
	assert.Equal(t, "new", auth["postgresPassword"])
	assert.Equal(t, "verify", auth["database"])
	assert.Equal(t, map[string]any{"replicas": 1}, merged["primary"])
	assert.Equal(t, "old", base["auth"].(map[string]any)["postgresPassword"], "inputs are not mutated")
}

func TestValues_SetGet(t *testing.T) {
	v := Values{"global": "scalar"}
	v.Set("auth.postgresPassword", "pw")
	v.Set("global.postgresql.auth.postgresPassword", "pw")

	got, ok := v.Get("auth.postgresPassword")
	require.True(t, ok)
	assert.Equal(t, "pw", got)

	got, ok = v.Get("global.postgresql.auth.postgresPassword")
	require.True(t, ok)
	assert.Equal(t, "pw", got)

	_, ok = v.Get("auth.missing")
	assert.False(t, ok)
	_, ok = v.Get("auth.postgresPassword.deeper")
	assert.False(t, ok)
}

func TestPostgreSQLSpec(t *testing.T) {
	assert.Equal(t, PostgreSQL, PostgreSQLSpec())

	t.Setenv(EnvPostgresVersion, "16.4.1")
	assert.Equal(t, "16.4.1", PostgreSQLSpec().Version)
	assert.Equal(t, "postgresql", PostgreSQLSpec().Name)
}
