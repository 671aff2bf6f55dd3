package prerequisites

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsops/vsbootstrap/internal/logging"
)

func withLookPath(t *testing.T, present ...string) {
	t.Helper()
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })
	lookPath = func(name string) (string, error) {
		for _, p := range present {
			if p == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("executable file not found in $PATH")
	}
}

func TestBinary(t *testing.T) {
	withLookPath(t, "docker")
	ctx := context.Background()

	ok, err := Binary("docker")(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Binary("k3s")(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	require.NoError(t, os.WriteFile(path, []byte("apiVersion: v1"), 0o600))
	ctx := context.Background()

	ok, err := File(path)(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = File(filepath.Join(dir, "missing"))(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = File(dir)(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "a directory is not a file")
}

func TestAll(t *testing.T) {
	withLookPath(t, "java")
	ctx := context.Background()

	ok, _ := All(Binary("java"))(ctx)
	assert.True(t, ok)
	ok, _ = All(Binary("java"), Binary("mvn"))(ctx)
	assert.False(t, ok)
}

func TestPresent_ErrorMeansAbsent(t *testing.T) {
	ctx := logging.Discard(context.Background())
	failing := func(context.Context) (bool, error) { return true, errors.New("connection refused") }

	assert.False(t, Present(ctx, "postgresql", failing))
	assert.True(t, Present(ctx, "docker", func(context.Context) (bool, error) { return true, nil }))
}

func TestCheck(t *testing.T) {
	withLookPath(t, "sh", "sudo")

	results := Check(DefaultTools(), false)

	require.Len(t, results.Results, 3)
	assert.True(t, results.Results[0].Found)
	assert.Equal(t, "/usr/bin/sh", results.Results[0].Path)
	require.Len(t, results.Missing, 1)
	assert.Equal(t, "apt-get", results.Missing[0].Name)
	assert.True(t, results.HasErrors())
	require.Error(t, results.Error())
	assert.Contains(t, results.Error().Error(), "apt-get")
}

func TestCheck_OptionalMissing(t *testing.T) {
	withLookPath(t)

	results := Check(CapabilityTools(), false)

	assert.Len(t, results.Missing, len(CapabilityTools()))
	assert.False(t, results.HasErrors())
	assert.NoError(t, results.Error())
}
