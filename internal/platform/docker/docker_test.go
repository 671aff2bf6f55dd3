package docker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsops/vsbootstrap/internal/platform/shell"
)

func httpDaemon(t *testing.T, handler http.HandlerFunc) *Daemon {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cli, err := client.NewClientWithOpts(
		client.WithHost("tcp://"+server.Listener.Addr().String()),
		client.WithHTTPClient(server.Client()),
		client.WithVersion("1.45"),
	)
	require.NoError(t, err)
	return NewDaemonFromAPI(cli, nil)
}

func TestReady_Ping(t *testing.T) {
	d := httpDaemon(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/_ping") {
			w.Header().Set("Api-Version", "1.45")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	ok, err := d.Ready(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReady_DaemonDown(t *testing.T) {
	d := httpDaemon(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	ok, err := d.Ready(context.Background())
	assert.False(t, ok)
	assert.Error(t, err)
}

type stubAPI struct{ err error }

func (s stubAPI) Ping(context.Context) (types.Ping, error) { return types.Ping{}, s.err }

func (s stubAPI) ServerVersion(context.Context) (types.Version, error) {
	return types.Version{Version: "28.1.1", APIVersion: "1.49"}, s.err
}

type stubRunner struct {
	cmds []shell.Command
	err  error
}

func (r *stubRunner) Run(_ context.Context, cmd shell.Command) (string, error) {
	r.cmds = append(r.cmds, cmd)
	return "28.1.1", r.err
}

func TestReady_PrivilegedFallback(t *testing.T) {
	runner := &stubRunner{}
	d := NewDaemonFromAPI(stubAPI{err: errors.New("permission denied")}, runner)

	ok, err := d.Ready(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, runner.cmds, 1)
	assert.True(t, runner.cmds[0].Privileged)
	assert.Equal(t, "docker", runner.cmds[0].Name)

	runner.err = errors.New("exit status 1")
	ok, err = d.Ready(context.Background())
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	v, err := NewDaemonFromAPI(stubAPI{}, nil).Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "28.1.1", v)

	_, err = NewDaemonFromAPI(stubAPI{err: errors.New("connection refused")}, nil).Version(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestVersion_HTTP(t *testing.T) {
	d := httpDaemon(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/version") {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"Version":"28.1.1","ApiVersion":"1.49"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	v, err := d.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "28.1.1", v)
}
