// Package docker probes the local Docker daemon.
package docker

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"

	"github.com/vsops/vsbootstrap/internal/platform/shell"
)

// API is the subset of the Docker client used here.
type API interface {
	Ping(ctx context.Context) (types.Ping, error)
	ServerVersion(ctx context.Context) (types.Version, error)
}

// Daemon checks whether the Docker daemon answers.
type Daemon struct {
	api API
	// Runner, if set, is used for a privileged "docker info" when the
	// socket is not accessible to the current user. Group membership
	// granted during this run only applies to new login sessions.
	Runner shell.Runner
}

// NewDaemon connects to the daemon named by DOCKER_HOST, or the default
// socket.
func NewDaemon(runner shell.Runner) (*Daemon, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Daemon{api: cli, Runner: runner}, nil
}

// NewDaemonFromAPI wraps a pre-configured client.
func NewDaemonFromAPI(api API, runner shell.Runner) *Daemon {
	return &Daemon{api: api, Runner: runner}
}

// Ready reports whether the daemon answers a ping.
func (d *Daemon) Ready(ctx context.Context) (bool, error) {
	_, err := d.api.Ping(ctx)
	if err == nil {
		return true, nil
	}
	if d.Runner == nil {
		return false, fmt.Errorf("docker ping failed: %w", err)
	}

	clog.FromContext(ctx).Debug("docker ping failed, trying privileged docker info", "error", err)
	if _, runErr := d.Runner.Run(ctx, shell.Command{
		Name:       "docker",
		Args:       []string{"info", "--format", "{{.ServerVersion}}"},
		Privileged: true,
	}); runErr != nil {
		return false, fmt.Errorf("docker daemon not reachable: %w", runErr)
	}
	return true, nil
}

// Version returns the daemon's engine version.
func (d *Daemon) Version(ctx context.Context) (string, error) {
	v, err := d.api.ServerVersion(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to query docker version: %w", err)
	}
	return v.Version, nil
}
