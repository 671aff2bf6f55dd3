package readiness

import (
	"github.com/vsops/vsbootstrap/internal/config"
	"github.com/vsops/vsbootstrap/internal/util/retry"
)

// Target names.
const (
	TargetDocker   = "docker-daemon"
	TargetNodes    = "k3s-nodes"
	TargetDatabase = "postgres-pods"
	TargetUI       = "verify-ui-pods"
	TargetAPI      = "verify-api-pods"
)

// Cluster-side selectors.
const (
	DatabaseNamespace = "database"
	DatabaseSelector  = "app.kubernetes.io/name=postgresql"
	AppNamespace      = "verify"
	UISelector        = "app=verify-ui"
	APISelector       = "app=verify-api"
)

const defaultBackoff = 2.0

// hostFallbackDivisor shortens the fallback sleep of host-level targets,
// which recover faster than pods.
const hostFallbackDivisor = 2

func base(t *config.Timeouts) Target {
	return Target{
		Interval:         t.PollInterval,
		MaxAttempts:      t.PollMaxAttempts,
		PollBackoff:      t.PollBackoff,
		MaxInterval:      t.PollMaxInterval,
		FallbackAttempts: t.FallbackAttempts,
		FallbackSleep:    t.FallbackSleep,
		Backoff:          defaultBackoff,
		MaxFallbackSleep: DefaultMaxFallbackSleep,
	}
}

// DockerTarget waits for the Docker daemon using probe.
func DockerTarget(t *config.Timeouts, probe retry.Condition) Target {
	tg := base(t)
	tg.Name = TargetDocker
	tg.Probe = probe
	tg.Timeout = t.DockerReady
	tg.FallbackSleep /= hostFallbackDivisor
	return tg
}

// NodesTarget waits for every k3s node to be Ready. It is fatal: nothing
// later can run without the API server.
func NodesTarget(t *config.Timeouts) Target {
	tg := base(t)
	tg.Name = TargetNodes
	tg.Kind = KindNodes
	tg.Timeout = t.NodesReady
	tg.FallbackSleep /= hostFallbackDivisor
	tg.Fatal = true
	return tg
}

// DatabaseTarget waits for the PostgreSQL pods.
func DatabaseTarget(t *config.Timeouts) Target {
	tg := base(t)
	tg.Name = TargetDatabase
	tg.Kind = KindPods
	tg.Namespace = DatabaseNamespace
	tg.Selector = DatabaseSelector
	tg.Timeout = t.DatabaseReady
	return tg
}

// ApplicationTargets wait for the UI and API pods.
func ApplicationTargets(t *config.Timeouts) []Target {
	ui := base(t)
	ui.Name = TargetUI
	ui.Kind = KindPods
	ui.Namespace = AppNamespace
	ui.Selector = UISelector
	ui.Timeout = t.AppReady

	api := ui
	api.Name = TargetAPI
	api.Selector = APISelector
	return []Target{ui, api}
}
