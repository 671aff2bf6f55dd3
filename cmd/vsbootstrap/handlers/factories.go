package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/vsops/vsbootstrap/internal/addons/helm"
	"github.com/vsops/vsbootstrap/internal/config"
	"github.com/vsops/vsbootstrap/internal/config/wizard"
	"github.com/vsops/vsbootstrap/internal/k8s"
	"github.com/vsops/vsbootstrap/internal/logging"
	awsplatform "github.com/vsops/vsbootstrap/internal/platform/aws"
	"github.com/vsops/vsbootstrap/internal/platform/docker"
	"github.com/vsops/vsbootstrap/internal/platform/shell"
	"github.com/vsops/vsbootstrap/internal/provisioning"
	"github.com/vsops/vsbootstrap/internal/provisioning/host"
	"github.com/vsops/vsbootstrap/internal/provisioning/workload"
	"github.com/vsops/vsbootstrap/internal/report"
)

// HostMetadata is the instance metadata the handlers use.
type HostMetadata interface {
	PublicIP(ctx context.Context) (string, error)
	Identity(ctx context.Context) (awsplatform.Identity, error)
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// geteuid returns the effective user id.
	geteuid = os.Geteuid

	// stdinIsTerminal reports whether prompts can be shown.
	stdinIsTerminal = func() bool {
		fd := os.Stdin.Fd()
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}

	// newPrompter creates the interactive prompter.
	newPrompter = func() config.Prompter {
		return wizard.NewPrompter(os.Getenv("ACCESSIBLE") != "")
	}

	// newMetadata creates the EC2 instance metadata client.
	newMetadata = func() HostMetadata {
		return awsplatform.NewMetadata()
	}

	// newRunner creates the host command runner.
	newRunner = func() shell.Runner {
		return shell.NewExecRunner()
	}

	// setupLogging creates the run logger.
	setupLogging = logging.Setup

	// dockerVersion asks the local daemon for its engine version.
	dockerVersion = func(ctx context.Context) (string, error) {
		d, err := docker.NewDaemon(nil)
		if err != nil {
			return "", err
		}
		return d.Version(ctx)
	}

	// newKubeClient opens the cluster from a kubeconfig path.
	newKubeClient provisioning.KubeFactory = func(path string) (provisioning.Cluster, error) {
		return k8s.NewClient(path)
	}

	// newReleases opens Helm release access for a namespace.
	newReleases provisioning.ReleasesFactory = func(ctx context.Context, path, namespace string) (helm.ReleaseManager, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read kubeconfig: %w", err)
		}
		return helm.NewClient(ctx, data, namespace)
	}

	// newPhases returns the pipeline phases in run order.
	newPhases = func() []provisioning.Phase {
		phases := []provisioning.Phase{workload.NewArtifactsPhase()}
		phases = append(phases, host.Phases()...)
		return append(phases, workload.Phases()...)
	}

	// newAdvisor creates the security group advisor for region.
	newAdvisor = func(ctx context.Context, region string) (report.PortAdvisor, error) {
		cfg, err := awsplatform.LoadConfig(ctx, region)
		if err != nil {
			return nil, err
		}
		return awsplatform.NewIngressChecker(cfg), nil
	}

	// uploadLog uploads a file to S3.
	uploadLog = func(ctx context.Context, region, bucket, key, path string) error {
		cfg, err := awsplatform.LoadConfig(ctx, region)
		if err != nil {
			return err
		}
		return awsplatform.NewArchiver(cfg).UploadFile(ctx, bucket, key, path)
	}

	// stdout receives user-facing output.
	stdout io.Writer = os.Stdout
)
