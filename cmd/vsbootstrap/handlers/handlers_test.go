package handlers

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsops/vsbootstrap/internal/addons/helm"
	"github.com/vsops/vsbootstrap/internal/capability"
	"github.com/vsops/vsbootstrap/internal/config"
	"github.com/vsops/vsbootstrap/internal/logging"
	awsplatform "github.com/vsops/vsbootstrap/internal/platform/aws"
	"github.com/vsops/vsbootstrap/internal/platform/shell"
	"github.com/vsops/vsbootstrap/internal/provisioning"
	"github.com/vsops/vsbootstrap/internal/report"
	testutil "github.com/vsops/vsbootstrap/internal/testing"
)

type fakeMetadata struct {
	ip       string
	ipErr    error
	identity awsplatform.Identity
	idErr    error
}

func (m *fakeMetadata) PublicIP(context.Context) (string, error) { return m.ip, m.ipErr }

func (m *fakeMetadata) Identity(context.Context) (awsplatform.Identity, error) {
	return m.identity, m.idErr
}

type fakeAdvisor struct {
	closed []int32
}

func (a *fakeAdvisor) ClosedPorts(context.Context, string, []int32) ([]int32, error) {
	return a.closed, nil
}

// funcPhase is a pipeline phase backed by a function.
type funcPhase struct {
	name string
	fn   func(*provisioning.Context) error
}

func (p funcPhase) Name() string { return p.name }

func (p funcPhase) Stage() provisioning.Stage { return provisioning.StageInstalling }

func (p funcPhase) Provision(c *provisioning.Context) error { return p.fn(c) }

// upHarness replaces every handler factory for the duration of a test.
type upHarness struct {
	runner   *testutil.FakeRunner
	cluster  *testutil.FakeCluster
	prompter *testutil.FakePrompter
	metadata *fakeMetadata
	out      *bytes.Buffer
	logDir   string

	phasesRun []string
	uploads   []string
}

func saveAndRestoreFactories(t *testing.T) {
	origGeteuid := geteuid
	origStdinIsTerminal := stdinIsTerminal
	origNewPrompter := newPrompter
	origNewMetadata := newMetadata
	origNewRunner := newRunner
	origSetupLogging := setupLogging
	origNewKubeClient := newKubeClient
	origDockerVersion := dockerVersion
	origNewReleases := newReleases
	origNewPhases := newPhases
	origNewAdvisor := newAdvisor
	origUploadLog := uploadLog
	origStdout := stdout

	t.Cleanup(func() {
		geteuid = origGeteuid
		stdinIsTerminal = origStdinIsTerminal
		newPrompter = origNewPrompter
		newMetadata = origNewMetadata
		newRunner = origNewRunner
		setupLogging = origSetupLogging
		newKubeClient = origNewKubeClient
		dockerVersion = origDockerVersion
		newReleases = origNewReleases
		newPhases = origNewPhases
		newAdvisor = origNewAdvisor
		uploadLog = origUploadLog
		stdout = origStdout
	})
}

func newUpHarness(t *testing.T) *upHarness {
	t.Helper()
	saveAndRestoreFactories(t)
	t.Setenv(config.EnvDomain, "")
	t.Setenv(config.EnvSSL, "")
	t.Setenv(config.EnvDBPassword, "")

	h := &upHarness{
		runner:   testutil.NewFakeRunner(),
		cluster:  testutil.NewFakeCluster(),
		prompter: &testutil.FakePrompter{ConfirmAnswer: true},
		metadata: &fakeMetadata{ip: "54.1.2.3", identity: awsplatform.Identity{InstanceID: "i-0abc", Region: "eu-central-1"}},
		out:      &bytes.Buffer{},
		logDir:   t.TempDir(),
	}
	h.cluster.NodePorts["verify/"+report.UIService] = 30080
	h.cluster.NodePorts["verify/"+report.APIService] = 30081

	geteuid = func() int { return 1000 }
	stdinIsTerminal = func() bool { return true }
	newPrompter = func() config.Prompter { return h.prompter }
	newMetadata = func() HostMetadata { return h.metadata }
	newRunner = func() shell.Runner { return h.runner }
	setupLogging = func(ctx context.Context, opts logging.Options) (context.Context, *logging.Run, error) {
		opts.Dir = h.logDir
		opts.Terminal = &bytes.Buffer{}
		return logging.Setup(ctx, opts)
	}
	newKubeClient = func(string) (provisioning.Cluster, error) { return h.cluster, nil }
	newReleases = func(context.Context, string, string) (helm.ReleaseManager, error) {
		return nil, errors.New("no releases in tests")
	}
	newPhases = func() []provisioning.Phase {
		return []provisioning.Phase{h.phase("first", nil), h.phase("second", nil)}
	}
	newAdvisor = func(context.Context, string) (report.PortAdvisor, error) {
		return &fakeAdvisor{}, nil
	}
	uploadLog = func(_ context.Context, region, bucket, key, _ string) error {
		h.uploads = append(h.uploads, region+":"+bucket+"/"+key)
		return nil
	}
	stdout = h.out
	return h
}

func (h *upHarness) phase(name string, err error) provisioning.Phase {
	return funcPhase{name: name, fn: func(*provisioning.Context) error {
		h.phasesRun = append(h.phasesRun, name)
		return err
	}}
}

func (h *upHarness) logFiles(t *testing.T) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(h.logDir, logging.FilePrefix+"-*.log"))
	require.NoError(t, err)
	return matches
}

func upOptions(t *testing.T) UpOptions {
	return UpOptions{PlatformDir: testutil.PlatformTree(t)}
}

func boolPtr(b bool) *bool { return &b }

func TestUp_RefusesRoot(t *testing.T) {
	h := newUpHarness(t)
	geteuid = func() int { return 0 }

	err := Up(context.Background(), upOptions(t))

	require.ErrorIs(t, err, provisioning.ErrPrivilegeViolation)
	assert.Empty(t, h.logFiles(t), "no log file before the privilege check")
	assert.Empty(t, h.runner.Commands)
	assert.Empty(t, h.phasesRun)
}

func TestUp_MissingPlatformDirectory(t *testing.T) {
	h := newUpHarness(t)

	err := Up(context.Background(), UpOptions{PlatformDir: filepath.Join(t.TempDir(), "absent")})

	require.ErrorIs(t, err, config.ErrMissingDirectory)
	assert.Empty(t, h.logFiles(t))
	assert.Empty(t, h.phasesRun)
}

func TestUp_DeclinedConfirmationChangesNothing(t *testing.T) {
	h := newUpHarness(t)
	h.prompter.DomainAnswer = "verify.example.com"
	h.prompter.ConfirmAnswer = false
	opts := upOptions(t)
	valuesBefore, err := os.ReadFile(filepath.Join(opts.PlatformDir, "db-init", "values.yaml"))
	require.NoError(t, err)

	err = Up(context.Background(), opts)

	require.NoError(t, err)
	assert.Contains(t, h.out.String(), "cancelled")
	assert.Empty(t, h.phasesRun)
	assert.Empty(t, h.runner.Commands)
	valuesAfter, err := os.ReadFile(filepath.Join(opts.PlatformDir, "db-init", "values.yaml"))
	require.NoError(t, err)
	assert.Equal(t, valuesBefore, valuesAfter)
}

func TestUp_NoDomainResolvable(t *testing.T) {
	h := newUpHarness(t)
	stdinIsTerminal = func() bool { return false }
	h.metadata.ipErr = errors.New("metadata unreachable")
	h.metadata.ip = ""

	err := Up(context.Background(), upOptions(t))

	require.ErrorIs(t, err, config.ErrNoDomain)
	assert.Empty(t, h.phasesRun)
}

func TestUp_NonInteractiveNeedsYes(t *testing.T) {
	h := newUpHarness(t)
	stdinIsTerminal = func() bool { return false }

	err := Up(context.Background(), UpOptions{PlatformDir: testutil.PlatformTree(t), Domain: "verify.example.com"})

	require.ErrorIs(t, err, config.ErrConfirmationRequired)
	assert.Empty(t, h.phasesRun)
	assert.Empty(t, h.prompter.Asked)
}

func TestUp_FlagsWithYesSkipPrompts(t *testing.T) {
	h := newUpHarness(t)
	opts := upOptions(t)
	opts.Domain = "verify.example.com"
	opts.SSL = boolPtr(true)
	opts.DBPassword = "s3cret"
	opts.Yes = true

	require.NoError(t, Up(context.Background(), opts))

	assert.Empty(t, h.prompter.Asked)
	assert.Equal(t, []string{"first", "second"}, h.phasesRun)
}

func TestUp_SSLRunPrintsHTTPSURLs(t *testing.T) {
	h := newUpHarness(t)
	h.prompter.DomainAnswer = "verify.example.com"
	h.prompter.SSLAnswer = true
	h.prompter.PasswordAnswer = "s3cret"

	require.NoError(t, Up(context.Background(), upOptions(t)))

	out := h.out.String()
	assert.Contains(t, out, "https://verify.example.com")
	assert.Contains(t, out, "https://verify.example.com/v1/verify")
	assert.Equal(t, []string{"domain", "ssl", "password", "confirm"}, h.prompter.Asked)
	assert.Equal(t, "54.1.2.3", h.prompter.Suggestion)
	require.Len(t, h.logFiles(t), 1)
}

func TestUp_PlainHTTPRunUsesPublicIPAndNodePorts(t *testing.T) {
	h := newUpHarness(t)
	newAdvisor = func(context.Context, string) (report.PortAdvisor, error) {
		return &fakeAdvisor{closed: []int32{30081}}, nil
	}

	require.NoError(t, Up(context.Background(), upOptions(t)))

	out := h.out.String()
	assert.Contains(t, out, "http://54.1.2.3:30080")
	assert.Contains(t, out, "http://54.1.2.3:30081/v1/verify")
	assert.Contains(t, out, "30081")
	assert.NotContains(t, out, "https://")
}

func TestUp_FatalStepAbortsWithoutSummary(t *testing.T) {
	h := newUpHarness(t)
	h.prompter.DomainAnswer = "verify.example.com"
	newPhases = func() []provisioning.Phase {
		return []provisioning.Phase{
			h.phase("first", provisioning.NewStepError("k3s-nodes", errors.New("nodes never ready"))),
			h.phase("second", nil),
		}
	}
	opts := upOptions(t)
	opts.MetricsFile = filepath.Join(t.TempDir(), "vsbootstrap.prom")

	err := Up(context.Background(), opts)

	require.Error(t, err)
	assert.Equal(t, "k3s-nodes", provisioning.FailedStep(err))
	assert.Equal(t, []string{"first"}, h.phasesRun)
	assert.NotContains(t, h.out.String(), "Verification service deployed")

	data, err := os.ReadFile(opts.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "vsbootstrap_run_aborted")

	logs := h.logFiles(t)
	require.Len(t, logs, 1)
	logData, err := os.ReadFile(logs[0])
	require.NoError(t, err)
	assert.Contains(t, string(logData), "provisioning aborted")
}

func TestUp_WritesMetricsFile(t *testing.T) {
	newUpHarness(t)
	opts := upOptions(t)
	opts.MetricsFile = filepath.Join(t.TempDir(), "vsbootstrap.prom")

	require.NoError(t, Up(context.Background(), opts))

	data, err := os.ReadFile(opts.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "vsbootstrap_run_stage")
}

func TestUp_ArchivesRunLog(t *testing.T) {
	h := newUpHarness(t)
	opts := upOptions(t)
	opts.LogBucket = "s3://ops-logs/vsbootstrap"

	require.NoError(t, Up(context.Background(), opts))

	require.Len(t, h.uploads, 1)
	assert.True(t, strings.HasPrefix(h.uploads[0], "eu-central-1:ops-logs/vsbootstrap/i-0abc/"+logging.FilePrefix+"-"), h.uploads[0])
}

func TestUp_ArchivedLogRecordsAbort(t *testing.T) {
	h := newUpHarness(t)
	newPhases = func() []provisioning.Phase {
		return []provisioning.Phase{
			h.phase("first", provisioning.NewStepError("postgresql", errors.New("chart not found"))),
		}
	}
	var archived string
	uploadLog = func(_ context.Context, _, _, _, path string) error {
		data, err := os.ReadFile(path)
		archived = string(data)
		return err
	}
	opts := upOptions(t)
	opts.LogBucket = "s3://ops-logs"

	err := Up(context.Background(), opts)

	require.Error(t, err)
	assert.Contains(t, archived, "provisioning aborted")
	assert.Contains(t, archived, "postgresql")
}

func TestUp_ArchiveFailureIsAWarning(t *testing.T) {
	newUpHarness(t)
	uploadLog = func(context.Context, string, string, string, string) error {
		return errors.New("access denied")
	}
	opts := upOptions(t)
	opts.LogBucket = "s3://ops-logs"

	assert.NoError(t, Up(context.Background(), opts))
}

func TestUp_SavesAnswers(t *testing.T) {
	h := newUpHarness(t)
	h.prompter.DomainAnswer = "verify.example.com"
	opts := upOptions(t)
	opts.SaveAnswers = filepath.Join(t.TempDir(), "answers.yaml")

	require.NoError(t, Up(context.Background(), opts))

	answers, err := config.LoadAnswers(opts.SaveAnswers)
	require.NoError(t, err)
	assert.Equal(t, "verify.example.com", answers.Domain)
}

func TestUp_KeepsExistingAnswersFile(t *testing.T) {
	h := newUpHarness(t)
	h.prompter.DomainAnswer = "verify.example.com"
	opts := upOptions(t)
	opts.SaveAnswers = filepath.Join(t.TempDir(), "answers.yaml")
	original := "domain: old.example.com\nssl: true\ndbPassword: kept\n"
	require.NoError(t, os.WriteFile(opts.SaveAnswers, []byte(original), 0o600))

	require.NoError(t, Up(context.Background(), opts))

	data, err := os.ReadFile(opts.SaveAnswers)
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
}

func TestHostLabel(t *testing.T) {
	ctx := logging.Discard(context.Background())

	t.Run("instance id on EC2", func(t *testing.T) {
		md := &fakeMetadata{identity: awsplatform.Identity{InstanceID: "i-0abc", Region: "us-east-1"}}
		host, region := hostLabel(ctx, md)
		assert.Equal(t, "i-0abc", host)
		assert.Equal(t, "us-east-1", region)
	})

	t.Run("hostname elsewhere", func(t *testing.T) {
		md := &fakeMetadata{idErr: errors.New("not on EC2")}
		host, region := hostLabel(ctx, md)
		assert.NotEmpty(t, host)
		assert.Empty(t, region)
	})
}

func TestDiagnose_ReportsMissingPieces(t *testing.T) {
	saveAndRestoreFactories(t)
	t.Setenv("PATH", t.TempDir())
	t.Setenv("KUBECONFIG", filepath.Join(t.TempDir(), "config"))
	newReleases = func(context.Context, string, string) (helm.ReleaseManager, error) {
		return nil, errors.New("cluster unreachable")
	}

	newKubeClient = func(string) (provisioning.Cluster, error) { return nil, errors.New("no kubeconfig") }
	dockerVersion = func(context.Context) (string, error) { return "", errors.New("dial unix /var/run/docker.sock: connect: no such file") }

	rep := Diagnose(logging.Discard(context.Background()), filepath.Join(t.TempDir(), "absent"))

	require.Error(t, rep.Missing)
	byName := map[string]DoctorRow{}
	for _, r := range rep.Rows {
		byName[r.Kind+"/"+r.Name] = r
	}
	assert.Equal(t, StatusMissing, byName["capability/"+capability.NameDocker].Status)
	assert.Equal(t, StatusMissing, byName["capability/"+capability.NameKubeconfig].Status)
	assert.Equal(t, StatusUnknown, byName["capability/"+capability.NamePostgreSQL].Status)
	assert.Equal(t, StatusUnknown, byName["capability/"+capability.NameApplication].Status)
	assert.Equal(t, StatusUnknown, byName["cluster/verify/verify-config"].Status)
	assert.Equal(t, StatusMissing, byName["tool/kubectl"].Status)
	assert.Equal(t, "https://get.k3s.io", byName["tool/kubectl"].Detail)
	assert.Equal(t, StatusMissing, byName["daemon/docker"].Status)
	assert.Equal(t, "not reachable", byName["daemon/docker"].Detail)
	require.NotNil(t, rep.Errs)
	assert.Len(t, rep.Errs.Errors, 3)

	var dirRow DoctorRow
	for _, r := range rep.Rows {
		if r.Kind == "directory" {
			dirRow = r
		}
	}
	assert.Equal(t, StatusMissing, dirRow.Status)
}

type configMapCluster struct {
	*testutil.FakeCluster
	exists bool
}

func (c configMapCluster) ConfigMapExists(context.Context, string, string) (bool, error) {
	return c.exists, nil
}

func TestConfigMapRow(t *testing.T) {
	saveAndRestoreFactories(t)
	ctx := logging.Discard(context.Background())

	t.Run("present", func(t *testing.T) {
		newKubeClient = func(string) (provisioning.Cluster, error) {
			return configMapCluster{FakeCluster: testutil.NewFakeCluster(), exists: true}, nil
		}
		row, err := configMapRow(ctx, "kubeconfig")
		require.NoError(t, err)
		assert.Equal(t, StatusPresent, row.Status)
	})

	t.Run("missing", func(t *testing.T) {
		newKubeClient = func(string) (provisioning.Cluster, error) {
			return configMapCluster{FakeCluster: testutil.NewFakeCluster()}, nil
		}
		row, err := configMapRow(ctx, "kubeconfig")
		require.NoError(t, err)
		assert.Equal(t, StatusMissing, row.Status)
	})

	t.Run("cluster without configmap lookups", func(t *testing.T) {
		newKubeClient = func(string) (provisioning.Cluster, error) { return testutil.NewFakeCluster(), nil }
		row, err := configMapRow(ctx, "kubeconfig")
		require.NoError(t, err)
		assert.Equal(t, StatusUnknown, row.Status)
	})
}

func TestDoctor_PrintsTable(t *testing.T) {
	saveAndRestoreFactories(t)
	t.Setenv("PATH", t.TempDir())
	t.Setenv("KUBECONFIG", filepath.Join(t.TempDir(), "config"))
	newReleases = func(context.Context, string, string) (helm.ReleaseManager, error) {
		return nil, errors.New("cluster unreachable")
	}
	newKubeClient = func(string) (provisioning.Cluster, error) { return nil, errors.New("no kubeconfig") }
	dockerVersion = func(context.Context) (string, error) { return "28.1.1", nil }
	var out bytes.Buffer

	err := Doctor(context.Background(), &out, testutil.PlatformTree(t))

	require.Error(t, err, "required tools are missing from PATH")
	assert.Contains(t, out.String(), "Kind")
	assert.Contains(t, out.String(), "docker")
	assert.Contains(t, out.String(), "daemon")
	assert.Contains(t, out.String(), "28.1.1")
	assert.Contains(t, out.String(), "Some probes failed")
}

func TestSummary_WithoutCluster(t *testing.T) {
	saveAndRestoreFactories(t)
	t.Setenv(config.EnvDomain, "")
	t.Setenv(config.EnvSSL, "")
	newMetadata = func() HostMetadata { return &fakeMetadata{ip: "54.1.2.3", idErr: errors.New("no identity")} }
	newKubeClient = func(string) (provisioning.Cluster, error) { return nil, errors.New("no kubeconfig") }
	var out bytes.Buffer

	err := Summary(context.Background(), &out, SummaryOptions{Domain: "verify.example.com", SSL: boolPtr(false)})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "http://54.1.2.3:"+report.Unavailable)
}

func TestSummary_WithCluster(t *testing.T) {
	saveAndRestoreFactories(t)
	cluster := testutil.NewFakeCluster()
	newMetadata = func() HostMetadata { return &fakeMetadata{ipErr: errors.New("off EC2"), idErr: errors.New("off EC2")} }
	newKubeClient = func(string) (provisioning.Cluster, error) { return cluster, nil }
	var out bytes.Buffer

	err := Summary(context.Background(), &out, SummaryOptions{Domain: "verify.example.com", SSL: boolPtr(true)})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "https://verify.example.com/v1/verify")
}
