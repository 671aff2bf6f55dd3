// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command definitions
// in the commands package. Handlers are framework-agnostic and can be tested
// independently of the CLI framework.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chainguard-dev/clog"

	"github.com/vsops/vsbootstrap/internal/config"
	"github.com/vsops/vsbootstrap/internal/config/wizard"
	"github.com/vsops/vsbootstrap/internal/logging"
	"github.com/vsops/vsbootstrap/internal/metrics"
	awsplatform "github.com/vsops/vsbootstrap/internal/platform/aws"
	"github.com/vsops/vsbootstrap/internal/provisioning"
	"github.com/vsops/vsbootstrap/internal/report"
)

// UpOptions are the up command's inputs.
type UpOptions struct {
	Domain      string
	SSL         *bool
	DBPassword  string
	AnswersFile string
	PlatformDir string
	Yes         bool
	Redeploy    bool
	AppRelease  string
	Verbose     bool
	MetricsFile string
	LogBucket   string
	SaveAnswers string
}

// Up provisions the host.
//
// The run is:
//  1. Refuse to run as root and verify the platform directory, before
//     anything is written
//  2. Resolve and confirm the configuration record
//  3. Run the pipeline: artifacts, host capabilities, database,
//     ConfigMap, application, readiness
//  4. Print the access summary
//
// A declined confirmation returns nil. A fatal step returns its error after
// the run is marked aborted.
func Up(ctx context.Context, opts UpOptions) error {
	if err := provisioning.CheckPrivileges(geteuid()); err != nil {
		return err
	}
	layout := config.Layout{Root: opts.PlatformDir}
	if err := layout.Verify(); err != nil {
		return err
	}
	answers, err := config.LoadAnswers(opts.AnswersFile)
	if err != nil {
		return err
	}

	ctx, run, err := setupLogging(ctx, logging.Options{Verbose: opts.Verbose})
	if err != nil {
		return err
	}
	defer run.Close()
	log := clog.FromContext(ctx)
	log.Info("run started", "log", run.Path)

	md := newMetadata()
	collector := &config.Collector{
		Flags:     config.Inputs{Domain: opts.Domain, SSL: opts.SSL, DBPassword: opts.DBPassword},
		Answers:   answers,
		DetectIP:  md.PublicIP,
		AssumeYes: opts.Yes,
		Out:       stdout,
	}
	if stdinIsTerminal() {
		collector.Prompter = newPrompter()
	}

	rec, err := collector.Collect(ctx)
	if err == nil {
		err = collector.Confirm(ctx, rec)
	}
	if errors.Is(err, config.ErrCancelled) {
		log.Info("cancelled by operator, nothing was changed")
		fmt.Fprintln(stdout, "cancelled")
		return nil
	}
	if err != nil {
		log.Error("configuration failed", "error", err)
		return err
	}

	if opts.SaveAnswers != "" && wizard.FileExists(opts.SaveAnswers) {
		log.Warn("answers file exists, not overwriting it", "path", opts.SaveAnswers)
	} else if opts.SaveAnswers != "" {
		if err := wizard.WriteAnswers(rec, opts.SaveAnswers, false); err != nil {
			log.Warn("could not save answers", "path", opts.SaveAnswers, "error", err)
		} else {
			log.Info("answers saved", "path", opts.SaveAnswers)
		}
	}

	recorder := metrics.NewRecorder()
	pctx := provisioning.NewContext(ctx, rec, layout, newRunner())
	pctx.Observer = provisioning.MultiObserver{provisioning.NewLogObserver(ctx), recorder}
	pctx.Options.Redeploy = opts.Redeploy
	pctx.Options.AppRelease = opts.AppRelease
	pctx.KubeFactory = newKubeClient
	pctx.ReleasesFactory = newReleases
	pctx.Transition(provisioning.StageConfirmed)

	runErr := provisioning.RunPhases(pctx, newPhases())
	if runErr == nil {
		pctx.Transition(provisioning.StageReporting)
		summary := buildReporter(ctx, pctx, md, run.Path).Build(ctx, rec)
		if err := summary.Print(stdout); err != nil {
			log.Warn("could not print summary", "error", err)
		}
		pctx.Transition(provisioning.StageDone)
		log.Info("run finished", "warnings", len(pctx.State.Warnings()))
	}

	if runErr != nil {
		step := provisioning.FailedStep(runErr)
		if step == "" {
			step = "unknown"
		}
		log.Error("provisioning aborted", "step", step, "error", runErr)
	}
	finish(ctx, opts, recorder, md, run.Path)
	return runErr
}

// buildReporter wires the summary to the run's cluster and, for plain
// HTTP, the security group advisory.
func buildReporter(ctx context.Context, pctx *provisioning.Context, md HostMetadata, logPath string) *report.Reporter {
	r := &report.Reporter{LogPath: logPath, Steps: pctx.State.Steps}
	if cluster, err := pctx.Cluster(); err == nil {
		r.Cluster = cluster
	} else {
		clog.FromContext(ctx).Debug("summary without cluster access", "error", err)
	}
	if !pctx.Record.SSL() {
		attachAdvisor(ctx, r, md)
	}
	return r
}

func attachAdvisor(ctx context.Context, r *report.Reporter, md HostMetadata) {
	id, err := md.Identity(ctx)
	if err != nil {
		clog.FromContext(ctx).Debug("security group advisory skipped", "error", err)
		return
	}
	advisor, err := newAdvisor(ctx, id.Region)
	if err != nil {
		clog.FromContext(ctx).Debug("security group advisory skipped", "error", err)
		return
	}
	r.Advisor = advisor
	r.InstanceID = func(context.Context) (string, error) { return id.InstanceID, nil }
}

// finish writes the metrics file and archives the log. Failures are warnings.
func finish(ctx context.Context, opts UpOptions, recorder *metrics.Recorder, md HostMetadata, logPath string) {
	log := clog.FromContext(ctx)
	if opts.MetricsFile != "" {
		if err := recorder.WriteTextfile(opts.MetricsFile); err != nil {
			log.Warn("could not write metrics", "path", opts.MetricsFile, "error", err)
		}
	}
	if opts.LogBucket == "" {
		return
	}
	// cancellation must not stop the archive of the run that was cancelled
	ctx = context.WithoutCancel(ctx)
	if err := archiveLog(ctx, opts.LogBucket, md, logPath); err != nil {
		log.Warn("could not archive run log", "bucket", opts.LogBucket, "error", err)
		return
	}
	log.Info("run log archived", "bucket", opts.LogBucket)
}

func archiveLog(ctx context.Context, bucketURL string, md HostMetadata, logPath string) error {
	bucket, prefix, err := awsplatform.ParseBucket(bucketURL)
	if err != nil {
		return err
	}
	host, region := hostLabel(ctx, md)
	key := awsplatform.ObjectKey(prefix, host, filepath.Base(logPath))
	return uploadLog(ctx, region, bucket, key, logPath)
}

// hostLabel names the host in archive keys: the instance id on EC2, the
// hostname elsewhere.
func hostLabel(ctx context.Context, md HostMetadata) (string, string) {
	if id, err := md.Identity(ctx); err == nil && id.InstanceID != "" {
		return id.InstanceID, id.Region
	}
	name, err := os.Hostname()
	if err != nil || name == "" {
		name = "unknown-host"
	}
	return name, ""
}
