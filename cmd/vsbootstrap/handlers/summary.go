package handlers

import (
	"context"
	"io"

	"github.com/chainguard-dev/clog"

	"github.com/vsops/vsbootstrap/internal/config"
	"github.com/vsops/vsbootstrap/internal/logging"
	"github.com/vsops/vsbootstrap/internal/report"
)

// SummaryOptions are the summary command's inputs.
type SummaryOptions struct {
	Domain      string
	SSL         *bool
	AnswersFile string
}

// Summary prints the access summary for the current deployment without
// prompting or changing anything.
func Summary(ctx context.Context, out io.Writer, opts SummaryOptions) error {
	ctx = logging.Discard(ctx)
	answers, err := config.LoadAnswers(opts.AnswersFile)
	if err != nil {
		return err
	}

	md := newMetadata()
	collector := &config.Collector{
		Flags:    config.Inputs{Domain: opts.Domain, SSL: opts.SSL},
		Answers:  answers,
		DetectIP: md.PublicIP,
	}
	rec, err := collector.Collect(ctx)
	if err != nil {
		return err
	}

	r := &report.Reporter{}
	if cluster, err := newKubeClient(userKubeconfig()); err == nil {
		r.Cluster = cluster
	} else {
		clog.FromContext(ctx).Debug("summary without cluster access", "error", err)
	}
	if !rec.SSL() {
		attachAdvisor(ctx, r, md)
	}
	return r.Build(ctx, rec).Print(out)
}
