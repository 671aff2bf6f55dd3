// Package main is the entry point for the vsbootstrap CLI.
//
// vsbootstrap provisions a single EC2 host for the verification service:
// it installs Docker, k3s, Helm, Java and Maven, deploys PostgreSQL and the
// application, waits for readiness and prints access information. Every
// step checks whether its work is already done, so re-running is safe.
//
// Commands: up, doctor, summary, version.
//
// For detailed usage information, run:
//
//	vsbootstrap --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vsops/vsbootstrap/cmd/vsbootstrap/commands"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
