// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the vsbootstrap CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "vsbootstrap",
		Short:         "Provision a single EC2 host for the verification service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(Up())
	cmd.AddCommand(Doctor())
	cmd.AddCommand(Summary())
	cmd.AddCommand(Version())

	return cmd
}
