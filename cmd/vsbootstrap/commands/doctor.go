package commands

import (
	"github.com/spf13/cobra"

	"github.com/vsops/vsbootstrap/cmd/vsbootstrap/handlers"
	"github.com/vsops/vsbootstrap/internal/config"
)

// Doctor returns the command that reports what is already in place.
//
// It runs every presence probe and never installs anything.
func Doctor() *cobra.Command {
	var platformDir string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Report which capabilities are present without changing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Doctor(cmd.Context(), cmd.OutOrStdout(), platformDir)
		},
	}

	cmd.Flags().StringVar(&platformDir, "platform-dir", config.DefaultPlatformDir, "Directory holding db-init/ and deploy/")
	return cmd
}
