package commands

import (
	"github.com/spf13/cobra"

	"github.com/vsops/vsbootstrap/cmd/vsbootstrap/handlers"
)

// Summary returns the command that re-renders the access summary.
func Summary() *cobra.Command {
	opts := handlers.SummaryOptions{}
	var ssl bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print access URLs and pod status for the current deployment",
		Long: `Print the access summary again.

The domain and SSL choice come from flags, the answers file, the
environment or the detected public IP. NodePorts and pod phases are
queried live from the cluster.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("ssl") {
				opts.SSL = &ssl
			}
			return handlers.Summary(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Domain, "domain", "", "Domain name or IP address the service is reached on")
	cmd.Flags().BoolVar(&ssl, "ssl", false, "The service is served over HTTPS on the domain")
	cmd.Flags().StringVar(&opts.AnswersFile, "answers", "", "Path to a YAML answers file")
	return cmd
}
