package commands

import (
	"github.com/spf13/cobra"

	"github.com/vsops/vsbootstrap/cmd/vsbootstrap/handlers"
	"github.com/vsops/vsbootstrap/internal/capability"
	"github.com/vsops/vsbootstrap/internal/config"
)

// Up returns the command that provisions the host.
//
// Optional flags:
//
//	--domain: Domain name or IP the service is reached on
//	--ssl: Serve over HTTPS on the domain
//	--db-password: PostgreSQL password
//	--answers: YAML answers file
//	--platform-dir: Deployment assets directory (default ../verify-platform)
//	--yes, -y: Skip the confirmation prompt
//	--redeploy: Run the application deploy even if it is already installed
//	--app-release: Helm release install-all.sh deploys (default verify)
//	--verbose, -v: Show DEBUG lines on the terminal
//	--metrics-file: Write run metrics in Prometheus text format
//	--log-bucket: Upload the run log to s3://bucket[/prefix]
//	--save-answers: Write the resolved answers (without password) to a file
func Up() *cobra.Command {
	opts := handlers.UpOptions{}
	var ssl bool

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Install and deploy everything, then print access information",
		Long: `Provision this host for the verification service.

Each capability is checked first and only installed when missing:
Docker, k3s, the Helm CLI, Java, Maven, the PostgreSQL release and the
application. After deploying, the command waits for the pods and prints
the URLs the service is reachable on.

Values are taken from flags, then the answers file, then prompts, then
VSB_DOMAIN / VSB_SSL / VSB_DB_PASSWORD, then the detected public IP.

Examples:
  # Interactive
  vsbootstrap up

  # Unattended with HTTPS
  vsbootstrap up --domain verify.example.com --ssl --yes

  # Unattended on the public IP with an answers file
  vsbootstrap up --answers answers.yaml --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("ssl") {
				opts.SSL = &ssl
			}
			return handlers.Up(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Domain, "domain", "", "Domain name or IP address the service is reached on")
	f.BoolVar(&ssl, "ssl", false, "Serve over HTTPS on the domain")
	f.StringVar(&opts.DBPassword, "db-password", "", "PostgreSQL password (default: postgres)")
	f.StringVar(&opts.AnswersFile, "answers", "", "Path to a YAML answers file")
	f.StringVar(&opts.PlatformDir, "platform-dir", config.DefaultPlatformDir, "Directory holding db-init/ and deploy/")
	f.BoolVarP(&opts.Yes, "yes", "y", false, "Skip the confirmation prompt")
	f.BoolVar(&opts.Redeploy, "redeploy", false, "Run the application deploy even if it is already installed")
	f.StringVar(&opts.AppRelease, "app-release", capability.AppRelease, "Helm release that install-all.sh deploys")
	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "Show DEBUG lines on the terminal")
	f.StringVar(&opts.MetricsFile, "metrics-file", "", "Write run metrics to this Prometheus textfile")
	f.StringVar(&opts.LogBucket, "log-bucket", "", "Upload the run log to s3://bucket[/prefix]")
	f.StringVar(&opts.SaveAnswers, "save-answers", "", "Write the resolved answers (without password) to this file")

	return cmd
}
