package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/imamik/awxgate/cmd/awxgate/handlers"
)

// Serve returns the command running the HTTP API.
func Serve(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the awxgate HTTP API.

The API exposes template listing, deploy launch, job polling, finalization
and the audit trail under /api/v1, plus Prometheus metrics at /metrics.
The caller's identity is read from the X-Remote-User header set by the
authenticating reverse proxy.

Examples:
  # Serve with a config file
  awxgate serve -c /etc/awxgate/awxgate.yaml

  # Serve using only environment configuration
  AWX_BASE_URL=http://awx:31104 AWX_TOKEN=... awxgate serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return handlers.Serve(ctx, *opts)
		},
	}
}
