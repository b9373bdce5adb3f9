package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/awxgate/cmd/awxgate/handlers"
)

// Launch returns the command deploying a template to hosts.
//
// Required flags:
//
//	--host: Target host, or several separated by ";"
//
// Optional flags:
//
//	--template, -t: Job template name (prompted for in a terminal when omitted)
//	--watch, -w: Follow each job until it ends, then finalize it
//	--actor: Operator name recorded in the audit trail
//	--session: Session id holding the attempt (default "cli:<actor>")
func Launch(opts *handlers.Options) *cobra.Command {
	var lo handlers.LaunchOptions

	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Launch a job template against one or more hosts",
		Long: `Launch an AWX job template against hosts.

Each host gets its own temporary inventory which is removed again when
the launch fails or the job is finalized.

Examples:
  # Launch and follow a single host
  awxgate launch --host PDV01 --template Install-Agent --watch

  # Launch against several hosts, one after another
  awxgate launch --host "PDV01;PDV02" --template Install-Agent`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Launch(cmd.Context(), *opts, lo)
		},
	}

	cmd.Flags().StringVar(&lo.Hosts, "host", "", "Target host(s), separated by ';'")
	cmd.Flags().StringVarP(&lo.Template, "template", "t", "", "Job template name")
	cmd.Flags().BoolVarP(&lo.Watch, "watch", "w", false, "Follow the job and finalize it when it ends")
	cmd.Flags().StringVar(&lo.Actor, "actor", "", "Operator name for the audit trail (default: current user)")
	cmd.Flags().StringVar(&lo.SessionID, "session", "", "Session id holding the attempt")
	_ = cmd.MarkFlagRequired("host")

	return cmd
}
