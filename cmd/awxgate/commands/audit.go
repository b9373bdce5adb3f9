package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/awxgate/cmd/awxgate/handlers"
)

// Audit returns the command group for the audit trail.
func Audit(opts *handlers.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the deployment audit trail",
	}

	cmd.AddCommand(auditList(opts))
	cmd.AddCommand(auditShow(opts))

	return cmd
}

func auditList(opts *handlers.Options) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.AuditList(cmd.Context(), *opts, from, to)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First day (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&to, "to", "", "Last day (YYYY-MM-DD, default today)")

	return cmd
}

func auditShow(opts *handlers.Options) *cobra.Command {
	var timestamp, host, actor string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the detailed record of one deployment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.AuditShow(cmd.Context(), *opts, timestamp, host, actor)
		},
	}

	cmd.Flags().StringVar(&timestamp, "timestamp", "", "Record timestamp (RFC3339)")
	cmd.Flags().StringVar(&host, "host", "", "Target host")
	cmd.Flags().StringVar(&actor, "actor", "", "Operator name")
	_ = cmd.MarkFlagRequired("timestamp")
	_ = cmd.MarkFlagRequired("host")
	_ = cmd.MarkFlagRequired("actor")

	return cmd
}
