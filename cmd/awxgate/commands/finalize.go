package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/awxgate/cmd/awxgate/handlers"
)

// Finalize returns the command closing a finished job.
func Finalize(opts *handlers.Options) *cobra.Command {
	var fo handlers.FinalizeOptions

	cmd := &cobra.Command{
		Use:   "finalize JOB_ID",
		Short: "Record a finished job and remove its temporary inventory",
		Long: `Finalize a finished AWX job.

The job's final status and output are written to the audit trail and
the temporary inventory created for it is deleted. Finalizing the same
job twice has no further effect.

Examples:
  awxgate finalize 901
  awxgate finalize 902 --host PDV02 --session "cli:alice"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			fo.JobID = jobID
			return handlers.Finalize(cmd.Context(), *opts, fo)
		},
	}

	cmd.Flags().StringVar(&fo.SessionID, "session", "", "Session id holding the attempt (default \"cli:<actor>\")")
	cmd.Flags().StringVar(&fo.Host, "host", "", "Host of a multi-host launch")
	cmd.Flags().StringVar(&fo.Actor, "actor", "", "Operator name for the audit trail (default: current user)")
	cmd.Flags().StringVar(&fo.Status, "status", "", "Final status to record instead of the one reported by AWX")

	return cmd
}
