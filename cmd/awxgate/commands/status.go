package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/imamik/awxgate/cmd/awxgate/handlers"
)

// Status returns the command showing a job's status.
func Status(opts *handlers.Options) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "status JOB_ID",
		Short: "Show the status and output of an AWX job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return handlers.Status(cmd.Context(), *opts, jobID, watch)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Follow the job until it ends")

	return cmd
}

func parseJobID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid job id %q", s)
	}
	return id, nil
}
