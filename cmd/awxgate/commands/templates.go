package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/awxgate/cmd/awxgate/handlers"
)

// Templates returns the command listing job templates.
func Templates(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List AWX job templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Templates(cmd.Context(), *opts)
		},
	}
}
