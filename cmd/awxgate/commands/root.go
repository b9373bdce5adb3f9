// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/awxgate/cmd/awxgate/handlers"
)

// Root returns the root command for the awxgate CLI.
//
// Global flags are bound here and shared with every subcommand.
func Root() *cobra.Command {
	opts := &handlers.Options{}

	cmd := &cobra.Command{
		Use:           "awxgate",
		Short:         "Launch AWX job templates against single hosts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file (env overrides apply)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&opts.JSON, "json", false, "Output in JSON format")

	cmd.AddCommand(Serve(opts))
	cmd.AddCommand(Templates(opts))
	cmd.AddCommand(Launch(opts))
	cmd.AddCommand(Status(opts))
	cmd.AddCommand(Finalize(opts))
	cmd.AddCommand(Audit(opts))
	cmd.AddCommand(Version())

	return cmd
}
