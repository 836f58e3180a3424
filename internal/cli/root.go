// Package cli implements the plugin-cli commands.
package cli

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func NewRootCommand(version string) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "plugin-cli",
		Short: "Inspect and validate export plugins",
		Long: `plugin-cli checks plugin descriptors against a host SDK version,
prints the descriptor JSON schema, and runs or inspects plugin scans
of the host's plugins directory.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config.yml (default ./config.yml)")

	rootCmd.AddCommand(
		newValidateCommand(),
		newSchemaCommand(),
		newScanCommand(opts),
		newDiagnosticsCommand(opts),
	)
	return rootCmd
}
