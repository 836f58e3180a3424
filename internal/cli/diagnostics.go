package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vrsandeep/plugin-host/internal/core"
)

func newDiagnosticsCommand(opts *rootOptions) *cobra.Command {
	var limit int
	var toolkitID string

	cmd := &cobra.Command{
		Use:   "diagnostics",
		Short: "Show recorded plugin rejections, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := core.New(opts.configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			diagnostics, err := app.Store().ListDiagnostics(toolkitID, limit)
			if err != nil {
				return fmt.Errorf("failed to load diagnostics: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(diagnostics) == 0 {
				fmt.Fprintln(out, "No diagnostics recorded.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tDIRECTORY\tTOOLKIT ID\tSTATE\tKIND\tMESSAGE")
			for _, d := range diagnostics {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					d.CreatedAt.Local().Format("2006-01-02 15:04:05"), d.PluginDir, dash(d.ToolkitID), d.State, dash(d.Kind), d.Message)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of diagnostics to show")
	cmd.Flags().StringVar(&toolkitID, "toolkit", "", "only show diagnostics for this toolkit identifier")
	return cmd
}
