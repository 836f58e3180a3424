package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vrsandeep/plugin-host/internal/core"
	"github.com/vrsandeep/plugin-host/internal/registry"
)

func newScanCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Scan the configured plugins directory once",
		Long: `Scan loads the host configuration, runs every plugin directory through
the host lifecycle and records the outcome in the host database, exactly
as a scheduled scan of the running host would.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := core.New(opts.configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			report, err := app.Registry().Scan(cmd.Context())
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}
			printScanReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func printScanReport(w io.Writer, report *registry.ScanReport) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DIRECTORY\tTOOLKIT ID\tSTATE\tKIND\tVERSION")
	for _, o := range report.Outcomes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", filepath.Base(o.Dir), dash(o.ToolkitID), o.State, dash(o.Kind), dash(o.Version))
	}
	tw.Flush()
	fmt.Fprintf(w, "\nScan %s: %d active, %d rejected, %d unloaded, %d skipped in %s\n",
		report.ScanID, report.Active, report.Rejected, report.Unloaded, report.Skipped, report.Duration)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
