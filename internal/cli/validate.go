package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vrsandeep/plugin-host/internal/descriptor"
)

type validateResult struct {
	Dir        string                 `json:"path"`
	ToolkitID  string                 `json:"toolkitIdentifier,omitempty"`
	Valid      bool                   `json:"valid"`
	Kind       string                 `json:"kind,omitempty"`
	Field      string                 `json:"field,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Descriptor *descriptor.Descriptor `json:"descriptor,omitempty"`
	Resolved   *descriptor.Resolved   `json:"resolved,omitempty"`
}

func newValidateCommand() *cobra.Command {
	var hostVersion, hostMinimum string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate <plugin-dir>...",
		Short: "Validate plugin directories as the host would load them",
		Long: `Validate runs each plugin directory through the same steps the host uses:
parse the descriptor, check SDK compatibility, then resolve every module
reference. The command fails if any directory is rejected.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host, err := descriptor.ParseSDKVersion(hostVersion)
			if err != nil {
				return fmt.Errorf("invalid --host-version: %w", err)
			}
			var minimum descriptor.SDKVersion
			if hostMinimum != "" {
				if minimum, err = descriptor.ParseSDKVersion(hostMinimum); err != nil {
					return fmt.Errorf("invalid --host-min-version: %w", err)
				}
			}

			results := make([]validateResult, 0, len(args))
			failed := 0
			for _, dir := range args {
				res := validateDir(dir, host, minimum)
				if !res.Valid {
					failed++
				}
				results = append(results, res)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				printResults(out, results, host)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d plugin(s) rejected", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&hostVersion, "host-version", "5.0", "host SDK version to check compatibility against")
	cmd.Flags().StringVar(&hostMinimum, "host-min-version", "", "oldest SDK version the host still accepts")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

// validateDir follows the host order: load, compatibility, references.
func validateDir(dir string, host, minimum descriptor.SDKVersion) validateResult {
	res := validateResult{Dir: dir}

	d, err := descriptor.Load(dir)
	if err != nil {
		return res.fail(err)
	}
	res.ToolkitID = d.ToolkitIdentifier
	res.Descriptor = d

	if err := d.ValidateCompatibility(host); err != nil {
		return res.fail(err)
	}
	if err := d.ValidateTarget(minimum); err != nil {
		return res.fail(err)
	}
	resolved, err := d.ResolveReferences(dir)
	if err != nil {
		return res.fail(err)
	}
	res.Resolved = resolved
	res.Valid = true
	return res
}

func (r validateResult) fail(err error) validateResult {
	r.Error = err.Error()
	var de *descriptor.Error
	if errors.As(err, &de) {
		r.Kind = string(de.Kind)
		r.Field = de.Field
	}
	return r
}

func printResults(w io.Writer, results []validateResult, host descriptor.SDKVersion) {
	for _, r := range results {
		if r.Valid {
			fmt.Fprintf(w, "OK      %s (%s) compatible with SDK %s\n", r.Dir, r.ToolkitID, host)
			for _, p := range r.Resolved.ExportServices {
				fmt.Fprintf(w, "        export  %s -> %s\n", p.Title.Display(), p.Path)
			}
			if r.Resolved.MetadataProvider != "" {
				fmt.Fprintf(w, "        metadata -> %s\n", r.Resolved.MetadataProvider)
			}
			continue
		}
		fmt.Fprintf(w, "REJECT  %s: %s\n", r.Dir, r.Error)
	}
}
