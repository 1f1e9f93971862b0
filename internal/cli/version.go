package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set at build time via -ldflags.
var (
	Version   = "0.1.0-dev"
	GitCommit = ""
	BuildDate = ""
)

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.asJSON {
				return writeJSON(a.out, map[string]string{
					"version": Version,
					"commit":  GitCommit,
					"built":   BuildDate,
					"go":      runtime.Version(),
				})
			}
			fmt.Fprintf(a.out, "gs %s", colorOK.Sprint(Version))
			if GitCommit != "" {
				fmt.Fprintf(a.out, " (%s)", GitCommit)
			}
			if BuildDate != "" {
				fmt.Fprintf(a.out, " built %s", BuildDate)
			}
			fmt.Fprintf(a.out, " %s\n", colorDim.Sprint(runtime.Version()))
			return nil
		},
	}
}
