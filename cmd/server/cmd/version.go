package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/eventsignup/server/cmd/server/cmd.Version=..." at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func newVersionCommand() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the release version, git commit and build date of this binary, plus the Go runtime it was built with. Needs no configuration or database.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, Version)
				return
			}
			fmt.Fprintln(out, "Event signup server")
			for _, row := range [][2]string{
				{"Version", Version},
				{"Git commit", GitCommit},
				{"Build date", BuildDate},
				{"Go version", runtime.Version()},
				{"Platform", runtime.GOOS + "/" + runtime.GOARCH},
			} {
				fmt.Fprintf(out, "%-11s %s\n", row[0]+":", row[1])
			}
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print only the version")
	return cmd
}
