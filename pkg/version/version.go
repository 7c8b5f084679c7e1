package version

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

const Name = "teams-to-sfmc-webhook"

// Overwritten during build via ldflags
var Version = "devel"

func Print() string {
	return fmt.Sprintf("%s:\n    Version: %s\n    Go:      %s\n", Name, Version, runtime.Version())
}

// Create a command that prints version information and exits
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information and exit",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Print(Print())
		},
	}
}
