package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ownck/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "ownck",
	Short: "Ownership and borrow verifier",
	Long:  `ownck verifies ownership, move and borrow rules in serialized program files`,
}

func main() {
	// Version for the automatic --version flag
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)

	// Global flags
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics per function")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether the file is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
