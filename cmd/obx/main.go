package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"obx/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "obx",
	Short: "obx compiler front-end",
	Long:  "obx parses, resolves, and type-checks modular Oberon-family sources",
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is an interactive terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// colorEnabled resolves the --color flag against the terminal.
func colorEnabled(cmd *cobra.Command) bool {
	mode, _ := cmd.Flags().GetString("color")
	switch mode {
	case "on":
		return true
	case "off":
		return false
	}
	return isTerminal(os.Stdout)
}
