// Package main implements the mosa CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var buildVersion = "dev"

var rootCmd = &cobra.Command{
	Use:   "mosa",
	Short: "MOSA ahead-of-time compiler back-end driver",
	Long:  "mosa lowers an already-parsed CIL-style method graph into native machine code for bare-metal x86/x64/ARM targets.",
}

func main() {
	rootCmd.Version = buildVersion

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(disasmCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("ui", true, "show a live progress view while compiling")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
