//go:build !(js || wasm)

package main

import (
	"os"

	"github.com/cottand/ovld/cmd"
	"github.com/spf13/cobra"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "ovld [subcommand]",
	Short:        "ovld resolves overloaded declarations and generates their dispatch routines",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.PlanCmd)
	rootCmd.AddCommand(cmd.GenCmd)
}
