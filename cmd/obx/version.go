package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"obx/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the obx version",
	Run: func(cmd *cobra.Command, args []string) {
		v := version.Version
		if colorEnabled(cmd) {
			v = version.Pretty()
		}
		fmt.Println("obx " + v)
		if version.GitCommit != "" {
			fmt.Println("commit " + version.GitCommit)
		}
		if version.BuildDate != "" {
			fmt.Println("built " + version.BuildDate)
		}
	},
}
