package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "webtest",
	Short: "Declarative HTTP endpoint testing",
	Long: `webtest runs declarative HTTP endpoint tests described in YAML or
JSON suite files: typed assertions on status, headers, and JSON bodies,
variable extraction between steps, and sequential or parallel batches.`,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
