package cmd

import (
	"fmt"

	"github.com/XiangYd616/webtest/packages/core/spec"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <suite-file>...",
	Short: "Validate suite files without executing them",
	Long: `Validate suite files for structural errors without executing them.

Examples:
  webtest validate suite.yaml
  webtest validate smoke.yaml regression.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	hasErrors := false
	for _, file := range args {
		if _, err := spec.Load(file); err != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
		}
	}

	if hasErrors {
		return fmt.Errorf("validation failed")
	}
	return nil
}
