package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/XiangYd616/webtest/packages/history"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded run history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE:  historyListCommand,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the full report of one run as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  historyShowCommand,
}

var (
	historyPathFlag  string
	historyLimitFlag int
)

func init() {
	historyCmd.PersistentFlags().StringVar(&historyPathFlag, "db", getEnvString("WEBTEST_HISTORY", "webtest.db"), "SQLite history file (env: WEBTEST_HISTORY)")
	historyListCmd.Flags().IntVarP(&historyLimitFlag, "limit", "n", 20, "Maximum number of runs to list")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
}

func historyListCommand(cmd *cobra.Command, args []string) error {
	store, err := history.Open(historyPathFlag)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(context.Background(), historyLimitFlag)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recorded runs.")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%-6s %-38s %-20s %-9s %-6s %s\n", "ID", "TEST", "WHEN", "STATUS", "SCORE", "ENDPOINTS")
	for _, e := range entries {
		fmt.Fprintf(cmd.OutOrStdout(), "%-6d %-38s %-20s %-9s %-6d %d/%d passed\n",
			e.ID, e.TestID, e.CreatedAt.Local().Format(time.DateTime), e.Status, e.Score, e.Successful, e.Total)
	}
	return nil
}

func historyShowCommand(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run id %q", args[0])
	}

	store, err := history.Open(historyPathFlag)
	if err != nil {
		return err
	}
	defer store.Close()

	entry, err := store.Get(context.Background(), id)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(entry.Report)
}
