package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"rollout.sh/internal/historystore"
)

var (
	historyLimit  int
	historyDBPath string
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past deployment runs",
		Long:  `history lists runs recorded by prior "deploy" invocations in the run history database.`,
		RunE:  runHistory,
	}

	cmd.Flags().StringVar(&historyDBPath, "history-db", "rollout-history.db", "path to the run history sqlite database")
	cmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to list")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := historystore.Open(historyDBPath)
	if err != nil {
		printError("failed to open history store: %v", err)
		return err
	}
	defer store.Close()

	runs, err := store.List(context.Background(), historyLimit)
	if err != nil {
		printError("failed to list runs: %v", err)
		return err
	}

	if len(runs) == 0 {
		printInfo("no recorded runs")
		return nil
	}

	for _, run := range runs {
		status := "success"
		if run.Result.RolledBack {
			status = "rolled back"
		} else if !run.Result.Success {
			status = "failed"
		}
		fmt.Printf("%-4d %-36s %-20s -> %-10s %-12s updated=%d failed=%d\n",
			run.ID, run.RunID, run.StartedAt.Format("2006-01-02T15:04:05Z"), run.DesiredCodeVersion, status,
			len(run.Result.Updated), len(run.Result.Failed))
	}
	return nil
}
