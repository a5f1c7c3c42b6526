package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edge-dvfs/policyd/internal/history"
)

var (
	historyDB  string
	historyApp string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the recorded Run/Refine history for one app",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyDB, "history-db", "policyd.db", "Path to the run-history sqlite database")
	historyCmd.Flags().StringVar(&historyApp, "app", "", "App name to look up (required)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyApp == "" {
		return fmt.Errorf("--app is required")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := history.Open(historyDB)
	if err != nil {
		return fmt.Errorf("opening history db: %w", err)
	}
	defer store.Close() //nolint:errcheck // best-effort cleanup at process exit

	rows, err := store.AppHistory(ctx, historyApp)
	if err != nil {
		return fmt.Errorf("querying history for %q: %w", historyApp, err)
	}

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintf(out, "no recorded runs for %q\n", historyApp)
		return nil
	}

	for _, r := range rows {
		observed := "crashed"
		if r.LastObservedTp != nil {
			observed = fmt.Sprintf("%.2f", *r.LastObservedTp)
		}
		actual := "crashed"
		if r.LastActualTp != nil {
			actual = fmt.Sprintf("%.2f", *r.LastActualTp)
		}
		fmt.Fprintf(out, "%s  run=%s device=%s target=%.2f observed=%s actual=%s cpu=%d gpu=%d\n",
			r.RecordedAt, r.RunID, r.Device, r.TargetTp, observed, actual, r.RunCPUFreq, r.RunGPUFreq)
	}
	return nil
}
