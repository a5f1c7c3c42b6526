package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	decideProfileDir string
	decideAppsPath   string
)

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Run Decide alone and print the resulting placement plan without executing a Run",
	RunE:  runDecide,
}

func init() {
	decideCmd.Flags().StringVar(&decideProfileDir, "profile_dir", "profiles", "Directory of per-app profile records")
	decideCmd.Flags().StringVar(&decideAppsPath, "apps_path", "apps.json", "Path to the Decide-input apps file")
}

func runDecide(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	plan, err := buildPlan(ctx, decideProfileDir, decideAppsPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "cpu=%d gpu=%d\n", plan.CPUFreq, plan.GPUFreq)
	for _, spec := range plan.Specs {
		fmt.Fprintln(cmd.OutOrStdout(), spec.String())
	}
	return nil
}
