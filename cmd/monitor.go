package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

// monitorCmd is `run --monitor --watch` under a friendlier name: attach the
// live TUI dashboard and keep looping Decide->Execute->Refine until
// interrupted. It runs run's orchestration with watch and monitor always on,
// and registers the same flags with the same defaults except --watch,
// --monitor and --metrics-addr, which it does not offer.
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch the live Decide/Execute/Refine loop in a terminal dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		runMonitorEnabled = true
		runWatch = true
		return runRun(cmd, args)
	},
}

func init() {
	monitorCmd.Flags().StringVar(&runConfigPath, "config_path", "config.json", "Path to the config file (frequencies + models)")
	monitorCmd.Flags().StringVar(&runAppsPath, "apps_path", "apps.json", "Path to the Decide-input apps file")
	monitorCmd.Flags().StringVar(&runOutputPath, "output_path", "out/config_output.csv", "Path to the output CSV")
	monitorCmd.Flags().StringVar(&runProfileDir, "profile_dir", "profiles", "Directory of per-app profile records")
	monitorCmd.Flags().StringVar(&runPolicyPath, "policy_path", "", "Optional TOML policy-constants file")
	monitorCmd.Flags().StringVar(&runEnvPath, "env_path", "", "Optional .env file overriding sysfs base paths")
	monitorCmd.Flags().DurationVar(&runDuration, "duration", 35*time.Second, "Run duration")
	monitorCmd.Flags().DurationVar(&runHeartbeat, "heartbeat", 10*time.Second, "Heartbeat interval")
	monitorCmd.Flags().DurationVar(&runSamplerPeriod, "sampler-interval", 500*time.Millisecond, "Sampler tick interval")
	monitorCmd.Flags().IntVar(&runBatchSize, "batch-size", 1, "Inference batch size per submit")
	monitorCmd.Flags().Int64Var(&runSeed, "seed", 1, "Mock-runtime RNG seed")
	monitorCmd.Flags().StringVar(&runHistoryDB, "history-db", "policyd.db", "Path to the run-history sqlite database")
	monitorCmd.Flags().BoolVar(&runSysfs, "sysfs", false, "Use the real sysfs actuator/sensor instead of the deterministic mock")
	monitorCmd.Flags().StringVar(&runTracePath, "trace-path", "", "Optional CSV file to stream every raw sampler tick to, for offline power-trace analysis (disabled if empty)")
}
