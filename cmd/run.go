package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/edge-dvfs/policyd/internal/actuator"
	"github.com/edge-dvfs/policyd/internal/config"
	"github.com/edge-dvfs/policyd/internal/csvexport"
	"github.com/edge-dvfs/policyd/internal/history"
	"github.com/edge-dvfs/policyd/internal/ladder"
	"github.com/edge-dvfs/policyd/internal/metrics"
	"github.com/edge-dvfs/policyd/internal/profile"
	"github.com/edge-dvfs/policyd/internal/refine"
	"github.com/edge-dvfs/policyd/internal/runtime"
	"github.com/edge-dvfs/policyd/internal/sensor"
	"github.com/edge-dvfs/policyd/internal/supervisor"
	"github.com/edge-dvfs/policyd/internal/tui"
)

var (
	runConfigPath     string
	runAppsPath       string
	runOutputPath     string
	runProfileDir     string
	runPolicyPath     string
	runEnvPath        string
	runDuration       time.Duration
	runHeartbeat      time.Duration
	runSamplerPeriod  time.Duration
	runBatchSize      int
	runSeed           int64
	runMetricsAddr    string
	runHistoryDB      string
	runWatch          bool
	runMonitorEnabled bool
	runSysfs          bool
	runTracePath      string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Decide placement, execute one (or more, with --watch) Runs, and Refine frequencies",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config_path", "config.json", "Path to the config file (frequencies + models)")
	runCmd.Flags().StringVar(&runAppsPath, "apps_path", "apps.json", "Path to the Decide-input apps file")
	runCmd.Flags().StringVar(&runOutputPath, "output_path", "out/config_output.csv", "Path to the output CSV")
	runCmd.Flags().StringVar(&runProfileDir, "profile_dir", "profiles", "Directory of per-app profile records")
	runCmd.Flags().StringVar(&runPolicyPath, "policy_path", "", "Optional TOML policy-constants file")
	runCmd.Flags().StringVar(&runEnvPath, "env_path", "", "Optional .env file overriding sysfs base paths")
	runCmd.Flags().DurationVar(&runDuration, "duration", 35*time.Second, "Run duration")
	runCmd.Flags().DurationVar(&runHeartbeat, "heartbeat", 10*time.Second, "Heartbeat interval")
	runCmd.Flags().DurationVar(&runSamplerPeriod, "sampler-interval", 500*time.Millisecond, "Sampler tick interval")
	runCmd.Flags().IntVar(&runBatchSize, "batch-size", 1, "Inference batch size per submit")
	runCmd.Flags().Int64Var(&runSeed, "seed", 1, "Mock-runtime RNG seed")
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "Address to serve /metrics and /healthz on (disabled if empty)")
	runCmd.Flags().StringVar(&runHistoryDB, "history-db", "policyd.db", "Path to the run-history sqlite database")
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "Loop Decide->Execute->Refine until interrupted, reloading config/apps on change")
	runCmd.Flags().BoolVar(&runMonitorEnabled, "monitor", false, "Attach a live TUI dashboard to the run")
	runCmd.Flags().BoolVar(&runSysfs, "sysfs", false, "Use the real sysfs actuator/sensor instead of the deterministic mock")
	runCmd.Flags().StringVar(&runTracePath, "trace-path", "", "Optional CSV file to stream every raw sampler tick to, for offline power-trace analysis (disabled if empty)")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	env := config.LoadEnv(runEnvPath)
	policy, err := config.LoadPolicy(runPolicyPath)
	if err != nil {
		return fmt.Errorf("loading policy: %w", err)
	}

	act, sens := buildDrivers(env, policy)

	histStore, err := history.Open(runHistoryDB)
	if err != nil {
		return fmt.Errorf("opening history db: %w", err)
	}
	defer histStore.Close() //nolint:errcheck // best-effort cleanup at process exit

	var rec *metrics.Recorder
	if runMetricsAddr != "" {
		rec = metrics.NewRecorder()
		srv := metrics.NewServer(runMetricsAddr, rec)
		metricsCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := srv.Start(metricsCtx); err != nil {
				logrus.WithError(err).Error("metrics server stopped unexpectedly")
			}
		}()
	}

	defer func() {
		if err := actuator.Restore(ctx, act, policy.BaseCPUKHz, ladder.MinGPU, policy.MAXNCPUIndices); err != nil {
			logrus.WithError(err).Warn("failed to restore actuator to base state on exit")
		}
	}()

	var watcher *config.Watcher
	if runWatch {
		watcher, err = config.NewWatcher(runConfigPath, runAppsPath)
		if err != nil {
			return fmt.Errorf("starting config watcher: %w", err)
		}
		defer watcher.Close() //nolint:errcheck // best-effort cleanup at process exit
	}

	for {
		if err := runOnce(ctx, policy, act, sens, histStore, rec); err != nil {
			return err
		}
		if !runWatch {
			return nil
		}
		if !watcher.WaitForChange(ctx) {
			return nil
		}
		logrus.Info("config change detected; re-running Decide before next Run")
	}
}

func runOnce(ctx context.Context, policy config.Policy, act actuator.FrequencyActuator, sens sensor.PowerSensor, histStore *history.Store, rec *metrics.Recorder) error {
	plan, err := buildPlan(ctx, runProfileDir, runAppsPath)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(runConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cpuFreq, gpuFreq := plan.CPUFreq, plan.GPUFreq
	if cfg.Frequencies.CPU != nil {
		cpuFreq = *cfg.Frequencies.CPU
	}
	if cfg.Frequencies.GPU != nil {
		gpuFreq = *cfg.Frequencies.GPU
	}

	var maxnIndices []int
	if cfg.Frequencies.MAXN {
		maxnIndices = policy.MAXNCPUIndices
	}
	if err := actuator.Program(ctx, act, cpuFreq, gpuFreq, maxnIndices); err != nil {
		logrus.WithError(err).Warn("actuator program error; continuing with whatever frequency the OS governor picks")
	}

	store := profile.NewStore(runProfileDir)
	imagesPerSecond := map[string]float64{}
	for _, spec := range plan.Specs {
		p, err := store.LoadApp(spec.App)
		if err != nil {
			return fmt.Errorf("reloading profile for %q: %w", spec.App, err)
		}
		device := profile.GPU
		if spec.Device.IsDLA() {
			device = profile.DLA
		}
		imagesPerSecond[spec.App] = p.Throughput[device][gpuFreq]
	}

	var obs supervisor.Observer = supervisor.NoopObserver{}
	var tuiObserver *tui.Observer
	if runMonitorEnabled {
		tuiObserver = tui.NewObserver()
		obs = tuiObserver
	} else if rec != nil {
		obs = rec
	}

	params := supervisor.Params{
		Specs:             plan.Specs,
		ImagesPerSecond:   imagesPerSecond,
		CPUFreq:           cpuFreq,
		GPUFreq:           gpuFreq,
		CPUIndex:          0,
		Duration:          runDuration,
		HeartbeatInterval: runHeartbeat,
		SamplerInterval:   runSamplerPeriod,
		BatchSize:         runBatchSize,
		Sensor:            sens,
		Actuator:          act,
		Seed:              runtime.RunSeed(runSeed),
		Sampler:           supervisor.Sampler{TracePath: runTracePath},
		Observer:          obs,
	}

	var tuiDone chan error
	var tuiCtx context.Context
	var tuiCancel context.CancelFunc
	if runMonitorEnabled {
		tuiCtx, tuiCancel = context.WithCancel(ctx)
		tuiDone = make(chan error, 1)
		go func() { tuiDone <- tui.Run(tuiCtx, tuiObserver.Stream()) }()
	}

	result := supervisor.Execute(ctx, params)

	if runMonitorEnabled {
		tuiCancel()
		if err := <-tuiDone; err != nil {
			logrus.WithError(err).Warn("monitor dashboard exited with an error")
		}
	}

	if err := csvexport.Write(runOutputPath, result); err != nil {
		return fmt.Errorf("exporting csv: %w", err)
	}
	if err := histStore.RecordRun(ctx, result); err != nil {
		logrus.WithError(err).Warn("failed to record run to history")
	}

	nextCPU, nextGPU := refine.Step(observationsFrom(result), cpuFreq, gpuFreq)
	if (nextCPU != cpuFreq || nextGPU != gpuFreq) && rec != nil {
		rec.RefineApplied()
	}
	if err := histStore.RecordRefine(ctx, result.RunID, cpuFreq, gpuFreq, nextCPU, nextGPU); err != nil {
		logrus.WithError(err).Warn("failed to record refine transition to history")
	}
	logrus.WithFields(logrus.Fields{
		"prev_cpu": cpuFreq, "prev_gpu": gpuFreq, "next_cpu": nextCPU, "next_gpu": nextGPU,
	}).Info("refine computed next frequencies")

	return nil
}

func buildDrivers(env config.Env, policy config.Policy) (actuator.FrequencyActuator, sensor.PowerSensor) {
	if !runSysfs {
		return actuator.NewMock(), sensor.NewMock(runSeed)
	}

	actuatorBase := env.ActuatorBasePath
	if actuatorBase == "" {
		actuatorBase = "/sys"
	}
	sensorBase := env.SensorBasePath
	if sensorBase == "" {
		sensorBase = "/sys"
	}

	sysfsAct := actuator.NewSysfs(actuatorBase, policy.GPUDevfreqNode)
	return actuator.NewDevFallback(sysfsAct), sensor.NewSysfs(sensorBase)
}

// observationsFrom filters out apps whose worker crashed or never produced
// a heartbeat before handing observations to Refine.Step (Refine has no
// concept of a null entry).
func observationsFrom(result supervisor.RunResult) []refine.Observation {
	var out []refine.Observation
	for _, ar := range result.Apps {
		if ar.LastActualTp == nil {
			continue
		}
		out = append(out, refine.Observation{App: ar.App, TargetTp: ar.TargetTp, ActualTp: *ar.LastActualTp})
	}
	return out
}
