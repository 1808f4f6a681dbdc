package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"rollout.sh/internal/config"
	"rollout.sh/internal/docstore"
	"rollout.sh/internal/executor"
	"rollout.sh/internal/historystore"
	"rollout.sh/internal/metrics"
	"rollout.sh/internal/orchestrator"
	"rollout.sh/internal/rolloutlog"
	"rollout.sh/internal/rolloutmodel"
	"rollout.sh/internal/snapshotstore"
)

var (
	fleetPath         string
	desiredPath       string
	configPath        string
	orchestratorPath  string
	snapshotPath      string
	historyPath       string
	metricsFile       string
	updateURL         string
	batchSizeFlag     int
	maxFailuresFlag   int
	dryRunFlag        bool
)

func newDeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Roll a fleet forward to a desired code/configuration version",
		Long: `deploy diffs a fleet document against a desired version, plans
batches, drives each out-of-date instance through retry and timeout, and
rolls the whole fleet back to a pre-deployment snapshot if the failure
threshold is breached.`,
		RunE: runDeploy,
	}

	cmd.Flags().StringVar(&fleetPath, "instances", "fleet.yaml", "path to the fleet document")
	cmd.Flags().StringVar(&desiredPath, "desired", "desired.yaml", "path to the desired-version document")
	cmd.Flags().StringVar(&configPath, "deployment-config", "", "path to a deployment config YAML file (defaults are used if omitted)")
	cmd.Flags().StringVar(&orchestratorPath, "orchestrator-config", "", "path to a process-wide orchestrator config YAML file (defaults are used if omitted)")
	cmd.Flags().StringVar(&snapshotPath, "snapshot", ".rollout-snapshot", "path to write the pre-deployment snapshot")
	cmd.Flags().StringVar(&historyPath, "history-db", "", "path to the run history sqlite database (history is skipped if empty)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "path to dump a Prometheus textfile-collector file after the run")
	cmd.Flags().StringVar(&updateURL, "update-url", "", "base URL of the HTTP update executor (a no-op test executor is used if empty)")
	cmd.Flags().IntVar(&batchSizeFlag, "batch-size", 0, "override the deployment config's batch size (0 = use config)")
	cmd.Flags().IntVar(&maxFailuresFlag, "max-failures", -1, "override the deployment config's max failures (-1 = use config)")
	cmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "plan the deployment without applying any update")

	return cmd
}

func runDeploy(cmd *cobra.Command, args []string) error {
	rolloutlog.Init(rolloutlog.Config{Level: logLevel, Format: "console", Output: "stderr"})

	printHeader("rolloutctl deploy")

	fleetDoc, err := docstore.LoadFleet(fleetPath)
	if err != nil {
		printError("failed to load fleet document: %v", err)
		return err
	}
	desired, err := docstore.LoadDesired(desiredPath)
	if err != nil {
		printError("failed to load desired document: %v", err)
		return err
	}

	cfg := rolloutmodel.DefaultDeploymentConfig()
	if configPath != "" {
		cfg, err = config.LoadDeploymentConfig(configPath)
		if err != nil {
			printError("failed to load deployment config: %v", err)
			return err
		}
	}
	if batchSizeFlag > 0 {
		cfg.BatchSize = batchSizeFlag
	}
	if maxFailuresFlag >= 0 {
		cfg.MaxFailures = &maxFailuresFlag
	}

	orchCfg := config.DefaultOrchestratorConfig()
	if orchestratorPath != "" {
		orchCfg, err = config.LoadOrchestratorConfig(orchestratorPath)
		if err != nil {
			printError("failed to load orchestrator config: %v", err)
			return err
		}
	}

	instances := make([]*rolloutmodel.InstanceState, len(fleetDoc.Instances))
	for i := range fleetDoc.Instances {
		instances[i] = &fleetDoc.Instances[i]
	}
	current := &rolloutmodel.SystemState{
		CodeVersion:          fleetDoc.CodeVersion,
		ConfigurationVersion: fleetDoc.ConfigurationVersion,
	}

	var exec executor.Executor
	if updateURL != "" {
		exec = executor.NewHTTPExecutor(updateURL, "")
	} else {
		exec = executor.NewFaultInjector(nil, 0)
	}

	rec := metrics.New()
	orch := &orchestrator.Orchestrator{Executor: exec, Metrics: rec}

	bar := progressbar.NewOptions(len(fleetDoc.Instances),
		progressbar.OptionSetDescription("deploying"),
		progressbar.OptionShowCount(),
	)

	if dryRunFlag {
		printWarning("DRY RUN - no instance will be updated")
	} else {
		// Capture the pre-deployment snapshot before a single instance is
		// touched, so `rolloutctl rollback` can restore exactly this state
		// regardless of how the deployment itself turns out.
		preSnapshot := rolloutmodel.Capture(toValues(instances))
		if err := snapshotstore.Save(snapshotPath, preSnapshot); err != nil {
			printWarning("failed to persist pre-deployment snapshot: %v", err)
		}
	}

	ctx := context.Background()
	if orchCfg.MaxDeploymentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, orchCfg.MaxDeploymentTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := orch.Deploy(ctx, instances, current, desired.CodeVersion, desired.ConfigurationVersion, cfg, dryRunFlag)
	if err != nil {
		printError("deploy failed: %v", err)
		return err
	}
	bar.Add(len(result.Updated) + len(result.Failed) + len(result.Skipped))
	fmt.Println()

	if !dryRunFlag {
		fleetDoc.CodeVersion = current.CodeVersion
		fleetDoc.ConfigurationVersion = current.ConfigurationVersion
		if err := docstore.SaveFleet(fleetPath, fleetDoc); err != nil {
			printWarning("failed to persist updated fleet document: %v", err)
		}
	}

	if historyPath != "" {
		store, err := historystore.Open(historyPath)
		if err != nil {
			printWarning("failed to open history store: %v", err)
		} else {
			defer store.Close()
			if err := store.Record(context.Background(), desired.CodeVersion, desired.ConfigurationVersion, result); err != nil {
				printWarning("failed to record run history: %v", err)
			}
		}
	}

	if metricsFile != "" {
		if err := rec.DumpTextfile(metricsFile); err != nil {
			printWarning("failed to dump metrics: %v", err)
		}
	}

	printSummary(result, time.Since(start))

	// A deployment that finishes with success=false but without an
	// exception still exits 0: the failure is reported in the printed
	// summary and the persisted result, not through the process exit code.
	return nil
}

func printSummary(result *rolloutmodel.DeploymentResult, elapsed time.Duration) {
	fmt.Println()
	fmt.Printf("run %s\n", result.RunID)
	if result.Success {
		printSuccess("deployment finished in %s: %d updated, %d skipped", elapsed.Round(time.Millisecond), len(result.Updated), len(result.Skipped))
	} else if result.RolledBack {
		printError("deployment aborted and rolled back: %s", result.AbortedReason)
	} else {
		printWarning("deployment finished with failures: %d updated, %d failed", len(result.Updated), len(result.Failed))
	}
}

func toValues(instances []*rolloutmodel.InstanceState) []rolloutmodel.InstanceState {
	out := make([]rolloutmodel.InstanceState, len(instances))
	for i, inst := range instances {
		out[i] = *inst
	}
	return out
}
