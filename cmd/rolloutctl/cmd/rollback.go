package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"rollout.sh/internal/config"
	"rollout.sh/internal/docstore"
	"rollout.sh/internal/rollback"
	"rollout.sh/internal/rolloutlog"
	"rollout.sh/internal/rolloutmodel"
	"rollout.sh/internal/snapshotstore"
)

func newRollbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Restore a fleet to a previously captured snapshot",
		Long:  `rollback restores every instance named in the fleet document from a snapshot file written by a prior deploy.`,
		RunE:  runRollback,
	}

	cmd.Flags().StringVar(&fleetPath, "instances", "fleet.yaml", "path to the fleet document to restore")
	cmd.Flags().StringVar(&snapshotPath, "snapshot", ".rollout-snapshot", "path to the snapshot document to restore from")
	cmd.Flags().StringVar(&orchestratorPath, "orchestrator-config", "", "path to a process-wide orchestrator config YAML file (defaults are used if omitted)")

	return cmd
}

func runRollback(cmd *cobra.Command, args []string) error {
	rolloutlog.Init(rolloutlog.Config{Level: logLevel, Format: "console", Output: "stderr"})

	printHeader("rolloutctl rollback")

	fleetDoc, err := docstore.LoadFleet(fleetPath)
	if err != nil {
		printError("failed to load fleet document: %v", err)
		return err
	}

	snapshot, err := snapshotstore.Load(snapshotPath)
	if err != nil {
		printError("failed to load snapshot: %v", err)
		return err
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

	result := rollback.Execute(context.Background(), instances, snapshot, orchCfg.RollbackConcurrency)
	for _, id := range result.Missing {
		printWarning("no snapshot entry for %s, left untouched", id)
	}

	if len(instances) > 0 {
		fleetDoc.CodeVersion = instances[0].CodeVersion
		fleetDoc.ConfigurationVersion = instances[0].ConfigurationVersion
	}
	if err := docstore.SaveFleet(fleetPath, fleetDoc); err != nil {
		printError("failed to persist restored fleet document: %v", err)
		return err
	}

	printSuccess("restored %d instance(s) from %s", len(result.RolledBack), snapshotPath)
	if len(result.Missing) > 0 {
		return fmt.Errorf("%d instance(s) had no snapshot entry", len(result.Missing))
	}
	return nil
}
