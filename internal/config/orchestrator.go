package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// OrchestratorConfig holds process-wide tuning for the rollout
// orchestrator, separate from the per-call rolloutmodel.DeploymentConfig.
type OrchestratorConfig struct {
	// RollbackConcurrency bounds how many instances `rolloutctl rollback`
	// restores at once; 0 means no bound (every instance at once). A
	// rollback triggered inside Deploy is bounded by the batch size instead.
	RollbackConcurrency int `json:"rollback_concurrency" yaml:"rollback_concurrency"`

	// MaxDeploymentTimeout is the upper bound placed on an entire deploy
	// call via context, independent of any per-instance timeout_s.
	MaxDeploymentTimeout time.Duration `json:"max_deployment_timeout" yaml:"max_deployment_timeout"`

	// EnableDebugLogging is loaded from the config file but not read by any
	// code path; the log level comes from --log-level alone.
	EnableDebugLogging bool `json:"enable_debug_logging" yaml:"enable_debug_logging"`
}

// DefaultOrchestratorConfig returns production default settings.
func DefaultOrchestratorConfig() *OrchestratorConfig {
	return &OrchestratorConfig{
		RollbackConcurrency: 0,
		MaxDeploymentTimeout: 2 * time.Hour,
		EnableDebugLogging:  false,
	}
}

// TestOrchestratorConfig returns test-optimized settings.
func TestOrchestratorConfig() *OrchestratorConfig {
	return &OrchestratorConfig{
		RollbackConcurrency: 4,
		MaxDeploymentTimeout: 30 * time.Second,
		EnableDebugLogging:  true,
	}
}

// LoadOrchestratorConfig reads process-wide orchestrator settings from a
// YAML file, overlaying DefaultOrchestratorConfig so an omitted field keeps
// its default.
func LoadOrchestratorConfig(path string) (*OrchestratorConfig, error) {
	cfg := DefaultOrchestratorConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
