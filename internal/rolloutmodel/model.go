// Package rolloutmodel defines the data types shared by the rollout
// orchestrator: instance and fleet state, deployment configuration, the
// result and event records a deployment produces, and the snapshot used
// to undo one.
package rolloutmodel

import (
	"sync"

	"github.com/google/uuid"
)

// Health is the observed health of an instance.
type Health string

const (
	HealthHealthy  Health = "healthy"
	HealthDegraded Health = "degraded"
	HealthFailed   Health = "failed"
)

// InstanceState is the code/configuration version and health of a single
// fleet member.
type InstanceState struct {
	InstanceID           string `json:"instance_id" yaml:"instance_id"`
	CodeVersion          string `json:"code_version" yaml:"code_version"`
	ConfigurationVersion string `json:"configuration_version" yaml:"configuration_version"`
	Health               Health `json:"health" yaml:"health"`
}

// Clone returns a value copy; InstanceState holds no reference fields, so
// a plain copy is already a deep copy.
func (s InstanceState) Clone() InstanceState {
	return s
}

// SystemState is the fleet-wide version the orchestrator is driving
// towards, plus the single-writer latch that prevents two deployments
// from running against the same fleet concurrently.
//
// The latch is guarded by an internal mutex so TryBeginDeployment is
// atomic regardless of how many goroutines hold a pointer to the same
// SystemState.
type SystemState struct {
	CodeVersion          string `json:"code_version" yaml:"code_version"`
	ConfigurationVersion string `json:"configuration_version" yaml:"configuration_version"`

	mu                  sync.Mutex
	deploymentInProgress bool
}

// DeploymentInProgress reports the current latch value.
func (s *SystemState) DeploymentInProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deploymentInProgress
}

// TryBeginDeployment atomically sets the latch if it is currently clear,
// returning false if a deployment is already running.
func (s *SystemState) TryBeginDeployment() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deploymentInProgress {
		return false
	}
	s.deploymentInProgress = true
	return true
}

// EndDeployment clears the latch. Safe to call unconditionally from a
// deferred cleanup.
func (s *SystemState) EndDeployment() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deploymentInProgress = false
}

// SetVersions updates the target versions the fleet has converged on.
func (s *SystemState) SetVersions(codeVersion, configurationVersion string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CodeVersion = codeVersion
	s.ConfigurationVersion = configurationVersion
}

// DeploymentConfig holds the tunables of a single deploy call.
type DeploymentConfig struct {
	BatchSize         int     `json:"batch_size" yaml:"batch_size"`
	MaxFailures       *int    `json:"max_failures,omitempty" yaml:"max_failures,omitempty"`
	FailurePercentage *float64 `json:"failure_percentage,omitempty" yaml:"failure_percentage,omitempty"`
	TimeoutS          *float64 `json:"timeout_s,omitempty" yaml:"timeout_s,omitempty"`
	RetryMaxAttempts  int     `json:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayS   float64 `json:"retry_base_delay_s" yaml:"retry_base_delay_s"`
}

// DefaultDeploymentConfig mirrors the defaults of the original dataclass.
func DefaultDeploymentConfig() DeploymentConfig {
	return DeploymentConfig{
		BatchSize:        5,
		RetryMaxAttempts: 0,
		RetryBaseDelayS:  0.1,
	}
}

// Event is one entry of a deployment's history or per-instance history.
type Event struct {
	Name   string                 `json:"name" yaml:"name"`
	Fields map[string]interface{} `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// NewEvent builds an Event from inline key/value pairs, e.g.
// NewEvent("batch_start", "batch", 0, "nodes", 5).
func NewEvent(name string, kv ...interface{}) Event {
	fields := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		fields[key] = kv[i+1]
	}
	return Event{Name: name, Fields: fields}
}

// DeploymentResult is what Deploy returns: the outcome partition plus the
// full audit trail of what happened.
type DeploymentResult struct {
	// RunID identifies this Deploy call in the CLI's printed summary and in
	// history records.
	RunID           string          `json:"run_id" yaml:"run_id"`
	Success         bool            `json:"success" yaml:"success"`
	Updated         []string        `json:"updated" yaml:"updated"`
	Failed          []string        `json:"failed" yaml:"failed"`
	Skipped         []string        `json:"skipped" yaml:"skipped"`
	AbortedReason   string          `json:"aborted_reason,omitempty" yaml:"aborted_reason,omitempty"`
	RolledBack      bool            `json:"rolled_back" yaml:"rolled_back"`
	History         []Event         `json:"history" yaml:"history"`
	PerNodeHistory  map[string][]Event `json:"per_node_history" yaml:"per_node_history"`
}

// NewRunID generates a fresh identifier for a single Deploy call.
func NewRunID() string {
	return uuid.NewString()
}

// Snapshot is an exact, independent copy of a set of instances' state,
// taken before a deployment begins, used to restore the fleet on abort.
type Snapshot map[string]InstanceState

// Capture deep-copies the given instances into a new Snapshot, keyed by
// instance ID.
func Capture(instances []InstanceState) Snapshot {
	snap := make(Snapshot, len(instances))
	for _, inst := range instances {
		snap[inst.InstanceID] = inst.Clone()
	}
	return snap
}
