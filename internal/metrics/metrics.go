// Package metrics wraps prometheus counters into a Recorder the
// orchestrator calls at the same points it appends history events,
// observing a deployment without altering its outcome.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder implements orchestrator.Recorder against an isolated
// registry, so concurrent test runs and concurrent CLI invocations in
// the same process don't collide on the default global registry.
type Recorder struct {
	registry *prometheus.Registry

	batches          prometheus.Counter
	instancesUpdated prometheus.Counter
	instancesFailed  prometheus.Counter
	aborts           *prometheus.CounterVec
	deployments      *prometheus.CounterVec
}

// New builds a Recorder with a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()

	r := &Recorder{
		registry: reg,
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rollout_batches_total",
			Help: "Number of batches started across all deployments.",
		}),
		instancesUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rollout_instances_updated_total",
			Help: "Number of instances successfully updated.",
		}),
		instancesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rollout_instances_failed_total",
			Help: "Number of instances that failed to update.",
		}),
		aborts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollout_aborts_total",
			Help: "Number of deployments aborted by the failure threshold evaluator, by reason.",
		}, []string{"reason"}),
		deployments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollout_deployments_total",
			Help: "Number of completed deployments, by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(r.batches, r.instancesUpdated, r.instancesFailed, r.aborts, r.deployments)
	return r
}

func (r *Recorder) BatchStarted(batch, size int) {
	r.batches.Inc()
}

func (r *Recorder) BatchCompleted(batch, updated, failed int) {}

func (r *Recorder) InstanceUpdated() {
	r.instancesUpdated.Inc()
}

func (r *Recorder) InstanceFailed() {
	r.instancesFailed.Inc()
}

func (r *Recorder) Aborted(reason string) {
	r.aborts.WithLabelValues(reason).Inc()
}

func (r *Recorder) DeploymentFinished(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	r.deployments.WithLabelValues(outcome).Inc()
}

// DumpTextfile writes the registry in the Prometheus text exposition
// format to path, for node_exporter's textfile collector.
func (r *Recorder) DumpTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

