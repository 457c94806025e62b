// Package metrics exports deployment lifecycle events as Prometheus metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wippyai/artifact-runtime/arena"
	"github.com/wippyai/artifact-runtime/region"
)

const namespace = "artifact_runtime"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder counts lifecycle events per artifact. It satisfies deploy.Listener
// and, for region units, arena.Observer. A nil *Recorder ignores every event.
type Recorder struct {
	deployments   *prometheus.CounterVec
	redeployments *prometheus.CounterVec
	undeployments *prometheus.CounterVec
	leaks         *prometheus.CounterVec
	deployed      prometheus.Gauge
	units         *prometheus.GaugeVec

	// live holds the names behind the deployed gauge. Artifacts that never
	// reported a deployment, like the implicit default domain, are ignored
	// when they go away.
	live map[string]struct{}
	mu   sync.Mutex
}

// New creates a Recorder and registers its collectors with reg. A nil reg
// leaves the collectors unregistered.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		deployments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deployments_total",
			Help:      "Deployments by artifact and outcome.",
		}, []string{"artifact", "outcome"}),
		redeployments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redeployments_total",
			Help:      "Redeployments by artifact and outcome.",
		}, []string{"artifact", "outcome"}),
		undeployments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "undeployments_total",
			Help:      "Undeployments by artifact.",
		}, []string{"artifact"}),
		leaks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resource_leaks_total",
			Help:      "Disposal warnings by artifact.",
		}, []string{"artifact"}),
		deployed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "deployed_artifacts",
			Help:      "Artifacts currently deployed.",
		}),
		units: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "region_units",
			Help:      "Units held by live regions, by role.",
		}, []string{"role"}),
		live: make(map[string]struct{}),
	}
	if reg != nil {
		reg.MustRegister(r.deployments, r.redeployments, r.undeployments, r.leaks, r.deployed, r.units)
	}
	return r
}

func (r *Recorder) OnDeploymentSuccess(name string) {
	if r == nil {
		return
	}
	r.deployments.WithLabelValues(name, OutcomeSuccess).Inc()
	r.track(name, true)
}

func (r *Recorder) OnDeploymentFailure(name string, _ error) {
	if r == nil {
		return
	}
	r.deployments.WithLabelValues(name, OutcomeFailure).Inc()
}

func (r *Recorder) OnRedeploymentSuccess(name string) {
	if r == nil {
		return
	}
	r.redeployments.WithLabelValues(name, OutcomeSuccess).Inc()
	r.track(name, true)
}

func (r *Recorder) OnRedeploymentFailure(name string, _ error) {
	if r == nil {
		return
	}
	r.redeployments.WithLabelValues(name, OutcomeFailure).Inc()
}

func (r *Recorder) OnUndeployment(name string) {
	if r == nil {
		return
	}
	r.undeployments.WithLabelValues(name).Inc()
	r.track(name, false)
}

func (r *Recorder) OnResourceLeak(name string, _ error) {
	if r == nil {
		return
	}
	r.leaks.WithLabelValues(name).Inc()
}

// OnArenaEvent follows the units regions take in and release.
func (r *Recorder) OnArenaEvent(e arena.Event) {
	if r == nil {
		return
	}
	g := r.units.WithLabelValues(region.Role(e.Tag))
	switch e.Type {
	case arena.EventInserted:
		g.Inc()
	case arena.EventRemoved:
		g.Dec()
	}
}

func (r *Recorder) track(name string, deployed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if deployed {
		r.live[name] = struct{}{}
	} else {
		delete(r.live, name)
	}
	r.deployed.Set(float64(len(r.live)))
}
