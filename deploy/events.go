package deploy

import (
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Listener receives lifecycle events. Events are raised synchronously while
// the service holds its lock; listeners must not call back into the service.
type Listener interface {
	OnDeploymentSuccess(name string)
	OnDeploymentFailure(name string, cause error)
	OnRedeploymentSuccess(name string)
	OnRedeploymentFailure(name string, cause error)
	OnUndeployment(name string)
	OnResourceLeak(name string, warning error)
}

// NopListener ignores every event. Embed it to implement part of Listener.
type NopListener struct{}

func (NopListener) OnDeploymentSuccess(string)          {}
func (NopListener) OnDeploymentFailure(string, error)   {}
func (NopListener) OnRedeploymentSuccess(string)        {}
func (NopListener) OnRedeploymentFailure(string, error) {}
func (NopListener) OnUndeployment(string)               {}
func (NopListener) OnResourceLeak(string, error)        {}

// Listeners fans events out to every listener in order.
type Listeners []Listener

func (ls Listeners) OnDeploymentSuccess(name string) {
	for _, l := range ls {
		l.OnDeploymentSuccess(name)
	}
}

func (ls Listeners) OnDeploymentFailure(name string, cause error) {
	for _, l := range ls {
		l.OnDeploymentFailure(name, cause)
	}
}

func (ls Listeners) OnRedeploymentSuccess(name string) {
	for _, l := range ls {
		l.OnRedeploymentSuccess(name)
	}
}

func (ls Listeners) OnRedeploymentFailure(name string, cause error) {
	for _, l := range ls {
		l.OnRedeploymentFailure(name, cause)
	}
}

func (ls Listeners) OnUndeployment(name string) {
	for _, l := range ls {
		l.OnUndeployment(name)
	}
}

func (ls Listeners) OnResourceLeak(name string, warning error) {
	for _, l := range ls {
		l.OnResourceLeak(name, warning)
	}
}

// EventType identifies a lifecycle event.
type EventType uint8

const (
	EventDeploySuccess EventType = iota
	EventDeployFailure
	EventRedeploySuccess
	EventRedeployFailure
	EventUndeploy
	EventResourceLeak
)

func (t EventType) String() string {
	switch t {
	case EventDeploySuccess:
		return "deploy-success"
	case EventDeployFailure:
		return "deploy-failure"
	case EventRedeploySuccess:
		return "redeploy-success"
	case EventRedeployFailure:
		return "redeploy-failure"
	case EventUndeploy:
		return "undeploy"
	case EventResourceLeak:
		return "resource-leak"
	default:
		return "unknown"
	}
}

// Event is one recorded lifecycle event.
type Event struct {
	Err  error
	Name string
	Type EventType
}

// Recorder is a Listener that keeps every event.
type Recorder struct {
	events []Event
	mu     sync.Mutex
}

func (r *Recorder) add(t EventType, name string, err error) {
	r.mu.Lock()
	r.events = append(r.events, Event{Err: err, Name: name, Type: t})
	r.mu.Unlock()
}

func (r *Recorder) OnDeploymentSuccess(name string) { r.add(EventDeploySuccess, name, nil) }

func (r *Recorder) OnDeploymentFailure(name string, cause error) {
	r.add(EventDeployFailure, name, cause)
}

func (r *Recorder) OnRedeploymentSuccess(name string) { r.add(EventRedeploySuccess, name, nil) }

func (r *Recorder) OnRedeploymentFailure(name string, cause error) {
	r.add(EventRedeployFailure, name, cause)
}

func (r *Recorder) OnUndeployment(name string) { r.add(EventUndeploy, name, nil) }

func (r *Recorder) OnResourceLeak(name string, warning error) {
	r.add(EventResourceLeak, name, warning)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Count returns how many events of type t were recorded for name.
func (r *Recorder) Count(t EventType, name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t && e.Name == name {
			n++
		}
	}
	return n
}

// Last returns the most recent event for name.
func (r *Recorder) Last(name string) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Name == name {
			return r.events[i], true
		}
	}
	return Event{}, false
}

// logListener logs every event through the package logger.
type logListener struct{}

func (logListener) OnDeploymentSuccess(name string) {
	Logger().Info("deployed", zap.String("artifact", name))
}

func (logListener) OnDeploymentFailure(name string, cause error) {
	Logger().Error("deployment failed", zap.String("artifact", name), zap.Error(cause))
}

func (logListener) OnRedeploymentSuccess(name string) {
	Logger().Info("redeployed", zap.String("artifact", name))
}

func (logListener) OnRedeploymentFailure(name string, cause error) {
	Logger().Error("redeployment failed", zap.String("artifact", name), zap.Error(cause))
}

func (logListener) OnUndeployment(name string) {
	Logger().Info("undeployed", zap.String("artifact", name))
}

func (logListener) OnResourceLeak(name string, warning error) {
	Logger().Warn("possible resource leak", zap.String("artifact", name), zap.Error(warning))
}

// reportLeaks raises one OnResourceLeak per aggregated warning.
func reportLeaks(l Listener, name string, warnings error) {
	for _, w := range multierr.Errors(warnings) {
		l.OnResourceLeak(name, w)
	}
}
