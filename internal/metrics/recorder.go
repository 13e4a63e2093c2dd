// Package metrics defines the observability hooks used by the navigation core
// and its collaborators. Components take a Recorder; NoopRecorder is the
// default so callers never nil-check.
package metrics

import "time"

// Result labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Recorder receives navigation and content metrics.
type Recorder interface {
	// IncNavigation counts a navigation attempt by kind and outcome, where
	// outcome is ResultOK or an error kind.
	IncNavigation(kind, outcome string)
	ObserveRouteBuild(d time.Duration, routes int)
	IncContentFetch(source, outcome string)
	ObserveRender(d time.Duration, success bool)
	IncRenderCache(hit bool)
	SetSessions(n int)
	IncManifestReload(success bool)
	// ObserveRequest records an HTTP request under its route pattern.
	ObserveRequest(route string, status int, d time.Duration)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) IncNavigation(string, string) {}
func (NoopRecorder) ObserveRouteBuild(time.Duration, int) {}
func (NoopRecorder) IncContentFetch(string, string) {}
func (NoopRecorder) ObserveRender(time.Duration, bool) {}
func (NoopRecorder) IncRenderCache(bool) {}
func (NoopRecorder) SetSessions(int) {}
func (NoopRecorder) IncManifestReload(bool) {}
func (NoopRecorder) ObserveRequest(string, int, time.Duration) {}
