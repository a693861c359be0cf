package engine

import (
	"log/slog"
	"sync"
)

// Status strings written to the StatusReporter by the bootstrap.
const (
	StatusNotSupported = "WebGPU not supported"
	StatusReady        = "Engine Ready"
	StatusUnavailable  = "Engine unavailable"
	StatusStopped      = "Rendering stopped"
)

// StatusReporter receives one human-readable status line at a time.
type StatusReporter interface {
	Report(status string)
}

// StatusReporterFunc adapts a function to a StatusReporter.
type StatusReporterFunc func(status string)

// Report calls f(status).
func (f StatusReporterFunc) Report(status string) {
	f(status)
}

// TitleSetter is implemented by windows whose title bar can show a status.
type TitleSetter interface {
	SetTitle(title string)
}

// titleStatusReporter shows the status after a fixed base title.
type titleStatusReporter struct {
	target TitleSetter
	base   string
}

// NewTitleStatusReporter reports each status as "<base> - <status>" in the window title.
//
// Parameters:
//   - target: the window to update
//   - base: the title shown before the status
//
// Returns:
//   - StatusReporter: the reporter
func NewTitleStatusReporter(target TitleSetter, base string) StatusReporter {
	return &titleStatusReporter{target: target, base: base}
}

func (r *titleStatusReporter) Report(status string) {
	if r.base == "" {
		r.target.SetTitle(status)
		return
	}
	r.target.SetTitle(r.base + " - " + status)
}

// LogStatusReporter writes each status to a logger at Info level.
type LogStatusReporter struct {
	Logger *slog.Logger
}

func (r LogStatusReporter) Report(status string) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("engine status", slog.String("status", status))
}

// MultiStatusReporter fans each status out to every reporter in order.
type MultiStatusReporter []StatusReporter

func (m MultiStatusReporter) Report(status string) {
	for _, r := range m {
		if r != nil {
			r.Report(status)
		}
	}
}

// recordingStatus keeps the last reported status; the bootstrap exposes it through Status().
type recordingStatus struct {
	mu   sync.Mutex
	last string
	next StatusReporter
}

func (r *recordingStatus) Report(status string) {
	r.mu.Lock()
	r.last = status
	r.mu.Unlock()
	if r.next != nil {
		r.next.Report(status)
	}
}

func (r *recordingStatus) Status() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}
