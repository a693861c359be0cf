package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type titleRecorder struct {
	titles []string
}

func (r *titleRecorder) SetTitle(title string) {
	r.titles = append(r.titles, title)
}

func TestTitleStatusReporter(t *testing.T) {
	w := &titleRecorder{}
	NewTitleStatusReporter(w, "oxy-orbit").Report(StatusReady)
	NewTitleStatusReporter(w, "").Report(StatusNotSupported)
	assert.Equal(t, []string{"oxy-orbit - Engine Ready", "WebGPU not supported"}, w.titles)
}

func TestMultiStatusReporter(t *testing.T) {
	var got []string
	fn := StatusReporterFunc(func(s string) { got = append(got, "fn:"+s) })
	w := &titleRecorder{}

	MultiStatusReporter{fn, nil, NewTitleStatusReporter(w, "orbit"), LogStatusReporter{}}.Report("x")
	assert.Equal(t, []string{"fn:x"}, got)
	assert.Equal(t, []string{"orbit - x"}, w.titles)
}

func TestRecordingStatusKeepsLast(t *testing.T) {
	var forwarded []string
	r := &recordingStatus{next: StatusReporterFunc(func(s string) { forwarded = append(forwarded, s) })}
	assert.Equal(t, "", r.Status())
	r.Report("a")
	r.Report("b")
	assert.Equal(t, "b", r.Status())
	assert.Equal(t, []string{"a", "b"}, forwarded)
}
