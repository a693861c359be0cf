package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickReportsOncePerInterval(t *testing.T) {
	now := time.Unix(0, 0)
	var out bytes.Buffer
	p := NewProfiler(
		WithClock(func() time.Time { return now }),
		WithLogger(slog.New(slog.NewTextHandler(&out, nil))),
		WithInterval(time.Second),
	)

	for range 59 {
		now = now.Add(time.Second / 60)
		assert.False(t, p.Tick())
	}
	now = now.Add(time.Second / 60)
	assert.True(t, p.Tick())

	assert.InDelta(t, 60.0, p.LastStats().FPS, 0.01)
	assert.Contains(t, out.String(), "frame stats")
	assert.Contains(t, out.String(), "fps=")

	now = now.Add(time.Second / 2)
	assert.False(t, p.Tick())
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithInterval(0))
	assert.Equal(t, time.Second, p.updateInterval)
}
