package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recorder struct {
	fractions []float64
}

func (r *recorder) Report(fraction float64, _ string) {
	r.fractions = append(r.fractions, fraction)
}

func TestMulti(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := Multi{a, nil, b}

	m.Report(0.5, "Processing 50%...")
	m.Report(1, "Processing 100%...")

	assert.Equal(t, []float64{0.5, 1}, a.fractions)
	assert.Equal(t, []float64{0.5, 1}, b.fractions)
}

func TestLog(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLog(zap.New(core))

	l.Report(0.25, "Processing 25%...")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "Processing 25%...", entries[0].Message)
		assert.Equal(t, 0.25, entries[0].ContextMap()["fraction"])
	}
}

func TestBar(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBar(&buf, 4)

	bar.Report(0.5, "Processing 50%...")
	assert.Equal(t, 2, int(bar.bar.State().CurrentNum))

	bar.Report(1.5, "out of range")
	assert.Equal(t, 4, int(bar.bar.State().CurrentNum))

	bar.Finish()
	assert.Contains(t, buf.String(), "Grouping faces")
}
