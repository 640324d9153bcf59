// Package progress provides the progress reporters handed to the cluster engine.
package progress

import (
	"io"
	"math"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// Bar renders progress as a terminal progress bar.
type Bar struct {
	bar   *progressbar.ProgressBar
	total int
}

// NewBar creates a bar for total photos, written to w.
func NewBar(w io.Writer, total int) *Bar {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Grouping faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)
	return &Bar{bar: bar, total: total}
}

// Report moves the bar to the given fraction.
func (b *Bar) Report(fraction float64, _ string) {
	current := int(math.Round(fraction * float64(b.total)))
	_ = b.bar.Set(min(max(current, 0), b.total))
}

// Finish completes the bar.
func (b *Bar) Finish() {
	_ = b.bar.Finish()
}

// Log writes every progress update to a logger at debug level.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a logging reporter.
func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Report(fraction float64, message string) {
	l.logger.Debug(message, zap.Float64("fraction", fraction))
}

// Reporter is the interface every reporter in this package implements.
type Reporter interface {
	Report(fraction float64, message string)
}

// Multi fans one progress update out to several reporters.
type Multi []Reporter

func (m Multi) Report(fraction float64, message string) {
	for _, r := range m {
		if r != nil {
			r.Report(fraction, message)
		}
	}
}
