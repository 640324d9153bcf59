package adjudicate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/photo-grouper/internal/cluster"
	"go.uber.org/zap"
)

var (
	ErrNoPendingPair = errors.New("no pair is waiting for a decision")
	ErrStalePair     = errors.New("pair was already decided or replaced")
)

// Pair is a question waiting for a browser answer.
type Pair struct {
	ID    string      `json:"id"`
	Left  cluster.Ref `json:"left"`
	Right cluster.Ref `json:"right"`
	Since time.Time   `json:"since"`
}

// Progress is the last progress report of the run.
type Progress struct {
	Fraction float64 `json:"fraction"`
	Message  string  `json:"message"`
}

// Web holds at most one pending pair and hands decisions posted by the web
// page back to the blocked assigner. It also records progress so the page
// can show it.
type Web struct {
	logger *zap.Logger

	mu       sync.Mutex
	pending  *Pair
	answer   chan bool
	progress Progress
	decided  int

	// called after a pair is published, tests only
	onPublish func(Pair)
}

// NewWeb creates a Web adjudicator with nothing pending.
func NewWeb(logger *zap.Logger) *Web {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Web{logger: logger}
}

// Adjudicate publishes the pair and blocks until Decide is called with its
// id. Cancelling ctx answers no unless a decision was already accepted.
func (w *Web) Adjudicate(ctx context.Context, a, b cluster.Ref) bool {
	pair := &Pair{
		ID:    uuid.NewString(),
		Left:  a,
		Right: b,
		Since: time.Now(),
	}
	answer := make(chan bool, 1)

	w.mu.Lock()
	w.pending = pair
	w.answer = answer
	w.mu.Unlock()

	w.logger.Info("waiting for decision in browser",
		zap.String("pair", pair.ID),
		zap.String("representative", string(a)),
		zap.String("image", string(b)),
	)
	if w.onPublish != nil {
		w.onPublish(*pair)
	}

	select {
	case same := <-answer:
		return same
	case <-ctx.Done():
		w.mu.Lock()
		if w.pending != pair {
			// Decide got in first and its answer is already buffered.
			w.mu.Unlock()
			return <-answer
		}
		w.pending = nil
		w.answer = nil
		w.mu.Unlock()
		w.logger.Warn("decision cancelled, treating pair as different people",
			zap.String("pair", pair.ID),
			zap.Error(ctx.Err()),
		)
		return false
	}
}

// Pending returns the pair waiting for a decision, if any.
func (w *Web) Pending() (Pair, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil {
		return Pair{}, false
	}
	return *w.pending, true
}

// Decide answers the pending pair. The id must match the pending pair.
func (w *Web) Decide(id string, same bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending == nil {
		return ErrNoPendingPair
	}
	if w.pending.ID != id {
		return ErrStalePair
	}

	w.answer <- same
	w.logger.Debug("browser decision",
		zap.String("pair", id),
		zap.Bool("same", same),
		zap.Duration("took", time.Since(w.pending.Since)),
	)
	w.pending = nil
	w.answer = nil
	w.decided++
	return nil
}

// Report implements progress.Reporter.
func (w *Web) Report(fraction float64, message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.progress = Progress{Fraction: fraction, Message: message}
}

// Progress returns the last reported progress.
func (w *Web) Progress() Progress {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.progress
}

// Decided returns how many pairs were answered through Decide.
func (w *Web) Decided() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.decided
}
