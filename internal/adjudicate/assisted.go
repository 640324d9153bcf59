package adjudicate

import (
	"context"
	"fmt"

	"github.com/kozaktomas/photo-grouper/internal/ai"
	"github.com/kozaktomas/photo-grouper/internal/cluster"
	"github.com/kozaktomas/photo-grouper/internal/constants"
	"github.com/kozaktomas/photo-grouper/internal/fingerprint"
	"go.uber.org/zap"
)

// Assisted delegates the decision to a vision model. Any failure answers no.
type Assisted struct {
	provider ai.Provider
	logger   *zap.Logger
	size     int
}

// NewAssisted creates an adjudicator backed by the given vision model.
func NewAssisted(provider ai.Provider, logger *zap.Logger) *Assisted {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assisted{
		provider: provider,
		logger:   logger,
		size:     constants.AssistedImageSize,
	}
}

// Adjudicate asks the model about the pair and answers no on any failure.
func (a *Assisted) Adjudicate(ctx context.Context, left, right cluster.Ref) bool {
	log := a.logger.With(
		zap.String("provider", a.provider.Name()),
		zap.String("representative", string(left)),
		zap.String("image", string(right)),
	)

	comparison, err := a.compare(ctx, left, right)
	if err != nil {
		log.Warn("assisted comparison failed, treating pair as different people", zap.Error(err))
		return false
	}

	log.Info("assisted decision",
		zap.Bool("same", comparison.SamePerson),
		zap.Float64("confidence", comparison.Confidence),
		zap.String("reasoning", comparison.Reasoning),
	)
	return comparison.SamePerson
}

func (a *Assisted) compare(ctx context.Context, left, right cluster.Ref) (*ai.FaceComparison, error) {
	imageA, err := fingerprint.ResizeFile(string(left), a.size)
	if err != nil {
		return nil, fmt.Errorf("preparing %s: %w", left, err)
	}
	imageB, err := fingerprint.ResizeFile(string(right), a.size)
	if err != nil {
		return nil, fmt.Errorf("preparing %s: %w", right, err)
	}
	return a.provider.CompareFaces(ctx, imageA, imageB)
}

// Usage returns the token usage of the underlying provider.
func (a *Assisted) Usage() ai.Usage {
	return *a.provider.GetUsage()
}
