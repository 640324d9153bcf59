// Package oracle turns face embeddings into the distance scores the cluster
// engine works with.
package oracle

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/kozaktomas/photo-grouper/internal/cluster"
	"github.com/kozaktomas/photo-grouper/internal/constants"
	"github.com/kozaktomas/photo-grouper/internal/fingerprint"
)

// Embedder returns the embedding of the dominant face in an image.
// *fingerprint.EmbeddingClient satisfies it.
type Embedder interface {
	EmbedFace(ctx context.Context, filename string, imageData []byte) ([]float32, error)
}

type cached struct {
	embedding []float32
	err       error
}

// Face computes cosine distances between the dominant faces of two photos.
//
// Embeddings are kept in memory for the lifetime of the Face, so every photo
// hits the embedding server at most once. A failed embedding is remembered as
// well and is never retried. Face is not safe for concurrent use.
type Face struct {
	embedder Embedder
	sentinel float64
	logger   *zap.Logger
	cache    map[cluster.Ref]cached
}

// NewFace creates a distance oracle backed by the given embedder. The reject
// threshold raises the failure sentinel if it is configured above 1.0, so a
// failed comparison always lands in the reject zone.
func NewFace(embedder Embedder, rejectThreshold float64, logger *zap.Logger) *Face {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Face{
		embedder: embedder,
		sentinel: max(constants.SentinelDistance, rejectThreshold),
		logger:   logger,
		cache:    make(map[cluster.Ref]cached),
	}
}

// Sentinel returns the distance reported for photos that cannot be compared.
func (f *Face) Sentinel() float64 {
	return f.sentinel
}

// Distance implements cluster.Oracle. Any failure yields the sentinel distance.
func (f *Face) Distance(ctx context.Context, a, b cluster.Ref) float64 {
	d, err := f.distance(ctx, a, b)
	if err != nil {
		f.logger.Warn("face comparison failed",
			zap.String("representative", string(a)),
			zap.String("image", string(b)),
			zap.Float64("distance", f.sentinel),
			zap.Error(err),
		)
		return f.sentinel
	}
	return d
}

func (f *Face) distance(ctx context.Context, a, b cluster.Ref) (float64, error) {
	ea, err := f.embedding(ctx, a)
	if err != nil {
		return 0, fmt.Errorf("embedding %s: %w", a, err)
	}
	eb, err := f.embedding(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("embedding %s: %w", b, err)
	}
	d, err := fingerprint.CosineDistance(ea, eb)
	if err != nil {
		return 0, fmt.Errorf("comparing %s and %s: %w", a, b, err)
	}
	return d, nil
}

func (f *Face) embedding(ctx context.Context, ref cluster.Ref) ([]float32, error) {
	if c, ok := f.cache[ref]; ok {
		return c.embedding, c.err
	}

	emb, err := f.compute(ctx, ref)
	f.cache[ref] = cached{embedding: emb, err: err}
	return emb, err
}

func (f *Face) compute(ctx context.Context, ref cluster.Ref) (emb []float32, err error) {
	// A panicking embedder counts as a comparison failure.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("embedder panicked: %v", r)
		}
	}()

	data, err := os.ReadFile(string(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return f.embedder.EmbedFace(ctx, string(ref), data)
}
