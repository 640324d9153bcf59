package ai

import (
	"context"
	"errors"
)

// ErrNoVerdict is returned when a model never produced a parseable answer.
var ErrNoVerdict = errors.New("no verdict from model")

// Provider defines the interface for vision models that compare two faces.
type Provider interface {
	Name() string
	CompareFaces(ctx context.Context, imageA, imageB []byte) (*FaceComparison, error)

	// Usage tracking.
	GetUsage() *Usage
	ResetUsage()
}

// Usage tracks token usage.
type Usage struct {
	Requests     int
	InputTokens  int
	OutputTokens int
}

// FaceComparison is the model's answer for one pair of photos.
type FaceComparison struct {
	SamePerson bool    `json:"same_person"`
	Confidence float64 `json:"confidence"` // 0-1
	Reasoning  string  `json:"reasoning"`
}
