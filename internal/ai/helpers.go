package ai

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed prompts/face_comparison.txt
var faceComparisonPrompt string

const maxRetries = 3

// buildFaceComparisonPrompt returns the embedded face comparison prompt.
func buildFaceComparisonPrompt() string {
	return faceComparisonPrompt
}

// parseFaceComparison decodes a model response, tolerating markdown code fences.
func parseFaceComparison(content string) (*FaceComparison, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	if content == "" {
		return nil, ErrNoVerdict
	}

	var raw struct {
		SamePerson *bool   `json:"same_person"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if raw.SamePerson == nil {
		return nil, fmt.Errorf("%w: missing same_person field", ErrNoVerdict)
	}
	if raw.Confidence < 0 || raw.Confidence > 1 {
		return nil, fmt.Errorf("confidence %v out of range [0, 1]", raw.Confidence)
	}

	return &FaceComparison{
		SamePerson: *raw.SamePerson,
		Confidence: raw.Confidence,
		Reasoning:  raw.Reasoning,
	}, nil
}
