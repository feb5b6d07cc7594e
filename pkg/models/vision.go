// Package models contains shared data models used across the mediavault codebase.
package models

import "context"

// VisionProvider is the core interface that all image analysis integrations
// must implement. Never call specific providers directly — always inject this
// interface.
type VisionProvider interface {
	// Analyze fetches the image behind imageURL and returns tags, a short
	// description, and up to three dominant colors.
	Analyze(ctx context.Context, imageURL string) (ImageAnalysis, error)
	// Name returns the provider identifier (e.g., "openai", "anthropic").
	Name() string
}

// ImageAnalysis is the structured output of a vision analysis call.
type ImageAnalysis struct {
	Tags           []string `json:"tags"`            // 5-10 entries
	Description    string   `json:"description"`     // at most 500 chars
	DominantColors []string `json:"dominant_colors"` // at most 3, "#RRGGBB"
}
