package mock

import (
	"context"

	"github.com/rahulnair23/mediavault/pkg/models"
)

// MockProvider satisfies models.VisionProvider for testing and local
// development without an external vision service.
type MockProvider struct {
	Name_       string
	AnalyzeFunc func(ctx context.Context, imageURL string) (models.ImageAnalysis, error)
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Analyze(ctx context.Context, imageURL string) (models.ImageAnalysis, error) {
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, imageURL)
	}
	return models.ImageAnalysis{}, nil
}

// NewProvider returns a MockProvider with deterministic default responses.
func NewProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		AnalyzeFunc: func(_ context.Context, _ string) (models.ImageAnalysis, error) {
			return models.ImageAnalysis{
				Tags:           []string{"photo", "sample", "test", "image", "mock"},
				Description:    "Deterministic mock analysis for testing.",
				DominantColors: []string{"#C87828", "#1E3A5F", "#FFFFFF"},
			}, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		AnalyzeFunc: func(_ context.Context, _ string) (models.ImageAnalysis, error) {
			return models.ImageAnalysis{}, err
		},
	}
}

var _ models.VisionProvider = (*MockProvider)(nil)
