package mock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rahulnair23/mediavault/internal/vision"
	"github.com/rahulnair23/mediavault/internal/vision/mock"
	"github.com/rahulnair23/mediavault/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- NewProvider ---

func TestNewProvider_Name(t *testing.T) {
	p := mock.NewProvider()
	assert.Equal(t, "mock", p.Name())
}

func TestNewProvider_Analyze(t *testing.T) {
	p := mock.NewProvider()
	result, err := p.Analyze(context.Background(), "https://example.com/photo.jpg")

	require.NoError(t, err)
	assert.NotEmpty(t, result.Tags)
	assert.NotEmpty(t, result.Description)
	assert.Len(t, result.DominantColors, 3)
}

func TestNewProvider_Deterministic(t *testing.T) {
	p := mock.NewProvider()
	a, err := p.Analyze(context.Background(), "https://example.com/a.jpg")
	require.NoError(t, err)
	b, err := p.Analyze(context.Background(), "https://example.com/b.jpg")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

// --- NewFailingProvider ---

func TestNewFailingProvider_Name(t *testing.T) {
	p := mock.NewFailingProvider(vision.ErrAnalysis)
	assert.Equal(t, "mock-failing", p.Name())
}

func TestNewFailingProvider_Analyze(t *testing.T) {
	p := mock.NewFailingProvider(vision.ErrAnalysis)
	_, err := p.Analyze(context.Background(), "https://example.com/photo.jpg")

	assert.ErrorIs(t, err, vision.ErrAnalysis)
}

func TestNewFailingProvider_CustomError(t *testing.T) {
	customErr := errors.New("custom vision error")
	p := mock.NewFailingProvider(customErr)

	_, err := p.Analyze(context.Background(), "https://example.com/photo.jpg")
	assert.ErrorIs(t, err, customErr)
}

// --- Zero-value MockProvider ---

func TestMockProvider_NilFunc(t *testing.T) {
	p := &mock.MockProvider{Name_: "bare"}

	result, err := p.Analyze(context.Background(), "https://example.com/photo.jpg")
	assert.NoError(t, err)
	assert.Equal(t, models.ImageAnalysis{}, result)
}

// --- Interface compliance ---

func TestMockProvider_ImplementsVisionProvider(t *testing.T) {
	var _ models.VisionProvider = mock.NewProvider()
	var _ models.VisionProvider = mock.NewFailingProvider(nil)
}
