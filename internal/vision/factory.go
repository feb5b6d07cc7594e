package vision

import (
	"fmt"

	"github.com/rahulnair23/mediavault/internal/config"
	"github.com/rahulnair23/mediavault/internal/vision/anthropic"
	"github.com/rahulnair23/mediavault/internal/vision/mock"
	"github.com/rahulnair23/mediavault/internal/vision/openai"
	"github.com/rahulnair23/mediavault/pkg/models"
)

// NewProvider constructs the appropriate vision provider based on config.
// Called once at server startup.
func NewProvider(cfg config.VisionConfig) (models.VisionProvider, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewProvider(cfg.OpenAI), nil
	case "anthropic":
		return anthropic.NewProvider(cfg.Anthropic), nil
	case "mock":
		return mock.NewProvider(), nil
	default:
		return nil, fmt.Errorf("unknown vision provider %q: must be one of openai, anthropic, mock", cfg.Provider)
	}
}
