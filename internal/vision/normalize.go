package vision

import (
	"github.com/rahulnair23/mediavault/internal/vision/core"
	"github.com/rahulnair23/mediavault/pkg/models"
)

// Normalize enforces the analysis result contract: at most 10 tags, a
// description of at most 500 characters, and up to 3 colors in #RRGGBB form.
// Entries that cannot be coerced are dropped rather than rejected.
func Normalize(a models.ImageAnalysis) models.ImageAnalysis {
	return core.Normalize(a)
}
