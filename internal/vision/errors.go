package vision

import "github.com/rahulnair23/mediavault/internal/vision/core"

// ErrAnalysis covers every failure mode of the external analysis service:
// transport errors, quota and rate-limit rejections, and malformed responses.
// Callers only ever need to distinguish "analysis failed" from other causes.
var ErrAnalysis = core.ErrAnalysis
