// Package core holds the vision analysis error and result normalization
// shared by the vision package and its provider subpackages.
package core

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rahulnair23/mediavault/pkg/models"
)

// ErrAnalysis covers every failure mode of the external analysis service:
// transport errors, quota and rate-limit rejections, and malformed responses.
// Callers only ever need to distinguish "analysis failed" from other causes.
var ErrAnalysis = errors.New("analysis_error")

const (
	maxTags           = 10
	maxDescriptionLen = 500
	maxColors         = 3
)

var hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Normalize enforces the analysis result contract: at most 10 tags, a
// description of at most 500 characters, and up to 3 colors in #RRGGBB form.
// Entries that cannot be coerced are dropped rather than rejected.
func Normalize(a models.ImageAnalysis) models.ImageAnalysis {
	out := models.ImageAnalysis{
		Description: truncateString(strings.TrimSpace(a.Description), maxDescriptionLen),
	}

	for _, tag := range a.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		out.Tags = append(out.Tags, tag)
		if len(out.Tags) == maxTags {
			break
		}
	}

	for _, c := range a.DominantColors {
		c = strings.TrimSpace(c)
		if !strings.HasPrefix(c, "#") {
			c = "#" + c
		}
		if !hexColorRe.MatchString(c) {
			continue
		}
		out.DominantColors = append(out.DominantColors, strings.ToUpper(c))
		if len(out.DominantColors) == maxColors {
			break
		}
	}

	return out
}

// truncateString truncates s to maxBytes without splitting UTF-8 runes.
func truncateString(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
