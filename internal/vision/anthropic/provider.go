// Package anthropic implements models.VisionProvider against the Anthropic
// messages API with URL image sources.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rahulnair23/mediavault/internal/config"
	"github.com/rahulnair23/mediavault/internal/vision/core"
	"github.com/rahulnair23/mediavault/pkg/models"
)

const apiVersion = "2023-06-01"

const analysisPrompt = `Analyze this image. Respond with only a JSON object containing:
"tags": 5 to 10 short lowercase keywords describing the content,
"description": one paragraph of at most 500 characters,
"dominant_colors": up to 3 dominant colors as "#RRGGBB" hex strings.`

// Provider implements models.VisionProvider using Anthropic.
type Provider struct {
	cfg    config.AnthropicConfig
	client *http.Client
}

func NewProvider(cfg config.AnthropicConfig) *Provider {
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: 90 * time.Second},
	}
}

func (p *Provider) Name() string { return "anthropic" }

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *Provider) Analyze(ctx context.Context, imgURL string) (models.ImageAnalysis, error) {
	reqBody := messageRequest{
		Model:     p.cfg.Model,
		MaxTokens: 1024,
		Messages: []message{{
			Role: "user",
			Content: []contentBlock{
				{Type: "image", Source: &imageSource{Type: "url", URL: imgURL}},
				{Type: "text", Text: analysisPrompt},
			},
		}},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return models.ImageAnalysis{}, fmt.Errorf("%w: marshal request: %w", core.ErrAnalysis, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return models.ImageAnalysis{}, fmt.Errorf("%w: build request: %w", core.ErrAnalysis, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.cfg.APIKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		return models.ImageAnalysis{}, fmt.Errorf("%w: %w", core.ErrAnalysis, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return models.ImageAnalysis{}, fmt.Errorf("%w: read response: %w", core.ErrAnalysis, err)
	}

	if resp.StatusCode != http.StatusOK {
		return models.ImageAnalysis{}, fmt.Errorf("%w: anthropic returned status %d",
			core.ErrAnalysis, resp.StatusCode)
	}

	var parsed messageResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return models.ImageAnalysis{}, fmt.Errorf("%w: decode response: %w", core.ErrAnalysis, err)
	}
	if parsed.Error != nil {
		return models.ImageAnalysis{}, fmt.Errorf("%w: anthropic: %s", core.ErrAnalysis, parsed.Error.Message)
	}

	var text string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return models.ImageAnalysis{}, fmt.Errorf("%w: anthropic returned no text content", core.ErrAnalysis)
	}

	var result struct {
		Tags           []string `json:"tags"`
		Description    string   `json:"description"`
		DominantColors []string `json:"dominant_colors"`
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), &result); err != nil {
		return models.ImageAnalysis{}, fmt.Errorf("%w: malformed analysis payload: %w", core.ErrAnalysis, err)
	}

	return core.Normalize(models.ImageAnalysis{
		Tags:           result.Tags,
		Description:    result.Description,
		DominantColors: result.DominantColors,
	}), nil
}

// extractJSON strips any prose the model wraps around the JSON object.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}

var _ models.VisionProvider = (*Provider)(nil)
