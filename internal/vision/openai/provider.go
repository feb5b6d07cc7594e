// Package openai implements models.VisionProvider against the OpenAI chat
// completions API with image inputs.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rahulnair23/mediavault/internal/config"
	"github.com/rahulnair23/mediavault/internal/vision/core"
	"github.com/rahulnair23/mediavault/pkg/models"
)

const analysisPrompt = `Analyze this image. Respond with a JSON object containing:
"tags": 5 to 10 short lowercase keywords describing the content,
"description": one paragraph of at most 500 characters,
"dominant_colors": up to 3 dominant colors as "#RRGGBB" hex strings.`

// Provider implements models.VisionProvider using OpenAI.
type Provider struct {
	cfg    config.OpenAIConfig
	client *http.Client
}

func NewProvider(cfg config.OpenAIConfig) *Provider {
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: 90 * time.Second},
	}
}

func (p *Provider) Name() string { return "openai" }

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat respFormat    `json:"response_format"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (p *Provider) Analyze(ctx context.Context, imgURL string) (models.ImageAnalysis, error) {
	reqBody := chatRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: analysisPrompt},
				{Type: "image_url", ImageURL: &imageURL{URL: imgURL}},
			},
		}},
		ResponseFormat: respFormat{Type: "json_object"},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return models.ImageAnalysis{}, fmt.Errorf("%w: marshal request: %w", core.ErrAnalysis, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return models.ImageAnalysis{}, fmt.Errorf("%w: build request: %w", core.ErrAnalysis, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

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
		return models.ImageAnalysis{}, fmt.Errorf("%w: openai returned status %d: %s",
			core.ErrAnalysis, resp.StatusCode, truncate(body, 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return models.ImageAnalysis{}, fmt.Errorf("%w: decode response: %w", core.ErrAnalysis, err)
	}
	if parsed.Error != nil {
		return models.ImageAnalysis{}, fmt.Errorf("%w: openai: %s", core.ErrAnalysis, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return models.ImageAnalysis{}, fmt.Errorf("%w: openai returned no choices", core.ErrAnalysis)
	}

	var result struct {
		Tags           []string `json:"tags"`
		Description    string   `json:"description"`
		DominantColors []string `json:"dominant_colors"`
	}
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &result); err != nil {
		return models.ImageAnalysis{}, fmt.Errorf("%w: malformed analysis payload: %w", core.ErrAnalysis, err)
	}

	return core.Normalize(models.ImageAnalysis{
		Tags:           result.Tags,
		Description:    result.Description,
		DominantColors: result.DominantColors,
	}), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

var _ models.VisionProvider = (*Provider)(nil)
