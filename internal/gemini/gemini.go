package gemini

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/greenlens-app/greenlens/internal/models"
	"github.com/greenlens-app/greenlens/internal/providers"
)

const DefaultModel = "gemini-1.5-flash"

// Gemini is a provider for Google Gemini
type Gemini struct{}

// New returns a new Gemini provider
func New() *Gemini {
	return &Gemini{}
}

// Model returns GEMINI_MODEL or the default model
func Model() string {
	if m := os.Getenv("GEMINI_MODEL"); m != "" {
		return m
	}
	return DefaultModel
}

// DescribeImage answers the prompt about the image using Gemini
func (g *Gemini) DescribeImage(ctx context.Context, config providers.Config, payload models.Payload) (string, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(config.Model)
	model.SetTemperature(float32(config.Temperature))

	resp, err := model.GenerateContent(ctx, genai.ImageData(imageFormat(payload.MIME), payload.Data), genai.Text(config.Prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return string(txt), nil
	}

	return "", fmt.Errorf("unexpected response format from Gemini")
}

// imageFormat turns "image/png" into "png"; genai.ImageData adds the prefix back
func imageFormat(mime string) string {
	format := strings.TrimPrefix(mime, "image/")
	if format == "" || format == mime {
		return "jpeg"
	}
	return format
}
