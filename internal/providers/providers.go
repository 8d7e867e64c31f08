package providers

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/greenlens-app/greenlens/internal/models"
)

// Config represents the configuration for a vision LLM provider
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
}

// Provider defines the interface for a vision-capable LLM provider
type Provider interface {
	DescribeImage(ctx context.Context, config Config, payload models.Payload) (string, error)
}

// Picker decides which subject an image shows
type Picker interface {
	PickSubject(ctx context.Context, payload models.Payload) (models.Subject, error)
}

// SubjectPrompt asks a vision model for exactly one of the known labels
func SubjectPrompt() string {
	labels := make([]string, len(models.AllSubjects))
	for i, s := range models.AllSubjects {
		labels[i] = string(s)
	}
	return fmt.Sprintf("Which vegetable is shown in this photo? Answer with exactly one word from this list: %s.", strings.Join(labels, ", "))
}

// Random picks a subject uniformly. It stands in for a real per-image label.
type Random struct {
	IntN func(n int) int
}

func NewRandom() *Random {
	return &Random{IntN: rand.IntN}
}

func (r *Random) PickSubject(ctx context.Context, payload models.Payload) (models.Subject, error) {
	return models.AllSubjects[r.IntN(len(models.AllSubjects))], nil
}

// LLMPicker labels images by asking a vision provider
type LLMPicker struct {
	Provider Provider
	Config   Config
}

// NewLLMPicker returns a picker with the subject prompt and a low temperature
func NewLLMPicker(provider Provider, model string) *LLMPicker {
	return &LLMPicker{
		Provider: provider,
		Config: Config{
			Model:       model,
			Temperature: 0.1,
			Prompt:      SubjectPrompt(),
		},
	}
}

func (p *LLMPicker) PickSubject(ctx context.Context, payload models.Payload) (models.Subject, error) {
	text, err := p.Provider.DescribeImage(ctx, p.Config, payload)
	if err != nil {
		return "", err
	}
	return models.ParseSubject(text)
}
