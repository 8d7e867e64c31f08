package analysis

import (
	"fmt"

	"github.com/greenlens-app/greenlens/internal/gemini"
	"github.com/greenlens-app/greenlens/internal/ollama"
	"github.com/greenlens-app/greenlens/internal/openai"
	"github.com/greenlens-app/greenlens/internal/providers"
)

// NewPicker returns the subject picker for a provider name. An empty model
// selects the provider's default.
func NewPicker(name, model string) (providers.Picker, error) {
	switch name {
	case "", "random":
		return providers.NewRandom(), nil
	case "ollama":
		if model == "" {
			model = ollama.Model()
		}
		return providers.NewLLMPicker(ollama.New(), model), nil
	case "openai":
		if model == "" {
			model = openai.Model()
		}
		return providers.NewLLMPicker(openai.New(), model), nil
	case "gemini":
		if model == "" {
			model = gemini.Model()
		}
		return providers.NewLLMPicker(gemini.New(), model), nil
	default:
		return nil, fmt.Errorf("unsupported picker: %s", name)
	}
}
