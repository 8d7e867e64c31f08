package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/greenlens-app/greenlens/internal/analysis"
	"github.com/greenlens-app/greenlens/internal/config"
	"github.com/greenlens-app/greenlens/internal/export"
	"github.com/greenlens-app/greenlens/internal/presenter"
	"github.com/greenlens-app/greenlens/internal/scoring"
	"github.com/greenlens-app/greenlens/internal/storage"
)

// pipelineFlags are shared by every command that runs predictions
type pipelineFlags struct {
	apiURL      string
	picker      string
	pickerModel string
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.apiURL, "api-url", "", "Prediction service base URL (default $GREENLENS_API_URL or http://localhost:10000)")
	cmd.Flags().StringVar(&f.picker, "picker", "", "Subject picker: random, ollama, openai or gemini (default $GREENLENS_PICKER or random)")
	cmd.Flags().StringVar(&f.pickerModel, "picker-model", "", "Model for the LLM subject picker (uses provider default if not specified)")
}

// pipeline is the wired prediction stack
type pipeline struct {
	cfg      *config.Config
	store    *storage.ResultStore
	service  *analysis.Service
	exporter *export.Exporter
}

// newPipeline wires scoring, picker, presenter and exporter around one
// result store and probes the prediction service once.
func newPipeline(ctx context.Context, f *pipelineFlags) (*pipeline, error) {
	cfg := config.Load()
	if f.apiURL != "" {
		cfg.APIURL = f.apiURL
	}
	if f.picker != "" {
		cfg.Picker = f.picker
	}
	if f.pickerModel != "" {
		cfg.PickerModel = f.pickerModel
	}

	picker, err := analysis.NewPicker(cfg.Picker, cfg.PickerModel)
	if err != nil {
		return nil, err
	}

	store := storage.New()
	source := scoring.NewSource(scoring.NewClient(cfg.APIURL, cfg.HTTPTimeout), nil)
	service := analysis.NewService(source, picker, presenter.New(store))

	status := service.Probe(ctx)
	slog.Info("Prediction service status",
		"url", cfg.APIURL,
		"connected", status.Connected,
		"message", status.Message,
		"picker", cfg.Picker)

	return &pipeline{
		cfg:      cfg,
		store:    store,
		service:  service,
		exporter: export.New(store),
	}, nil
}
