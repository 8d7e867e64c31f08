// Package analysis runs one prediction end to end: scores, subject,
// classification and presentation.
package analysis

import (
	"context"
	"errors"
	"fmt"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"sync/atomic"

	_ "golang.org/x/image/webp"

	"github.com/greenlens-app/greenlens/internal/classification"
	"github.com/greenlens-app/greenlens/internal/models"
	"github.com/greenlens-app/greenlens/internal/presenter"
	"github.com/greenlens-app/greenlens/internal/providers"
	"github.com/greenlens-app/greenlens/internal/scoring"
)

var (
	// ErrBusy is returned while another prediction is still pending
	ErrBusy = errors.New("a prediction is already in progress")

	ErrInvalidImage = errors.New("invalid image")
)

// Result is the outcome of one analysis
type Result struct {
	Model models.DisplayModel `json:"result"`
	// Notice is a non-blocking message, set when demo scores replaced a failed remote prediction
	Notice string `json:"notice,omitempty"`
}

type Service struct {
	source    *scoring.Source
	picker    providers.Picker
	random    providers.Picker
	presenter *presenter.Presenter

	pending atomic.Bool
}

// NewService wires the pipeline. A nil picker means random subjects.
func NewService(source *scoring.Source, picker providers.Picker, p *presenter.Presenter) *Service {
	random := providers.NewRandom()
	if picker == nil {
		picker = random
	}
	return &Service{
		source:    source,
		picker:    picker,
		random:    random,
		presenter: p,
	}
}

// Probe refreshes the prediction service status
func (s *Service) Probe(ctx context.Context) scoring.Status {
	return s.source.Probe(ctx)
}

func (s *Service) Status() scoring.Status {
	return s.source.Status()
}

// Pending reports whether a prediction is in flight
func (s *Service) Pending() bool {
	return s.pending.Load()
}

// Last returns the most recent display model
func (s *Service) Last() (models.DisplayModel, bool) {
	return s.presenter.Last()
}

// Analyze scores the image and publishes the resulting display model. Only
// one call runs at a time; overlapping calls fail with ErrBusy.
func (s *Service) Analyze(ctx context.Context, payload models.Payload) (*Result, error) {
	if err := validate(&payload); err != nil {
		return nil, err
	}

	if !s.pending.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.pending.Store(false)

	scores, outcome := s.source.Scores(ctx, payload)
	subject := s.pickSubject(ctx, payload)
	c := classification.Classify(scores)

	m := s.presenter.Present(payload, subject, c, scores, outcome.Source)
	slog.Info("Prediction completed",
		"id", m.ID,
		"subject", m.Subject,
		"label", m.Label(),
		"confidence", m.Classification.Confidence,
		"source", m.Source)

	return &Result{Model: m, Notice: outcome.Notice}, nil
}

func (s *Service) pickSubject(ctx context.Context, payload models.Payload) models.Subject {
	subject, err := s.picker.PickSubject(ctx, payload)
	if err == nil && subject.Valid() {
		return subject
	}
	slog.Warn("Subject picker failed, using random subject", "err", err, "subject", subject)

	subject, _ = s.random.PickSubject(ctx, payload)
	return subject
}

// validate checks that the payload decodes as an image and fills in its MIME type
func validate(payload *models.Payload) error {
	if len(payload.Data) == 0 {
		return fmt.Errorf("%w: no image data", ErrInvalidImage)
	}
	_, format, err := models.DecodeImageConfig(payload.Data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	payload.MIME = "image/" + format
	return nil
}
