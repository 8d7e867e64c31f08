// Package scoring obtains organic/inorganic score pairs, either from the
// remote prediction service or from the local demo generator.
package scoring

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/greenlens-app/greenlens/internal/models"
)

const (
	StatusLoaded   = "Model loaded successfully"
	StatusDemo     = "Running in demo mode"
	StatusNoServer = "Server not running"

	// NoticeFallback is shown when a remote prediction fails and demo scores are used instead
	NoticeFallback = "[ERROR] Server error or model not loaded. Using demo mode."
)

// Remote is the prediction service as seen by Source
type Remote interface {
	Health(ctx context.Context) (*Health, error)
	Predict(ctx context.Context, payload models.Payload) (models.ScorePair, error)
}

// Status is the outcome of the last health probe
type Status struct {
	Connected bool      `json:"connected"`
	Message   string    `json:"message"`
	CheckedAt time.Time `json:"checked_at"`
}

// Outcome describes how a score pair was obtained
type Outcome struct {
	Source models.Source
	// Notice is a non-blocking message for the user. It is set once per
	// run of remote failures.
	Notice string
	// Err is the remote failure that caused a fallback, if any
	Err error
}

// Source picks between the remote service and the demo generator
type Source struct {
	remote   Remote
	fallback *Fallback

	mu      sync.Mutex
	status  Status
	noticed bool
}

// NewSource returns a source that starts in demo mode until Probe succeeds
func NewSource(remote Remote, fallback *Fallback) *Source {
	if fallback == nil {
		fallback = NewFallback()
	}
	return &Source{
		remote:   remote,
		fallback: fallback,
		status:   Status{Message: StatusNoServer},
	}
}

// Probe checks the service health and records whether remote predictions
// should be attempted.
func (s *Source) Probe(ctx context.Context) Status {
	status := Status{CheckedAt: time.Now()}

	if s.remote == nil {
		status.Message = StatusDemo
	} else {
		health, err := s.remote.Health(ctx)
		switch {
		case err != nil:
			slog.Warn("Prediction service not reachable", "err", err)
			status.Message = StatusNoServer
		case !health.ModelLoaded:
			status.Message = StatusDemo
		default:
			status.Connected = true
			status.Message = StatusLoaded
		}
	}

	s.mu.Lock()
	s.status = status
	if status.Connected {
		s.noticed = false
	}
	s.mu.Unlock()

	slog.Info("Prediction service probed", "connected", status.Connected, "status", status.Message)
	return status
}

// Status returns the result of the last probe
func (s *Source) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Scores returns a score pair for the payload. Remote failures are never
// returned as errors: they switch this call to demo scores and are
// reported through the outcome.
func (s *Source) Scores(ctx context.Context, payload models.Payload) (models.ScorePair, Outcome) {
	s.mu.Lock()
	connected := s.status.Connected
	s.mu.Unlock()

	if !connected || s.remote == nil {
		return s.fallback.Scores(), Outcome{Source: models.SourceDemo}
	}

	scores, err := s.remote.Predict(ctx, payload)
	if err == nil {
		s.mu.Lock()
		s.noticed = false
		s.mu.Unlock()
		return scores, Outcome{Source: models.SourceRemote}
	}

	if errors.Is(err, ErrPredictionRejected) {
		slog.Warn("Prediction rejected, using demo scores", "err", err)
	} else {
		slog.Error("Prediction service error, using demo scores", "err", err)
	}

	outcome := Outcome{Source: models.SourceDemo, Err: err}
	s.mu.Lock()
	if !s.noticed {
		outcome.Notice = NoticeFallback
		s.noticed = true
	}
	s.mu.Unlock()

	return s.fallback.Scores(), outcome
}
