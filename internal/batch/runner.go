package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/greenlens-app/greenlens/internal/analysis"
	"github.com/greenlens-app/greenlens/internal/models"
)

// Result is the outcome for one manifest entry
type Result struct {
	ID             string  `parquet:"id" yaml:"id"`
	Path           string  `parquet:"path" yaml:"path"`
	Subject        string  `parquet:"subject,optional" yaml:"subject,omitempty"`
	Label          string  `parquet:"label,optional" yaml:"label,omitempty"`
	Confidence     float64 `parquet:"confidence" yaml:"confidence"`
	OrganicScore   float64 `parquet:"organic_score" yaml:"organic_score"`
	InorganicScore float64 `parquet:"inorganic_score" yaml:"inorganic_score"`
	Source         string  `parquet:"source,optional" yaml:"source,omitempty"`
	Comment        string  `parquet:"comment,optional" yaml:"comment,omitempty"`
	Expected       string  `parquet:"expected,optional" yaml:"expected,omitempty"`
	Correct        bool    `parquet:"correct" yaml:"correct"`
	ProcessingMS   int64   `parquet:"processing_ms" yaml:"processing_ms"`
	Error          string  `parquet:"error,optional" yaml:"error,omitempty"`
}

// Runner feeds manifest entries through the analysis service one at a time
type Runner struct {
	service *analysis.Service
	// BaseDir resolves relative entry paths; usually the manifest directory
	BaseDir string
}

func NewRunner(service *analysis.Service, baseDir string) *Runner {
	return &Runner{service: service, BaseDir: baseDir}
}

// Run classifies every entry. A failing entry is recorded and does not stop
// the run; only context cancellation does.
func (r *Runner) Run(ctx context.Context, entries []Entry) ([]Result, error) {
	results := make([]Result, 0, len(entries))
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := r.runOne(ctx, entry)
		results = append(results, result)

		slog.Info("Classified image",
			"progress", fmt.Sprintf("%d/%d", i+1, len(entries)),
			"id", result.ID,
			"label", result.Label,
			"confidence", result.Confidence,
			"err", result.Error)
	}
	return results, nil
}

func (r *Runner) runOne(ctx context.Context, entry Entry) Result {
	start := time.Now()
	result := Result{ID: entry.ID, Path: entry.Path, Expected: entry.Expected}

	path := entry.Path
	if !filepath.IsAbs(path) && r.BaseDir != "" {
		path = filepath.Join(r.BaseDir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Error = fmt.Sprintf("failed to read image: %v", err)
		return result
	}

	analyzed, err := r.service.Analyze(ctx, models.Payload{Data: data})
	result.ProcessingMS = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		return result
	}

	m := analyzed.Model
	result.Subject = string(m.Subject)
	result.Label = m.Label()
	result.Confidence = m.Classification.Confidence
	result.OrganicScore = m.Scores.Organic
	result.InorganicScore = m.Scores.Inorganic
	result.Source = string(m.Source)
	result.Comment = m.Comment
	result.Correct = entry.Expected != "" && entry.Expected == result.Label
	return result
}

// Summary aggregates a batch run
type Summary struct {
	Total          int     `yaml:"total"`
	Succeeded      int     `yaml:"succeeded"`
	Failed         int     `yaml:"failed"`
	Organic        int     `yaml:"organic"`
	Inorganic      int     `yaml:"inorganic"`
	Demo           int     `yaml:"demo"`
	Labeled        int     `yaml:"labeled"`
	Correct        int     `yaml:"correct"`
	Accuracy       float64 `yaml:"accuracy"`
	MeanConfidence float64 `yaml:"mean_confidence"`
}

// Summarize computes counts and, when ground truth is present, accuracy
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	var confidence float64
	for _, r := range results {
		if r.Error != "" {
			s.Failed++
			continue
		}
		s.Succeeded++
		confidence += r.Confidence
		if r.Label == "ORGANIC" {
			s.Organic++
		} else {
			s.Inorganic++
		}
		if r.Source == string(models.SourceDemo) {
			s.Demo++
		}
		if r.Expected != "" {
			s.Labeled++
			if r.Correct {
				s.Correct++
			}
		}
	}
	if s.Succeeded > 0 {
		s.MeanConfidence = confidence / float64(s.Succeeded)
	}
	if s.Labeled > 0 {
		s.Accuracy = float64(s.Correct) / float64(s.Labeled)
	}
	return s
}
