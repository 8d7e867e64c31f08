// Package export turns the last display model into downloadable reports.
package export

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"

	"github.com/greenlens-app/greenlens/internal/models"
	"github.com/greenlens-app/greenlens/internal/storage"
)

// Format is an export format
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatPDF  Format = "pdf"
	FormatDOC  Format = "doc"
	FormatYAML Format = "yaml"
)

// AllFormats lists every supported format
var AllFormats = []Format{FormatPNG, FormatJPEG, FormatPDF, FormatDOC, FormatYAML}

var (
	ErrNoResult          = errors.New("no result to export")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// ParseFormat accepts a format name or a common alias ("jpg", "docx", "yml")
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "pdf":
		return FormatPDF, nil
	case "doc", "docx", "word":
		return FormatDOC, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, s)
	}
}

// Artifact is one exported file
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Field is one key/value row of a report
type Field struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// report is what every encoder works from
type report struct {
	Model       models.DisplayModel
	Snapshot    image.Image
	Fields      []Field
	GeneratedAt time.Time
}

type encoder struct {
	ext         string
	contentType string
	encode      func(r *report) ([]byte, error)
}

// Exporter reads the stored result and serializes it. It never writes to
// the store.
type Exporter struct {
	store    *storage.ResultStore
	encoders map[Format]encoder
	now      func() time.Time
}

func New(store *storage.ResultStore) *Exporter {
	return &Exporter{
		store: store,
		encoders: map[Format]encoder{
			FormatPNG:  {ext: "png", contentType: "image/png", encode: encodePNG},
			FormatJPEG: {ext: "jpg", contentType: "image/jpeg", encode: encodeJPEG},
			FormatPDF:  {ext: "pdf", contentType: "application/pdf", encode: encodePDF},
			FormatDOC:  {ext: "doc", contentType: "application/msword", encode: encodeDOC},
			FormatYAML: {ext: "yaml", contentType: "application/yaml", encode: encodeYAML},
		},
		now: time.Now,
	}
}

// Export serializes the last result in the given format
func (e *Exporter) Export(format Format) (*Artifact, error) {
	m, ok := e.store.Get()
	if !ok {
		return nil, ErrNoResult
	}
	return e.ExportModel(m, format)
}

// ExportModel serializes m in the given format
func (e *Exporter) ExportModel(m models.DisplayModel, format Format) (*Artifact, error) {
	enc, ok := e.encoders[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	r := e.newReport(m)
	data, err := enc.encode(r)
	if err != nil {
		slog.Error("Export failed", "format", format, "id", m.ID, "err", err)
		return nil, fmt.Errorf("failed to export %s: %w", format, err)
	}

	return &Artifact{
		Filename:    Filename(m, r.GeneratedAt, enc.ext),
		ContentType: enc.contentType,
		Data:        data,
	}, nil
}

// ExportAll exports the last result in every requested format. A failure in
// one format is reported in the error map and does not stop the others.
func (e *Exporter) ExportAll(formats []Format) (map[Format]*Artifact, map[Format]error) {
	artifacts := make(map[Format]*Artifact, len(formats))
	failures := make(map[Format]error)

	m, ok := e.store.Get()
	for _, f := range formats {
		if !ok {
			failures[f] = ErrNoResult
			continue
		}
		a, err := e.ExportModel(m, f)
		if err != nil {
			failures[f] = err
			continue
		}
		artifacts[f] = a
	}
	return artifacts, failures
}

func (e *Exporter) newReport(m models.DisplayModel) *report {
	generated := e.now()
	return &report{
		Model:       m,
		Snapshot:    Render(m),
		Fields:      Fields(m, generated),
		GeneratedAt: generated,
	}
}

// Fields returns the key/value rows shared by the PDF, document and YAML reports
func Fields(m models.DisplayModel, generated time.Time) []Field {
	return []Field{
		{Key: "Vegetable", Value: string(m.Subject)},
		{Key: "Classification", Value: m.Label()},
		{Key: "Confidence", Value: fmt.Sprintf("%.1f%%", m.Classification.Confidence)},
		{Key: "Organic Score", Value: fmt.Sprintf("%.1f%%", m.Scores.Organic)},
		{Key: "Inorganic Score", Value: fmt.Sprintf("%.1f%%", m.Scores.Inorganic)},
		{Key: "Analysis", Value: m.Comment},
		{Key: "Mode", Value: string(m.Source)},
		{Key: "Analyzed At", Value: m.CreatedAt.Format("2006-01-02 15:04:05")},
		{Key: "Timestamp", Value: generated.Format("2006-01-02 15:04:05")},
	}
}

// Filename builds the download name for an artifact
func Filename(m models.DisplayModel, generated time.Time, ext string) string {
	subject := strings.ToLower(string(m.Subject))
	if subject == "" {
		subject = "result"
	}
	return fmt.Sprintf("greenlens_%s_%s.%s", subject, generated.Format("20060102_150405"), ext)
}
