package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"image/jpeg"
	"image/png"

	"github.com/go-pdf/fpdf"
	"gopkg.in/yaml.v3"
)

func encodePNG(r *report) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, r.Snapshot); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeJPEG(r *report) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, r.Snapshot, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// encodePDF lays out the snapshot on page one and the details table on page two
func encodePDF(r *report) ([]byte, error) {
	snapshot, err := encodePNG(r)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("GreenLens Analysis Report", true)
	pdf.SetCreator("GreenLens", true)

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "GreenLens Analysis Report", "", 1, "C", false, 0, "")

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("snapshot", opts, bytes.NewReader(snapshot))
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	w := pageW - left - right
	h := w * float64(CardHeight) / float64(CardWidth)
	pdf.ImageOptions("snapshot", left, 30, w, h, false, opts, 0, "")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Analysis Details", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	valueW := w - 50
	for _, f := range r.Fields {
		pdf.SetFont("Helvetica", "B", 11)
		lines := pdf.SplitText(f.Value, valueW)
		if len(lines) == 0 {
			lines = []string{""}
		}
		rowH := 8 * float64(len(lines))
		pdf.CellFormat(50, rowH, f.Key, "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(valueW, 8, f.Value, "1", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

var docTemplate = template.Must(template.New("doc").Parse(`<html xmlns:o="urn:schemas-microsoft-com:office:office" xmlns:w="urn:schemas-microsoft-com:office:word" xmlns="http://www.w3.org/TR/REC-html40">
<head>
<meta charset="utf-8">
<title>GreenLens Analysis Report</title>
<style>
body { font-family: Calibri, Arial, sans-serif; }
table { border-collapse: collapse; width: 100%; }
td { border: 1px solid #999999; padding: 6px; }
td.key { font-weight: bold; width: 30%; }
</style>
</head>
<body>
<h1>GreenLens Analysis Report</h1>
<p>Generated: {{.Generated}}</p>
<table>
{{range .Fields}}<tr><td class="key">{{.Key}}</td><td>{{.Value}}</td></tr>
{{end}}</table>
<p><img src="{{.Snapshot}}" width="600" alt="Analysis result"></p>
</body>
</html>
`))

// encodeDOC writes a Word-compatible HTML document
func encodeDOC(r *report) ([]byte, error) {
	snapshot, err := encodePNG(r)
	if err != nil {
		return nil, err
	}

	data := struct {
		Generated string
		Fields    []Field
		Snapshot  template.URL
	}{
		Generated: r.GeneratedAt.Format("2006-01-02 15:04:05"),
		Fields:    r.Fields,
		Snapshot:  template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(snapshot)),
	}

	var buf bytes.Buffer
	if err := docTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render document: %w", err)
	}
	return buf.Bytes(), nil
}

// yamlReport is the YAML export layout
type yamlReport struct {
	ID             string  `yaml:"id"`
	Subject        string  `yaml:"subject"`
	Classification string  `yaml:"classification"`
	Confidence     float64 `yaml:"confidence"`
	OrganicScore   float64 `yaml:"organic_score"`
	InorganicScore float64 `yaml:"inorganic_score"`
	Comment        string  `yaml:"comment"`
	Source         string  `yaml:"source"`
	AnalyzedAt     string  `yaml:"analyzed_at"`
	GeneratedAt    string  `yaml:"generated_at"`
}

func encodeYAML(r *report) ([]byte, error) {
	m := r.Model
	data, err := yaml.Marshal(&yamlReport{
		ID:             m.ID,
		Subject:        string(m.Subject),
		Classification: m.Label(),
		Confidence:     m.Classification.Confidence,
		OrganicScore:   m.Scores.Organic,
		InorganicScore: m.Scores.Inorganic,
		Comment:        m.Comment,
		Source:         string(m.Source),
		AnalyzedAt:     m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		GeneratedAt:    r.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return data, nil
}
