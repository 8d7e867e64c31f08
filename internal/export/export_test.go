package export

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/greenlens-app/greenlens/internal/models"
	"github.com/greenlens-app/greenlens/internal/storage"
)

func samplePhoto(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: uint8(100 + x), B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func sampleModel(t *testing.T) models.DisplayModel {
	return models.DisplayModel{
		ID:             "0b9c1f0e-1111-4a4a-9c9c-222233334444",
		Image:          models.Payload{Data: samplePhoto(t), MIME: "image/jpeg"},
		Subject:        models.Lettuce,
		Classification: models.Classification{IsOrganic: true, Confidence: 85},
		Scores:         models.ScorePair{Organic: 85, Inorganic: 15},
		Comment:        "[GOOD] Good Lettuce! Strong organic characteristics detected.",
		Source:         models.SourceRemote,
		CreatedAt:      time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
	}
}

func newTestExporter(t *testing.T) (*Exporter, *storage.ResultStore) {
	store := storage.New()
	store.Set(sampleModel(t))
	e := New(store)
	e.now = func() time.Time { return time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC) }
	return e, store
}

func TestExport_NoResult(t *testing.T) {
	e := New(storage.New())
	for _, f := range AllFormats {
		_, err := e.Export(f)
		assert.ErrorIs(t, err, ErrNoResult, "format %s", f)
	}
}

func TestExport_UnsupportedFormat(t *testing.T) {
	e, _ := newTestExporter(t)
	_, err := e.Export(Format("tiff"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
		wantErr  bool
	}{
		{input: "png", expected: FormatPNG},
		{input: "JPG", expected: FormatJPEG},
		{input: "jpeg", expected: FormatJPEG},
		{input: "pdf", expected: FormatPDF},
		{input: "docx", expected: FormatDOC},
		{input: "yml", expected: FormatYAML},
		{input: "bmp", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExport_Raster(t *testing.T) {
	e, _ := newTestExporter(t)

	a, err := e.Export(FormatPNG)
	require.NoError(t, err)
	assert.Equal(t, "image/png", a.ContentType)
	assert.Equal(t, "greenlens_lettuce_20250314_100000.png", a.Filename)
	img, err := png.Decode(bytes.NewReader(a.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, CardWidth, CardHeight), img.Bounds())

	a, err = e.Export(FormatJPEG)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", a.ContentType)
	assert.True(t, strings.HasSuffix(a.Filename, ".jpg"))
	img, err = jpeg.Decode(bytes.NewReader(a.Data))
	require.NoError(t, err)
	assert.Equal(t, CardWidth, img.Bounds().Dx())
}

func TestExport_PDF(t *testing.T) {
	e, _ := newTestExporter(t)

	a, err := e.Export(FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", a.ContentType)
	assert.True(t, bytes.HasPrefix(a.Data, []byte("%PDF-")))
	assert.Contains(t, string(a.Data), "/Count 2")
}

func TestExport_DOC(t *testing.T) {
	e, _ := newTestExporter(t)

	a, err := e.Export(FormatDOC)
	require.NoError(t, err)
	assert.Equal(t, "application/msword", a.ContentType)

	doc := string(a.Data)
	assert.Contains(t, doc, "GreenLens Analysis Report")
	assert.Contains(t, doc, "Generated: 2025-03-14 10:00:00")
	assert.Contains(t, doc, "<td>Lettuce</td>")
	assert.Contains(t, doc, "<td>ORGANIC</td>")
	assert.Contains(t, doc, "<td>85.0%</td>")
	assert.Contains(t, doc, "<td>15.0%</td>")
	assert.Contains(t, doc, `src="data:image/png;base64,`)
}

func TestExport_YAML(t *testing.T) {
	e, _ := newTestExporter(t)

	a, err := e.Export(FormatYAML)
	require.NoError(t, err)

	var got yamlReport
	require.NoError(t, yaml.Unmarshal(a.Data, &got))
	assert.Equal(t, "Lettuce", got.Subject)
	assert.Equal(t, "ORGANIC", got.Classification)
	assert.Equal(t, 85.0, got.Confidence)
	assert.Equal(t, 15.0, got.InorganicScore)
	assert.Equal(t, "remote", got.Source)
	assert.Equal(t, "2025-03-14T09:26:53Z", got.AnalyzedAt)
}

func TestExportAll_FormatsAreIndependent(t *testing.T) {
	e, store := newTestExporter(t)
	before, _ := store.Get()

	e.encoders[FormatPDF] = encoder{
		ext:         "pdf",
		contentType: "application/pdf",
		encode: func(*report) ([]byte, error) {
			return nil, errors.New("disk full")
		},
	}

	artifacts, failures := e.ExportAll(AllFormats)
	require.Len(t, failures, 1)
	assert.ErrorContains(t, failures[FormatPDF], "disk full")
	assert.Len(t, artifacts, len(AllFormats)-1)
	assert.NotContains(t, artifacts, FormatPDF)

	after, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, before, after)
}

func TestExportAll_NoResult(t *testing.T) {
	e := New(storage.New())
	artifacts, failures := e.ExportAll([]Format{FormatPNG, FormatYAML})
	assert.Empty(t, artifacts)
	assert.ErrorIs(t, failures[FormatPNG], ErrNoResult)
	assert.ErrorIs(t, failures[FormatYAML], ErrNoResult)
}

func TestRender_UndecodablePhoto(t *testing.T) {
	m := sampleModel(t)
	m.Image = models.Payload{Data: []byte("not an image"), MIME: "image/jpeg"}
	m.Classification.IsOrganic = false

	img := Render(m)
	assert.Equal(t, image.Rect(0, 0, CardWidth, CardHeight), img.Bounds())
}

func TestRender_Concurrent(t *testing.T) {
	m := sampleModel(t)
	want, ok := Render(m).(*image.RGBA)
	require.True(t, ok)

	const workers = 8
	got := make([]*image.RGBA, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i], _ = Render(m).(*image.RGBA)
		}()
	}
	wg.Wait()

	for i, img := range got {
		require.NotNil(t, img, "worker %d", i)
		assert.True(t, bytes.Equal(want.Pix, img.Pix), "worker %d rendered a different card", i)
	}
}

func TestExport_ConcurrentFormats(t *testing.T) {
	e, _ := newTestExporter(t)

	formats := []Format{FormatPNG, FormatJPEG, FormatPDF, FormatPNG, FormatJPEG, FormatPDF}
	errs := make([]error, len(formats))
	var wg sync.WaitGroup
	for i, f := range formats {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = e.Export(f)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, formats[i])
	}
}

func TestWrap(t *testing.T) {
	f := newFaces()
	lines := wrap(f.body, "one two three four five six seven eight nine ten", 120)
	assert.Greater(t, len(lines), 1)
	assert.Equal(t, "one two three four five six seven eight nine ten", strings.Join(lines, " "))
}
