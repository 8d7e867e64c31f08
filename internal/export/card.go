package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"

	"github.com/greenlens-app/greenlens/internal/models"
)

const (
	CardWidth  = 900
	CardHeight = 420

	photoSize = 380
	margin    = 20
	textLeft  = margin*2 + photoSize
)

type palette struct {
	background color.RGBA
	border     color.RGBA
	label      color.RGBA
	accent     color.RGBA
}

var (
	organicPalette = palette{
		background: color.RGBA{R: 27, G: 94, B: 32, A: 255},
		border:     color.RGBA{R: 76, G: 175, B: 80, A: 255},
		label:      color.RGBA{R: 0x81, G: 0xc7, B: 0x84, A: 255},
		accent:     color.RGBA{R: 0x00, G: 0xbc, B: 0xd4, A: 255},
	}
	inorganicPalette = palette{
		background: color.RGBA{R: 120, G: 29, B: 29, A: 255},
		border:     color.RGBA{R: 239, G: 68, B: 68, A: 255},
		label:      color.RGBA{R: 0xef, G: 0x53, B: 0x50, A: 255},
		accent:     color.RGBA{R: 0xff, G: 0x70, B: 0x43, A: 255},
	}
	textColor  = color.RGBA{R: 245, G: 245, B: 245, A: 255}
	mutedColor = color.RGBA{R: 200, G: 200, B: 200, A: 255}
)

type faces struct {
	title, body, small font.Face
}

var (
	loadFontsOnce sync.Once
	regularFont   *opentype.Font
	boldFont      *opentype.Font
)

func loadFonts() (regular, bold *opentype.Font) {
	loadFontsOnce.Do(func() {
		var err error
		if regularFont, err = opentype.Parse(goregular.TTF); err != nil {
			slog.Warn("Failed to parse regular font, using basic font", "err", err)
		}
		if boldFont, err = opentype.Parse(gobold.TTF); err != nil {
			slog.Warn("Failed to parse bold font, using basic font", "err", err)
		}
	})
	return regularFont, boldFont
}

// newFaces builds the faces for one render. An opentype face caches glyph
// state and must not be shared between goroutines.
func newFaces() faces {
	regular, bold := loadFonts()
	newFace := func(f *opentype.Font, size float64) font.Face {
		if f == nil {
			return basicfont.Face7x13
		}
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
		if err != nil {
			return basicfont.Face7x13
		}
		return face
	}
	return faces{
		title: newFace(bold, 34),
		body:  newFace(regular, 20),
		small: newFace(regular, 15),
	}
}

// Render draws the result card used as the visual snapshot of a result
func Render(m models.DisplayModel) image.Image {
	p := inorganicPalette
	if m.Classification.IsOrganic {
		p = organicPalette
	}
	f := newFaces()

	card := image.NewRGBA(image.Rect(0, 0, CardWidth, CardHeight))
	draw.Draw(card, card.Bounds(), &image.Uniform{C: p.border}, image.Point{}, draw.Src)
	draw.Draw(card, card.Bounds().Inset(3), &image.Uniform{C: p.background}, image.Point{}, draw.Src)

	drawPhoto(card, m.Image, image.Rect(margin, margin, margin+photoSize, margin+photoSize))

	y := margin + 36
	drawText(card, f.title, textColor, textLeft, y, string(m.Subject))
	y += 48

	drawText(card, f.body, mutedColor, textLeft, y, "Classification:")
	drawText(card, f.body, p.label, textLeft+170, y, m.Label())
	y += 32
	drawText(card, f.body, mutedColor, textLeft, y, "Confidence:")
	drawText(card, f.body, textColor, textLeft+170, y, fmt.Sprintf("%.1f%%", m.Classification.Confidence))
	y += 32
	drawText(card, f.small, mutedColor, textLeft, y,
		fmt.Sprintf("Organic %.1f%%  |  Inorganic %.1f%%", m.Scores.Organic, m.Scores.Inorganic))
	y += 36

	draw.Draw(card, image.Rect(textLeft, y-4, textLeft+4, y+110), &image.Uniform{C: p.accent}, image.Point{}, draw.Src)
	drawText(card, f.body, textColor, textLeft+14, y+16, "Analysis:")
	lineY := y + 44
	for _, line := range wrap(f.small, m.Comment, CardWidth-textLeft-margin-14) {
		drawText(card, f.small, textColor, textLeft+14, lineY, line)
		lineY += 22
	}

	if !m.CreatedAt.IsZero() {
		drawText(card, f.small, mutedColor, textLeft, CardHeight-margin-4, m.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return card
}

// drawPhoto scales the payload into box keeping its aspect ratio. Payloads
// that do not decode leave a grey placeholder.
func drawPhoto(dst *image.RGBA, payload models.Payload, box image.Rectangle) {
	draw.Draw(dst, box, &image.Uniform{C: color.RGBA{R: 60, G: 60, B: 60, A: 255}}, image.Point{}, draw.Src)

	if _, _, err := models.DecodeImageConfig(payload.Data); err != nil {
		return
	}
	src, _, err := image.Decode(bytes.NewReader(payload.Data))
	if err != nil {
		return
	}

	sb := src.Bounds()
	if sb.Dx() == 0 || sb.Dy() == 0 {
		return
	}
	scale := float64(box.Dx()) / float64(sb.Dx())
	if s := float64(box.Dy()) / float64(sb.Dy()); s < scale {
		scale = s
	}
	w := int(float64(sb.Dx()) * scale)
	h := int(float64(sb.Dy()) * scale)
	x := box.Min.X + (box.Dx()-w)/2
	y := box.Min.Y + (box.Dy()-h)/2

	draw.CatmullRom.Scale(dst, image.Rect(x, y, x+w, y+h), src, sb, draw.Over, nil)
}

func drawText(dst *image.RGBA, face font.Face, c color.Color, x, y int, text string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// wrap splits text into lines no wider than maxWidth pixels
func wrap(face font.Face, text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	limit := fixed.I(maxWidth)
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		candidate := line + " " + w
		if font.MeasureString(face, candidate) > limit {
			lines = append(lines, line)
			line = w
			continue
		}
		line = candidate
	}
	return append(lines, line)
}
