package models

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"
)

// ScorePair holds the two complementary percentage scores of one prediction.
// Every producer in this module keeps Organic + Inorganic == 100.
type ScorePair struct {
	Organic   float64 `json:"organic_score" yaml:"organic_score"`
	Inorganic float64 `json:"inorganic_score" yaml:"inorganic_score"`
}

// Classification is the decision derived from a ScorePair
type Classification struct {
	IsOrganic  bool    `json:"is_organic" yaml:"is_organic"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// Label returns ORGANIC or INORGANIC
func (c Classification) Label() string {
	if c.IsOrganic {
		return "ORGANIC"
	}
	return "INORGANIC"
}

// Subject is one of the recognized produce items
type Subject string

const (
	Cabbage Subject = "Cabbage"
	Lettuce Subject = "Lettuce"
)

// AllSubjects lists every recognized subject in a stable order
var AllSubjects = []Subject{Cabbage, Lettuce}

// Valid reports whether s is a member of AllSubjects
func (s Subject) Valid() bool {
	for _, known := range AllSubjects {
		if s == known {
			return true
		}
	}
	return false
}

// ParseSubject matches free text (for example an LLM reply) against the known
// subjects. The first known label found in the text wins.
func ParseSubject(text string) (Subject, error) {
	lower := strings.ToLower(text)
	for _, s := range AllSubjects {
		if strings.Contains(lower, strings.ToLower(string(s))) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unrecognized subject %q", strings.TrimSpace(text))
}

// Source identifies where a score pair came from
type Source string

const (
	SourceRemote Source = "remote"
	SourceDemo   Source = "demo"
)

// Payload is an encoded image as captured or uploaded
type Payload struct {
	Data []byte `json:"-" yaml:"-"`
	MIME string `json:"mime" yaml:"mime"`
}

// DataURI renders the payload as a data: URI, the form the prediction
// endpoint expects.
func (p Payload) DataURI() string {
	mime := p.MIME
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

var ErrInvalidDataURI = errors.New("invalid data URI")

// ParseDataURI decodes "data:<mime>;base64,<data>". A bare base64 string is
// accepted too and assumed to be JPEG.
func ParseDataURI(uri string) (Payload, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return Payload{}, fmt.Errorf("%w: empty", ErrInvalidDataURI)
	}

	mime := "image/jpeg"
	encoded := uri
	if strings.HasPrefix(uri, "data:") {
		header, data, ok := strings.Cut(uri, ",")
		if !ok {
			return Payload{}, fmt.Errorf("%w: missing comma", ErrInvalidDataURI)
		}
		header = strings.TrimPrefix(header, "data:")
		if !strings.HasSuffix(header, ";base64") {
			return Payload{}, fmt.Errorf("%w: only base64 data is supported", ErrInvalidDataURI)
		}
		if m := strings.TrimSuffix(header, ";base64"); m != "" {
			mime = m
		}
		encoded = data
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	if len(data) == 0 {
		return Payload{}, fmt.Errorf("%w: no image data", ErrInvalidDataURI)
	}
	return Payload{Data: data, MIME: mime}, nil
}

// MaxImagePixels caps the decoded size of any image accepted for analysis
const MaxImagePixels = 40_000_000

var ErrImageTooLarge = errors.New("image dimensions too large")

// DecodeImageConfig reads only the image header and rejects images that
// would decode to more than MaxImagePixels. Callers register the decoders.
func DecodeImageConfig(data []byte) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, "", err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return image.Config{}, "", fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	return cfg, format, nil
}

// DisplayModel is the complete snapshot of one prediction's outcome, ready
// for presentation and export. It is never modified after creation.
type DisplayModel struct {
	ID             string         `json:"id" yaml:"id"`
	Image          Payload        `json:"image" yaml:"image"`
	Subject        Subject        `json:"subject" yaml:"subject"`
	Classification Classification `json:"classification" yaml:"classification"`
	Scores         ScorePair      `json:"scores" yaml:"scores"`
	Comment        string         `json:"comment" yaml:"comment"`
	Source         Source         `json:"source" yaml:"source"`
	CreatedAt      time.Time      `json:"created_at" yaml:"created_at"`
}

// Label returns the classification label of the model
func (m DisplayModel) Label() string {
	return m.Classification.Label()
}

// CaptureState is the state of the camera capture controller
type CaptureState string

const (
	StateIdle         CaptureState = "idle"
	StateDeviceListed CaptureState = "device_listed"
	StateStreaming    CaptureState = "streaming"
)

// Device is an available video input device
type Device struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}
