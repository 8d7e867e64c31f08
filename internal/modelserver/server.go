// Package modelserver is the demo prediction service. It answers the same
// /health and /predict contract as the real model host, with generated
// scores.
package modelserver

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/greenlens-app/greenlens/internal/models"
)

// InputSize is the square edge images are resized to before scoring
const InputSize = 224

// MaxRequestSize caps /predict bodies; a 10MB image is about 13.4MB as base64
const MaxRequestSize = 20 << 20

type Server struct {
	modelLoaded bool
	float       func() float64
}

// New reports the model as loaded when modelPath exists. The file is only
// checked for presence; its contents are never read.
func New(modelPath string) *Server {
	loaded := false
	if _, err := os.Stat(modelPath); err == nil {
		loaded = true
		slog.Info("Model file found", "path", modelPath)
	} else {
		slog.Warn("Model file not found, running in demo mode", "path", modelPath)
	}
	return &Server{modelLoaded: loaded, float: rand.Float64}
}

type predictRequest struct {
	Image *string `json:"image"`
}

// Router builds the gin engine serving /health and /predict
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	r.GET("/health", s.health)
	r.POST("/predict", limitBody(MaxRequestSize), s.predict)
	return r
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"model_loaded": s.modelLoaded,
	})
}

func (s *Server) predict(c *gin.Context) {
	var req predictRequest
	err := c.ShouldBindJSON(&req)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "error": "Request body too large"})
		return
	}
	if err != nil || req.Image == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No image provided"})
		return
	}

	img, err := decode(*req.Image)
	if err != nil {
		slog.Error("Failed to decode prediction image", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	// The demo scores ignore the pixels; the resize keeps the input contract of the real model host.
	input := resize(img, InputSize)
	slog.Debug("Prediction input prepared", "width", input.Bounds().Dx(), "height", input.Bounds().Dy())

	scores := s.scores()
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"organic_score":   scores.Organic,
		"inorganic_score": scores.Inorganic,
	})
}

// scores draws organic uniformly from [50, 95] with one decimal place
func (s *Server) scores() models.ScorePair {
	organic := round1(50 + s.float()*45)
	return models.ScorePair{Organic: organic, Inorganic: round1(100 - organic)}
}

func decode(encoded string) (image.Image, error) {
	if _, data, ok := strings.Cut(encoded, ","); ok {
		encoded = data
	}
	payload, err := models.ParseDataURI(encoded)
	if err != nil {
		return nil, err
	}
	if _, _, err := models.DecodeImageConfig(payload.Data); err != nil {
		return nil, fmt.Errorf("cannot identify image file: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(payload.Data))
	if err != nil {
		return nil, fmt.Errorf("cannot identify image file: %w", err)
	}
	return img, nil
}

func resize(src image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
