package scoring

import (
	"math"
	"math/rand/v2"

	"github.com/greenlens-app/greenlens/internal/models"
)

// Fallback synthesizes demo scores when no prediction service is usable.
// The organic score is drawn from [50, 100], so demo results always lean
// organic. That bias is long-standing observable behaviour and is kept.
type Fallback struct {
	// Float returns a uniform value in [0, 1)
	Float func() float64
}

// NewFallback returns a fallback generator backed by math/rand/v2
func NewFallback() *Fallback {
	return &Fallback{Float: rand.Float64}
}

// Scores returns a synthetic score pair summing to exactly 100
func (f *Fallback) Scores() models.ScorePair {
	organic := math.Round(f.Float()*50 + 50)
	return models.ScorePair{Organic: organic, Inorganic: 100 - organic}
}
