// Package classification turns score pairs into decisions and the canned
// analysis comments shown next to each result.
package classification

import (
	"math"

	"github.com/greenlens-app/greenlens/internal/models"
)

// Classify derives the decision from a score pair. The comparison is strict,
// so a 50/50 tie is reported as not organic.
func Classify(scores models.ScorePair) models.Classification {
	return models.Classification{
		IsOrganic:  scores.Organic > scores.Inorganic,
		Confidence: math.Max(scores.Organic, scores.Inorganic),
	}
}
