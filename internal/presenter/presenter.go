// Package presenter composes classification output into display models and
// publishes them to the last-result store.
package presenter

import (
	"time"

	"github.com/google/uuid"

	"github.com/greenlens-app/greenlens/internal/classification"
	"github.com/greenlens-app/greenlens/internal/models"
	"github.com/greenlens-app/greenlens/internal/storage"
)

type Presenter struct {
	store *storage.ResultStore
	now   func() time.Time
}

func New(store *storage.ResultStore) *Presenter {
	return &Presenter{store: store, now: time.Now}
}

// Present builds the display model for one prediction and makes it the
// current last result.
func (p *Presenter) Present(payload models.Payload, subject models.Subject, c models.Classification, scores models.ScorePair, source models.Source) models.DisplayModel {
	m := models.DisplayModel{
		ID:             uuid.NewString(),
		Image:          payload,
		Subject:        subject,
		Classification: c,
		Scores:         scores,
		Comment:        classification.Comment(string(subject), c.IsOrganic, scores.Organic, scores.Inorganic),
		Source:         source,
		CreatedAt:      p.now(),
	}
	p.store.Set(m)
	return m
}

// Last returns the current last result
func (p *Presenter) Last() (models.DisplayModel, bool) {
	return p.store.Get()
}
