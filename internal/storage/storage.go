package storage

import (
	"sync"

	"github.com/greenlens-app/greenlens/internal/models"
)

// ResultStore holds the single most recent display model. A new result
// replaces the previous one as a whole; readers never observe a partial
// model.
type ResultStore struct {
	last *models.DisplayModel
	mu   sync.RWMutex
}

func New() *ResultStore {
	return &ResultStore{}
}

// Get returns a copy of the last result
func (s *ResultStore) Get() (models.DisplayModel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return models.DisplayModel{}, false
	}
	return *s.last, true
}

// Set replaces the last result
func (s *ResultStore) Set(m models.DisplayModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &m
}

// Clear drops the stored result
func (s *ResultStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = nil
}
