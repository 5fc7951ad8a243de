// Package store provides indicator catalog persistence.
package store

import (
	"context"
	"sync"

	"satudata/internal/indicator/models"
	id "satudata/pkg/domain"
	dErrors "satudata/pkg/domain-errors"
)

// Memory is an in-memory catalog store for unit tests and local development.
type Memory struct {
	mu         sync.RWMutex
	indicators map[id.IndicatorID]*models.Indicator
}

// NewMemory constructs an empty in-memory catalog store.
func NewMemory() *Memory {
	return &Memory{indicators: make(map[id.IndicatorID]*models.Indicator)}
}

// Add seeds an indicator. Test helper; the catalog is read-mostly in production.
func (s *Memory) Add(indicator *models.Indicator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *indicator
	s.indicators[indicator.ID] = &c
}

// FindByID returns the indicator regardless of its active flag.
func (s *Memory) FindByID(_ context.Context, indicatorID id.IndicatorID) (*models.Indicator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	indicator, ok := s.indicators[indicatorID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "indicator not found")
	}
	c := *indicator
	return &c, nil
}

// ListActive returns active indicators, optionally filtered by category.
func (s *Memory) ListActive(_ context.Context, category id.Category) ([]*models.Indicator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Indicator
	for _, indicator := range s.indicators {
		if !indicator.Active {
			continue
		}
		if category != "" && indicator.Category != category {
			continue
		}
		c := *indicator
		out = append(out, &c)
	}
	return out, nil
}

// ListByIDs resolves a batch of indicator ids in one call. Missing ids are
// simply absent from the result; callers decide whether that is an error.
func (s *Memory) ListByIDs(_ context.Context, ids []id.IndicatorID) (map[id.IndicatorID]*models.Indicator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.IndicatorID]*models.Indicator, len(ids))
	for _, indicatorID := range ids {
		if indicator, ok := s.indicators[indicatorID]; ok {
			c := *indicator
			out[indicatorID] = &c
		}
	}
	return out, nil
}

// SetActive updates the active flag.
func (s *Memory) SetActive(_ context.Context, indicatorID id.IndicatorID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	indicator, ok := s.indicators[indicatorID]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "indicator not found")
	}
	indicator.Active = active
	return nil
}
