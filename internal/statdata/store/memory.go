package store

import (
	"context"
	"sort"
	"sync"

	"satudata/internal/statdata/models"
	id "satudata/pkg/domain"
	dErrors "satudata/pkg/domain-errors"
)

// periodIndex is the uniqueness key of the in-memory store. PeriodKey is
// comparable with zero meaning absent, which gives the same NULL-safe
// semantics as the partial unique indexes in PostgreSQL.
type periodIndex struct {
	indicatorID id.IndicatorID
	key         models.PeriodKey
}

// Memory is an in-memory data point store for unit tests. It enforces the
// same period uniqueness the database does, so conflict paths are testable
// without a live PostgreSQL.
type Memory struct {
	mu       sync.RWMutex
	points   map[id.DataPointID]*models.DataPoint
	byPeriod map[periodIndex]id.DataPointID
}

// NewMemory constructs an empty in-memory data point store.
func NewMemory() *Memory {
	return &Memory{
		points:   make(map[id.DataPointID]*models.DataPoint),
		byPeriod: make(map[periodIndex]id.DataPointID),
	}
}

func (s *Memory) index(dp *models.DataPoint) periodIndex {
	return periodIndex{indicatorID: dp.IndicatorID, key: dp.PeriodKey()}
}

// Insert adds a data point, enforcing period uniqueness like the database.
func (s *Memory) Insert(_ context.Context, dp *models.DataPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.index(dp)
	if _, exists := s.byPeriod[idx]; exists {
		return dErrors.Newf(dErrors.CodeConflict, "data point already exists for %s", dp.PeriodKey().Label())
	}
	s.points[dp.ID] = dp.Clone()
	s.byPeriod[idx] = dp.ID
	return nil
}

// FindByID loads one data point.
func (s *Memory) FindByID(_ context.Context, pointID id.DataPointID) (*models.DataPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dp, ok := s.points[pointID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "data point not found")
	}
	return dp.Clone(), nil
}

// FindByPeriod performs the NULL-safe duplicate lookup.
func (s *Memory) FindByPeriod(_ context.Context, indicatorID id.IndicatorID, key models.PeriodKey) (*models.DataPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pointID, ok := s.byPeriod[periodIndex{indicatorID: indicatorID, key: key}]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "data point not found")
	}
	return s.points[pointID].Clone(), nil
}

// Update replaces the stored row.
func (s *Memory) Update(_ context.Context, dp *models.DataPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.points[dp.ID]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "data point not found")
	}
	s.points[dp.ID] = dp.Clone()
	return nil
}

// Delete removes the row and its period index entry.
func (s *Memory) Delete(_ context.Context, pointID id.DataPointID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dp, ok := s.points[pointID]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "data point not found")
	}
	delete(s.byPeriod, s.index(dp))
	delete(s.points, pointID)
	return nil
}

// ListByIndicator returns an indicator's data points in period order.
func (s *Memory) ListByIndicator(_ context.Context, indicatorID id.IndicatorID) ([]*models.DataPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.DataPoint
	for _, dp := range s.points {
		if dp.IndicatorID == indicatorID {
			out = append(out, dp.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := out[i].PeriodKey(), out[j].PeriodKey()
		if ki.Year != kj.Year {
			return ki.Year < kj.Year
		}
		if ki.Quarter != kj.Quarter {
			return ki.Quarter < kj.Quarter
		}
		return ki.Month < kj.Month
	})
	return out, nil
}

// Count reports how many rows are stored; test helper.
func (s *Memory) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}
