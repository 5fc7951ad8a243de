package store

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"

	"satudata/internal/statdata/models"
	id "satudata/pkg/domain"
	dErrors "satudata/pkg/domain-errors"
)

var storeNow = time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)

func newPoint(t *testing.T, indicatorID id.IndicatorID, key models.PeriodKey) *models.DataPoint {
	t.Helper()
	value := 42.0
	dp, err := models.NewDataPoint(
		id.DataPointID(uuid.New()),
		indicatorID,
		key,
		&value,
		models.StatusDraft,
		id.UserID(uuid.New()),
		storeNow,
	)
	if err != nil {
		t.Fatalf("new data point: %v", err)
	}
	return dp
}

func TestInsertEnforcesPeriodUniqueness(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	indicatorID := id.IndicatorID(uuid.New())
	key := models.PeriodKey{Year: 2024, Month: 1}

	if err := s.Insert(ctx, newPoint(t, indicatorID, key)); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := s.Insert(ctx, newPoint(t, indicatorID, key))
	if !dErrors.HasCode(err, dErrors.CodeConflict) {
		t.Fatalf("expected conflict on duplicate period, got %v", err)
	}

	// Same year, different shape: no conflict.
	if err := s.Insert(ctx, newPoint(t, indicatorID, models.PeriodKey{Year: 2024, Month: 2})); err != nil {
		t.Fatalf("different month must insert: %v", err)
	}
}

// TestUniquenessAcrossRandomPeriodShapes exercises the uniqueness property
// with randomized period combinations including absent fields.
func TestUniquenessAcrossRandomPeriodShapes(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	indicatorID := id.IndicatorID(uuid.New())
	rng := rand.New(rand.NewSource(1))

	randomKey := func() models.PeriodKey {
		year := 2000 + rng.Intn(25)
		switch rng.Intn(3) {
		case 0:
			return models.PeriodKey{Year: year}
		case 1:
			return models.PeriodKey{Year: year, Month: 1 + rng.Intn(12)}
		default:
			return models.PeriodKey{Year: year, Quarter: 1 + rng.Intn(4)}
		}
	}

	seen := make(map[models.PeriodKey]bool)
	for range 500 {
		key := randomKey()
		err := s.Insert(ctx, newPoint(t, indicatorID, key))
		if seen[key] {
			if !dErrors.HasCode(err, dErrors.CodeConflict) {
				t.Fatalf("key %+v inserted twice without conflict", key)
			}
			continue
		}
		if err != nil {
			t.Fatalf("fresh key %+v rejected: %v", key, err)
		}
		seen[key] = true
	}
}

func TestFindByPeriodIsNullSafe(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	indicatorID := id.IndicatorID(uuid.New())

	yearly := newPoint(t, indicatorID, models.PeriodKey{Year: 2024})
	if err := s.Insert(ctx, yearly); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// A monthly key for the same year must not match the yearly row.
	_, err := s.FindByPeriod(ctx, indicatorID, models.PeriodKey{Year: 2024, Month: 1})
	if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		t.Fatalf("monthly key must not match yearly row, got %v", err)
	}

	found, err := s.FindByPeriod(ctx, indicatorID, models.PeriodKey{Year: 2024})
	if err != nil {
		t.Fatalf("exact key must match: %v", err)
	}
	if found.ID != yearly.ID {
		t.Fatalf("wrong row returned")
	}
}

func TestDeleteRemovesPeriodIndex(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	indicatorID := id.IndicatorID(uuid.New())
	key := models.PeriodKey{Year: 2023, Quarter: 2}

	dp := newPoint(t, indicatorID, key)
	if err := s.Insert(ctx, dp); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.Delete(ctx, dp.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// The period is free again after deletion.
	if err := s.Insert(ctx, newPoint(t, indicatorID, key)); err != nil {
		t.Fatalf("reinsert after delete: %v", err)
	}

	err := s.Delete(ctx, dp.ID)
	if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		t.Fatalf("double delete must be not found, got %v", err)
	}
}

func TestStoreReturnsCopies(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	indicatorID := id.IndicatorID(uuid.New())

	dp := newPoint(t, indicatorID, models.PeriodKey{Year: 2024, Month: 3})
	if err := s.Insert(ctx, dp); err != nil {
		t.Fatalf("insert: %v", err)
	}

	loaded, err := s.FindByID(ctx, dp.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	*loaded.Value = 999

	again, err := s.FindByID(ctx, dp.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if *again.Value != 42 {
		t.Fatalf("mutating a returned row must not affect the store")
	}
}
