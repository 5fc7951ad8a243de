package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"satudata/internal/indicator/models"
	id "satudata/pkg/domain"
)

// Catalog is the store surface the cache decorates.
type Catalog interface {
	FindByID(ctx context.Context, indicatorID id.IndicatorID) (*models.Indicator, error)
	ListActive(ctx context.Context, category id.Category) ([]*models.Indicator, error)
	ListByIDs(ctx context.Context, ids []id.IndicatorID) (map[id.IndicatorID]*models.Indicator, error)
	SetActive(ctx context.Context, indicatorID id.IndicatorID, active bool) error
}

// Cache is a read-through Redis decorator over a catalog store. Indicators
// are read-mostly and bulk import resolves them per batch, so per-id caching
// pays for itself quickly. Cache failures fall back to the inner store.
type Cache struct {
	inner  Catalog
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// DefaultCacheTTL bounds staleness of cached catalog entries.
const DefaultCacheTTL = 5 * time.Minute

// NewCache wraps inner with a Redis read-through cache.
func NewCache(inner Catalog, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{inner: inner, client: client, ttl: ttl, logger: logger}
}

// cachedIndicator is the Redis value shape; ids flattened to strings.
type cachedIndicator struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Sequence    int       `json:"sequence"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory"`
	Unit        string    `json:"unit"`
	PeriodType  string    `json:"period_type"`
	Active      bool      `json:"active"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toCached(indicator *models.Indicator) cachedIndicator {
	return cachedIndicator{
		ID:          indicator.ID.String(),
		Code:        indicator.Code,
		Sequence:    indicator.Sequence,
		Name:        indicator.Name,
		Category:    string(indicator.Category),
		Subcategory: indicator.Subcategory,
		Unit:        indicator.Unit,
		PeriodType:  string(indicator.PeriodType),
		Active:      indicator.Active,
		Description: indicator.Description,
		CreatedAt:   indicator.CreatedAt,
		UpdatedAt:   indicator.UpdatedAt,
	}
}

func fromCached(c cachedIndicator) (*models.Indicator, error) {
	indicatorID, err := id.ParseIndicatorID(c.ID)
	if err != nil {
		return nil, err
	}
	return &models.Indicator{
		ID:          indicatorID,
		Code:        c.Code,
		Sequence:    c.Sequence,
		Name:        c.Name,
		Category:    id.Category(c.Category),
		Subcategory: c.Subcategory,
		Unit:        c.Unit,
		PeriodType:  id.PeriodType(c.PeriodType),
		Active:      c.Active,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}, nil
}

func cacheKey(indicatorID id.IndicatorID) string {
	return "indicator:" + indicatorID.String()
}

func (c *Cache) get(ctx context.Context, indicatorID id.IndicatorID) *models.Indicator {
	raw, err := c.client.Get(ctx, cacheKey(indicatorID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("indicator cache read failed", "error", err)
		}
		return nil
	}
	var cached cachedIndicator
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil
	}
	indicator, err := fromCached(cached)
	if err != nil {
		return nil
	}
	return indicator
}

func (c *Cache) put(ctx context.Context, indicator *models.Indicator) {
	raw, err := json.Marshal(toCached(indicator))
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(indicator.ID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("indicator cache write failed", "error", err)
	}
}

// FindByID serves from cache when possible.
func (c *Cache) FindByID(ctx context.Context, indicatorID id.IndicatorID) (*models.Indicator, error) {
	if indicator := c.get(ctx, indicatorID); indicator != nil {
		return indicator, nil
	}
	indicator, err := c.inner.FindByID(ctx, indicatorID)
	if err != nil {
		return nil, err
	}
	c.put(ctx, indicator)
	return indicator, nil
}

// ListActive is a pass-through; list results are not cached.
func (c *Cache) ListActive(ctx context.Context, category id.Category) ([]*models.Indicator, error) {
	return c.inner.ListActive(ctx, category)
}

// ListByIDs serves cached ids and fetches the remainder in one call.
func (c *Cache) ListByIDs(ctx context.Context, ids []id.IndicatorID) (map[id.IndicatorID]*models.Indicator, error) {
	out := make(map[id.IndicatorID]*models.Indicator, len(ids))
	var missing []id.IndicatorID
	for _, indicatorID := range ids {
		if indicator := c.get(ctx, indicatorID); indicator != nil {
			out[indicatorID] = indicator
		} else {
			missing = append(missing, indicatorID)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := c.inner.ListByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for indicatorID, indicator := range fetched {
		c.put(ctx, indicator)
		out[indicatorID] = indicator
	}
	return out, nil
}

// SetActive delegates and invalidates the cached entry.
func (c *Cache) SetActive(ctx context.Context, indicatorID id.IndicatorID, active bool) error {
	if err := c.inner.SetActive(ctx, indicatorID, active); err != nil {
		return err
	}
	if err := c.client.Del(ctx, cacheKey(indicatorID)).Err(); err != nil {
		c.logger.Warn("indicator cache invalidation failed", "error", err)
	}
	return nil
}
