package cache

import (
	"context"
	"errors"
	"log/slog"

	"github.com/neexbeast/boardinghub/internal/predictor"
)

// FilterPredictor is the model call being memoized.
type FilterPredictor interface {
	PredictFilters(ctx context.Context, query string) (*predictor.FilterPrediction, error)
}

// FilterStore holds memoized predictions.
type FilterStore interface {
	Get(ctx context.Context, query string) (*predictor.FilterPrediction, error)
	Set(ctx context.Context, query string, p *predictor.FilterPrediction) error
	Delete(ctx context.Context, query string) error
}

// CachedFilterPredictor serves filter predictions from a FilterStore and
// falls back to the model on a miss. Store failures are logged and never
// fail a prediction; an entry that no longer decodes is evicted.
type CachedFilterPredictor struct {
	next  FilterPredictor
	store FilterStore
	log   *slog.Logger
}

// NewCachedFilterPredictor constructs a CachedFilterPredictor.
func NewCachedFilterPredictor(next FilterPredictor, store FilterStore, log *slog.Logger) *CachedFilterPredictor {
	return &CachedFilterPredictor{next: next, store: store, log: log}
}

// PredictFilters implements search.FilterPredictor.
func (c *CachedFilterPredictor) PredictFilters(ctx context.Context, query string) (*predictor.FilterPrediction, error) {
	cached, err := c.store.Get(ctx, query)
	if err != nil {
		c.log.Warn("filter cache get failed", "query", query, "err", err)
		if errors.Is(err, ErrCorruptEntry) {
			if err := c.store.Delete(ctx, query); err != nil {
				c.log.Warn("filter cache evict failed", "query", query, "err", err)
			}
		}
	}
	if cached != nil {
		return cached, nil
	}

	p, err := c.next.PredictFilters(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := c.store.Set(ctx, query, p); err != nil {
		c.log.Warn("filter cache set failed", "query", query, "err", err)
	}
	return p, nil
}
