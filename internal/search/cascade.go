// Package search narrows the listing catalog using filters inferred from a
// free-text query.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/neexbeast/boardinghub/internal/apperr"
	"github.com/neexbeast/boardinghub/internal/catalog"
	"github.com/neexbeast/boardinghub/internal/predictor"
)

const (
	// AmenityThreshold is the minimum confidence for a predicted amenity to be
	// used as a filter.
	AmenityThreshold = 0.3
	// MaxResults caps the number of listings returned per query.
	MaxResults = 5
	// UnrankedScore is reported for every result until relevance ranking exists.
	UnrankedScore = 1.0
)

// FilterPredictor turns a normalized query into predicted filters.
type FilterPredictor interface {
	PredictFilters(ctx context.Context, query string) (*predictor.FilterPrediction, error)
}

// PredictedFilters is the filter triple applied to the catalog.
type PredictedFilters struct {
	Location  string   `json:"location"`
	PriceTier string   `json:"price_tier"`
	Amenities []string `json:"amenities"`
}

// ApplyThreshold keeps the amenities whose confidence is at least
// AmenityThreshold, preserving the predictor's order.
func ApplyThreshold(p predictor.FilterPrediction) PredictedFilters {
	f := PredictedFilters{
		Location:  p.Location,
		PriceTier: p.PriceTier,
		Amenities: []string{},
	}
	for _, a := range p.Amenities() {
		if a.Confidence >= AmenityThreshold {
			f.Amenities = append(f.Amenities, a.Label)
		}
	}
	return f
}

// Result is one matching listing. Results are in catalog order, not ranked:
// Score is always UnrankedScore and Ranked is always false.
type Result struct {
	ID        string   `json:"id"`
	Location  string   `json:"location"`
	Amenities []string `json:"amenities"`
	Price     float64  `json:"price"`
	Score     float64  `json:"score"`
	Ranked    bool     `json:"ranked"`
}

// Cascade runs the multi-stage filter over a catalog snapshot.
type Cascade struct {
	catalog   *catalog.Snapshot
	predictor FilterPredictor
}

// NewCascade constructs a Cascade.
func NewCascade(snap *catalog.Snapshot, p FilterPredictor) *Cascade {
	return &Cascade{catalog: snap, predictor: p}
}

// Search returns up to MaxResults listings matching the filters predicted for query.
// An empty query is rejected before the predictor is called. No matches is an
// empty slice, not an error.
func (c *Cascade) Search(ctx context.Context, query string) ([]Result, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, apperr.Input("query must not be empty")
	}

	prediction, err := c.predictor.PredictFilters(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("predicting filters: %w", err)
	}

	entries := Filter(c.catalog.Entries(), ApplyThreshold(*prediction))
	if len(entries) > MaxResults {
		entries = entries[:MaxResults]
	}

	results := make([]Result, 0, len(entries))
	for _, e := range entries {
		results = append(results, Result{
			ID:        e.ID,
			Location:  e.Location,
			Amenities: e.Amenities,
			Price:     e.Price,
			Score:     UnrankedScore,
			Ranked:    false,
		})
	}
	return results, nil
}

// Filter applies f to entries: location and price tier first, then one
// intersection step per amenity in order. Each step can only shrink the set.
func Filter(entries []catalog.Entry, f PredictedFilters) []catalog.Entry {
	out := keep(entries, func(e catalog.Entry) bool {
		return e.LocationContains(f.Location) && e.TierContains(f.PriceTier)
	})
	for _, amenity := range f.Amenities {
		out = keep(out, func(e catalog.Entry) bool { return e.AmenitiesContain(amenity) })
	}
	return out
}

func keep(entries []catalog.Entry, pred func(catalog.Entry) bool) []catalog.Entry {
	out := make([]catalog.Entry, 0, len(entries))
	for _, e := range entries {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}
