package api

import (
	"context"
	"time"

	"github.com/neexbeast/boardinghub/internal/catalog"
	"github.com/neexbeast/boardinghub/internal/forecast"
	"github.com/neexbeast/boardinghub/internal/pricing"
	"github.com/neexbeast/boardinghub/internal/search"
)

// Searcher runs the natural-language listing search.
type Searcher interface {
	Search(ctx context.Context, query string) ([]search.Result, error)
}

// PriceComposer builds a price breakdown for a listing.
type PriceComposer interface {
	Compose(ctx context.Context, attrs pricing.Attributes) (*pricing.Prediction, error)
}

// BookingForecaster projects bookings from a start date.
type BookingForecaster interface {
	Forecast(ctx context.Context, start time.Time) (*forecast.Forecast, error)
}

// ListingCatalog is the read-only catalog view used for browsing.
type ListingCatalog interface {
	Len() int
	Entries() []catalog.Entry
	ByLocation(location string) []catalog.Entry
	ByTier(tier string) []catalog.Entry
	ByAmenity(amenity string) []catalog.Entry
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
