// Package pricing turns a base price prediction into a breakdown adjusted for
// season, room occupancy and distance from the university.
package pricing

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/boardinghub/internal/predictor"
)

// BasePredictor predicts the unadjusted price for each horizon.
type BasePredictor interface {
	PredictBasePrice(ctx context.Context, in predictor.BasePriceRequest) (*predictor.BasePrice, error)
}

// RangeRecommender suggests a price band for a listing.
type RangeRecommender interface {
	RecommendRange(ctx context.Context, distance, amenityScore float64) (*predictor.PriceRange, error)
}

// SeasonalFactorSource returns the demand multiplier for a calendar month.
type SeasonalFactorSource interface {
	SeasonalFactor(ctx context.Context, month time.Month) (float64, error)
}

// Season describes demand in one calendar month.
type Season struct {
	Month  time.Month
	Factor float64
	Reason string
}

// HorizonPrice is the adjusted price at one horizon.
type HorizonPrice struct {
	PerPerson float64
	Total     float64
}

// MonthPrice is a HorizonPrice for a calendar month. Change is the percent
// change from the previous month and is nil when it is undefined.
type MonthPrice struct {
	HorizonPrice
	Season Season
	Change *float64
}

// Prediction is the composed price breakdown.
type Prediction struct {
	LastMonth MonthPrice
	Current   MonthPrice
	NextMonth MonthPrice
	NextYear  HorizonPrice

	Range         predictor.PriceRange
	AmenityScore  float64
	LocationScore *float64
	ReviewScore   *float64
	Amenities     []string

	Location DistanceCategory
	Room     RoomFactor
}

// Composer builds price breakdowns.
type Composer struct {
	base     BasePredictor
	ranges   RangeRecommender
	seasonal SeasonalFactorSource
	now      func() time.Time
}

// NewComposer constructs a Composer that reads the calendar from the system clock.
func NewComposer(base BasePredictor, ranges RangeRecommender, seasonal SeasonalFactorSource) *Composer {
	return NewComposerWithClock(base, ranges, seasonal, time.Now)
}

// NewComposerWithClock constructs a Composer with an explicit clock.
func NewComposerWithClock(base BasePredictor, ranges RangeRecommender, seasonal SeasonalFactorSource, now func() time.Time) *Composer {
	return &Composer{base: base, ranges: ranges, seasonal: seasonal, now: now}
}

// Compose prices a listing. Invalid attributes fail before any predictor is
// called; any predictor failure fails the whole request.
func (c *Composer) Compose(ctx context.Context, attrs Attributes) (*Prediction, error) {
	if err := attrs.Validate(); err != nil {
		return nil, err
	}
	room, err := RoomFactorFor(attrs.Amenities.RoomType, attrs.Amenities.NumSharing)
	if err != nil {
		return nil, err
	}
	distance := attrs.Location.DistanceToUni
	category := CategorizeDistance(distance)

	base, err := c.base.PredictBasePrice(ctx, predictor.BasePriceRequest{
		Distance:  distance,
		Amenities: attrs.Amenities,
		Location:  attrs.Location,
		Reviews:   attrs.Reviews,
	})
	if err != nil {
		return nil, fmt.Errorf("predicting base price: %w", err)
	}

	band, err := c.ranges.RecommendRange(ctx, distance, base.AmenityScore)
	if err != nil {
		return nil, fmt.Errorf("recommending price range: %w", err)
	}

	seasons, err := c.seasons(ctx)
	if err != nil {
		return nil, err
	}

	last := MonthPrice{HorizonPrice: adjust(base.LastMonth, category, room), Season: seasons[0]}
	current := MonthPrice{HorizonPrice: adjust(base.Current, category, room), Season: seasons[1]}
	next := MonthPrice{HorizonPrice: adjust(base.NextMonth, category, room), Season: seasons[2]}
	current.Change = PercentChange(last.PerPerson, current.PerPerson)
	next.Change = PercentChange(current.PerPerson, next.PerPerson)

	return &Prediction{
		LastMonth:     last,
		Current:       current,
		NextMonth:     next,
		NextYear:      adjust(base.NextYearEstimate, category, room),
		Range:         *band,
		AmenityScore:  base.AmenityScore,
		LocationScore: base.LocationScore,
		ReviewScore:   base.ReviewScore,
		Amenities:     base.Amenities,
		Location:      category,
		Room:          room,
	}, nil
}

// seasons fetches the factors for last, current and next month concurrently.
func (c *Composer) seasons(ctx context.Context) ([3]Season, error) {
	t := c.now()
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	months := [3]time.Month{
		first.AddDate(0, -1, 0).Month(),
		first.Month(),
		first.AddDate(0, 1, 0).Month(),
	}

	var out [3]Season
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range months {
		g.Go(func() error {
			f, err := c.seasonal.SeasonalFactor(gctx, m)
			if err != nil {
				return fmt.Errorf("seasonal factor for %s: %w", m, err)
			}
			out[i] = Season{Month: m, Factor: f, Reason: SeasonalReason(m)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return [3]Season{}, err
	}
	return out, nil
}

// adjust applies the distance factor to base, then the room factors to the
// adjusted value.
func adjust(base float64, category DistanceCategory, room RoomFactor) HorizonPrice {
	adjusted := base * category.Factor
	return HorizonPrice{
		Total:     adjusted * room.TotalPriceFactor,
		PerPerson: adjusted * room.PerPersonFactor,
	}
}

// PercentChange returns (to-from)/from*100, or nil when from is zero or the
// result is not finite.
func PercentChange(from, to float64) *float64 {
	if from == 0 {
		return nil
	}
	v := (to - from) / from * 100
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
