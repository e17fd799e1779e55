package api

import (
	"math"

	"github.com/neexbeast/boardinghub/internal/pricing"
)

type monthPriceJSON struct {
	Month          string  `json:"month"`
	Price          float64 `json:"price"`
	TotalRoomPrice float64 `json:"total_room_price"`
	SeasonalFactor float64 `json:"seasonal_factor"`
	Reason         string  `json:"reason"`
}

type currentMonthJSON struct {
	monthPriceJSON
	ChangeFromLast *float64 `json:"change_from_last"`
}

type nextMonthJSON struct {
	monthPriceJSON
	ChangeFromCurrent *float64 `json:"change_from_current"`
}

type predictedPricesJSON struct {
	LastMonth        monthPriceJSON   `json:"last_month"`
	Current          currentMonthJSON `json:"current"`
	NextMonth        nextMonthJSON    `json:"next_month"`
	NextYearEstimate float64          `json:"next_year_estimate"`
	NextYearTotal    float64          `json:"next_year_total"`
}

type locationInfoJSON struct {
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Factor      float64 `json:"factor"`
}

type roomInfoJSON struct {
	RoomType         string  `json:"room_type"`
	NumSharing       int     `json:"num_sharing"`
	TotalPriceFactor float64 `json:"total_price_factor"`
	PerPersonFactor  float64 `json:"per_person_factor"`
	MaxSharing       int     `json:"max_sharing"`
	Description      string  `json:"description"`
}

type rangeJSON struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type priceResponse struct {
	PredictedPrices  predictedPricesJSON `json:"predicted_prices"`
	LocationInfo     locationInfoJSON    `json:"location_info"`
	RoomInfo         roomInfoJSON        `json:"room_info"`
	AmenityScore     float64             `json:"amenity_score"`
	LocationScore    float64             `json:"location_score"`
	ReviewScore      float64             `json:"review_score"`
	AmenitiesList    []string            `json:"amenities_list"`
	RecommendedRange rangeJSON           `json:"recommended_range"`
}

// newPriceResponse shapes a prediction for clients. Prices are rounded to
// 2 decimals and percent changes to 1; an undefined change serializes as null.
func newPriceResponse(attrs pricing.Attributes, p *pricing.Prediction) priceResponse {
	current := currentMonthJSON{
		monthPriceJSON: monthJSON(p.Current),
		ChangeFromLast: roundPtr(p.Current.Change, 1),
	}
	next := nextMonthJSON{
		monthPriceJSON:    monthJSON(p.NextMonth),
		ChangeFromCurrent: roundPtr(p.NextMonth.Change, 1),
	}

	amenities := p.Amenities
	if amenities == nil {
		amenities = []string{}
	}

	return priceResponse{
		PredictedPrices: predictedPricesJSON{
			LastMonth:        monthJSON(p.LastMonth),
			Current:          current,
			NextMonth:        next,
			NextYearEstimate: round(p.NextYear.PerPerson, 2),
			NextYearTotal:    round(p.NextYear.Total, 2),
		},
		LocationInfo: locationInfoJSON{
			Category:    p.Location.Name,
			Description: p.Location.Description,
			Factor:      p.Location.Factor,
		},
		RoomInfo: roomInfoJSON{
			RoomType:         attrs.Amenities.RoomType,
			NumSharing:       attrs.Amenities.NumSharing,
			TotalPriceFactor: p.Room.TotalPriceFactor,
			PerPersonFactor:  p.Room.PerPersonFactor,
			MaxSharing:       p.Room.MaxSharing,
			Description:      p.Room.Description,
		},
		AmenityScore:     round(p.AmenityScore, 2),
		LocationScore:    scoreOrZero(p.LocationScore),
		ReviewScore:      scoreOrZero(p.ReviewScore),
		AmenitiesList:    amenities,
		RecommendedRange: rangeJSON{Min: round(p.Range.Min, 2), Max: round(p.Range.Max, 2)},
	}
}

func monthJSON(m pricing.MonthPrice) monthPriceJSON {
	return monthPriceJSON{
		Month:          m.Season.Month.String(),
		Price:          round(m.PerPerson, 2),
		TotalRoomPrice: round(m.Total, 2),
		SeasonalFactor: round(m.Season.Factor, 2),
		Reason:         m.Season.Reason,
	}
}

func round(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(v*scale) / scale
}

func roundPtr(v *float64, places int) *float64 {
	if v == nil {
		return nil
	}
	r := round(*v, places)
	return &r
}

func scoreOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return round(*v, 2)
}
