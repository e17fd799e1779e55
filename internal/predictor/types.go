package predictor

import "sort"

// AmenityConfidence is one amenity label with its predicted probability.
type AmenityConfidence struct {
	Label      string
	Confidence float64
}

// FilterPrediction is the model service's reading of a free-text query.
// amenity_confidences arrives as a JSON object, so the model's label order is
// not on the wire; Amenities restores it as the binarizer's sorted class order.
// Amenity filters are intersected, so the order never changes the result set.
type FilterPrediction struct {
	Location           string             `json:"location"`
	PriceTier          string             `json:"price_tier"`
	AmenityConfidences map[string]float64 `json:"amenity_confidences"`
}

// Amenities returns the amenity confidences ordered by label, which is the
// class order of the model's label binarizer.
func (p FilterPrediction) Amenities() []AmenityConfidence {
	out := make([]AmenityConfidence, 0, len(p.AmenityConfidences))
	for label, c := range p.AmenityConfidences {
		out = append(out, AmenityConfidence{Label: label, Confidence: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// BasePriceRequest is the feature bundle for the base price model. The
// attribute payloads are passed through untouched.
type BasePriceRequest struct {
	Distance  float64 `json:"distance"`
	Amenities any     `json:"amenities"`
	Location  any     `json:"location"`
	Reviews   any     `json:"reviews"`
}

// BasePrice is the unadjusted monthly price for each horizon plus the
// model's ancillary scores.
type BasePrice struct {
	LastMonth        float64  `json:"last_month"`
	Current          float64  `json:"current"`
	NextMonth        float64  `json:"next_month"`
	NextYearEstimate float64  `json:"next_year_estimate"`
	LocationScore    *float64 `json:"location_score"`
	ReviewScore      *float64 `json:"review_score"`
	Amenities        []string `json:"amenities"`
	AmenityScore     float64  `json:"amenity_score"`
}

// PriceRange is a recommended monthly price band.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// BookingFeatures is one day of calendar features for the booking model.
type BookingFeatures struct {
	Date       string `json:"date"`
	DayOfWeek  int    `json:"day_of_week"`
	WeekOfYear int    `json:"week_of_year"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
	Day        int    `json:"day"`
	IsWeekend  int    `json:"is_weekend"`
}
