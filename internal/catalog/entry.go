// Package catalog holds the read-only listing catalog that search runs against.
package catalog

import "strings"

// PriceTier buckets a monthly price.
type PriceTier string

const (
	TierCheap      PriceTier = "cheap"
	TierAffordable PriceTier = "affordable"
	TierExpensive  PriceTier = "expensive"
)

const (
	cheapBelow      = 10000
	affordableBelow = 20000
)

// TierFor derives the price tier from a price amount.
func TierFor(price float64) PriceTier {
	switch {
	case price < cheapBelow:
		return TierCheap
	case price < affordableBelow:
		return TierAffordable
	default:
		return TierExpensive
	}
}

// Record is one raw catalog row as read from a source.
type Record struct {
	ID        string
	Location  string
	Price     float64
	Amenities string // delimited by commas
}

// Entry is one normalized listing.
type Entry struct {
	ID        string    `json:"id"`
	Location  string    `json:"location"`
	Price     float64   `json:"price"`
	Amenities []string  `json:"amenities"`
	Tier      PriceTier `json:"price_tier"`

	location    string // lower-cased
	amenityText string // lower-cased, tokens joined by ", "
}

// NormalizeAmenities splits a comma-delimited amenity string into trimmed,
// lower-cased tokens, dropping empty ones.
func NormalizeAmenities(raw string) []string {
	parts := strings.Split(raw, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		tokens = append(tokens, p)
	}
	return tokens
}

func newEntry(r Record) Entry {
	amenities := NormalizeAmenities(r.Amenities)
	return Entry{
		ID:          r.ID,
		Location:    r.Location,
		Price:       r.Price,
		Amenities:   amenities,
		Tier:        TierFor(r.Price),
		location:    strings.ToLower(r.Location),
		amenityText: strings.Join(amenities, ", "),
	}
}

// LocationContains reports whether the location contains s, ignoring case.
func (e Entry) LocationContains(s string) bool {
	return strings.Contains(e.location, strings.ToLower(s))
}

// TierContains reports whether the price tier name contains s, ignoring case.
func (e Entry) TierContains(s string) bool {
	return strings.Contains(string(e.Tier), strings.ToLower(s))
}

// AmenitiesContain reports whether the amenity text contains token, ignoring case.
// Matching is by substring, so "wifi" also matches "free wifi".
// The text is the tokens joined with ", " and a token may span a separator;
// this keeps the catalog's historical match semantics.
func (e Entry) AmenitiesContain(token string) bool {
	return strings.Contains(e.amenityText, strings.ToLower(token))
}

// clone returns a copy whose amenity slice is not shared with e.
func (e Entry) clone() Entry {
	e.Amenities = append([]string(nil), e.Amenities...)
	return e
}
