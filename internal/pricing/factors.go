package pricing

import (
	"fmt"
	"time"

	"github.com/neexbeast/boardinghub/internal/apperr"
)

// DistanceCategory classifies how far a listing is from the university.
type DistanceCategory struct {
	Name        string
	Description string
	Factor      float64
}

var (
	premiumLocation = DistanceCategory{
		Name:        "Premium Location",
		Description: "Walking distance to university, prime location",
		Factor:      1.3,
	}
	standardLocation = DistanceCategory{
		Name:        "Standard Location",
		Description: "Convenient distance, good transport options",
		Factor:      1.0,
	}
	budgetLocation = DistanceCategory{
		Name:        "Budget Location",
		Description: "Further from university, more affordable",
		Factor:      0.8,
	}
)

// CategorizeDistance returns the category for a distance in km.
// Premium is [0.5, 2], Standard is (2, 6], everything else is Budget.
func CategorizeDistance(km float64) DistanceCategory {
	switch {
	case km >= 0.5 && km <= 2:
		return premiumLocation
	case km > 2 && km <= 6:
		return standardLocation
	default:
		return budgetLocation
	}
}

// Room types.
const (
	RoomSingle  = "single"
	RoomShared2 = "shared-2"
	RoomShared4 = "shared-4"
)

type roomSpec struct {
	label       string
	totalFactor float64
	maxSharing  int
}

var roomSpecs = map[string]roomSpec{
	RoomSingle:  {label: "Single", totalFactor: 1.0, maxSharing: 1},
	RoomShared2: {label: "Shared 2", totalFactor: 1.6, maxSharing: 2},
	RoomShared4: {label: "Shared 4", totalFactor: 2.4, maxSharing: 4},
}

// RoomFactor holds the whole-room and per-person multipliers for a room.
type RoomFactor struct {
	TotalPriceFactor float64
	PerPersonFactor  float64
	MaxSharing       int
	Description      string
}

// RoomFactorFor computes the price factors for roomType shared by numSharing
// students. Unknown room types and occupancy outside 1..max are client errors.
func RoomFactorFor(roomType string, numSharing int) (RoomFactor, error) {
	room, ok := roomSpecs[roomType]
	if !ok {
		return RoomFactor{}, apperr.Input("invalid room type: %s", roomType)
	}
	if numSharing < 1 {
		return RoomFactor{}, apperr.Input("num_sharing must be at least 1, got %d", numSharing)
	}
	if numSharing > room.maxSharing {
		return RoomFactor{}, apperr.Input("maximum %d students allowed for %s", room.maxSharing, roomType)
	}

	return RoomFactor{
		TotalPriceFactor: room.totalFactor,
		PerPersonFactor:  room.totalFactor / float64(numSharing),
		MaxSharing:       room.maxSharing,
		Description:      fmt.Sprintf("%s (%d of %d sharing)", room.label, numSharing, room.maxSharing),
	}, nil
}

var seasonalReasons = map[time.Month]string{
	time.January:   "Mid academic year, moderate demand",
	time.February:  "Mid academic year, stable demand",
	time.March:     "End of academic year, lower demand",
	time.April:     "University admissions period, increasing demand",
	time.May:       "Start of new academic year, peak demand",
	time.June:      "Early academic term, high demand",
	time.July:      "Mid-term period, stable demand",
	time.August:    "Mid-term period, stable demand",
	time.September: "End of term approaching, moderate demand",
	time.October:   "Term break, lower demand",
	time.November:  "Start of final term, demand picking up",
	time.December:  "End of year examinations, moderate demand",
}

// SeasonalReason explains the demand pattern of a month in the academic year.
func SeasonalReason(m time.Month) string {
	if reason, ok := seasonalReasons[m]; ok {
		return reason
	}
	return "Regular season"
}
