package pricing

import (
	"math"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/neexbeast/boardinghub/internal/apperr"
)

// AmenityProfile describes the facilities and room setup of a listing.
type AmenityProfile struct {
	HasWifi             bool   `mapstructure:"has_wifi" json:"has_wifi"`
	HasAttachedBathroom bool   `mapstructure:"has_attached_bathroom" json:"has_attached_bathroom"`
	HasAC               bool   `mapstructure:"has_ac" json:"has_ac"`
	HasKitchen          bool   `mapstructure:"has_kitchen" json:"has_kitchen"`
	HasLaundry          bool   `mapstructure:"has_laundry" json:"has_laundry"`
	HasParking          bool   `mapstructure:"has_parking" json:"has_parking"`
	MealsProvided       bool   `mapstructure:"meals_provided" json:"meals_provided"`
	HasStudyTable       bool   `mapstructure:"has_study_table" json:"has_study_table"`
	HasCupboard         bool   `mapstructure:"has_cupboard" json:"has_cupboard"`
	RoomType            string `mapstructure:"room_type" json:"room_type"`
	NumSharing          int    `mapstructure:"num_sharing" json:"num_sharing"`
}

// LocationFeatures describes where a listing is.
type LocationFeatures struct {
	University          string  `mapstructure:"university" json:"university"`
	DistanceToUni       float64 `mapstructure:"distance_to_uni" json:"distance_to_uni"`
	DistanceToTransport float64 `mapstructure:"distance_to_transport" json:"distance_to_transport"`
	SafetyScore         int     `mapstructure:"safety_score" json:"safety_score"`
	IsMainRoad          bool    `mapstructure:"is_main_road" json:"is_main_road"`
	IsResidentialArea   bool    `mapstructure:"is_residential_area" json:"is_residential_area"`
}

// ReviewMetrics summarizes tenant reviews. The pricing core passes these
// through to the base price model without reading them.
type ReviewMetrics struct {
	OverallRating        float64 `mapstructure:"overall_rating" json:"overall_rating"`
	NumReviews           int     `mapstructure:"num_reviews" json:"num_reviews"`
	LandlordResponseTime float64 `mapstructure:"landlord_response_time" json:"landlord_response_time"`
	ValueRating          float64 `mapstructure:"value_rating" json:"value_rating"`
	MaintenanceRating    float64 `mapstructure:"maintenance_rating" json:"maintenance_rating"`
	CleanlinessRating    float64 `mapstructure:"cleanliness_rating" json:"cleanliness_rating"`
}

// Attributes is a fully decoded pricing request.
type Attributes struct {
	Amenities AmenityProfile
	Location  LocationFeatures
	Reviews   ReviewMetrics
}

// DefaultAttributes returns the values used for any key a client leaves out.
func DefaultAttributes() Attributes {
	return Attributes{
		Amenities: AmenityProfile{RoomType: RoomSingle, NumSharing: 1},
		Location:  LocationFeatures{SafetyScore: 5},
		Reviews: ReviewMetrics{
			OverallRating:        3,
			LandlordResponseTime: 1,
			ValueRating:          3,
			MaintenanceRating:    3,
			CleanlinessRating:    3,
		},
	}
}

type requestBody struct {
	Amenities  map[string]any `mapstructure:"amenities"`
	RoomType   string         `mapstructure:"room_type"`
	NumSharing int            `mapstructure:"num_sharing"`
	Location   map[string]any `mapstructure:"location"`
	Reviews    map[string]any `mapstructure:"reviews"`
}

// ParseAttributes decodes a client pricing payload into Attributes.
//
// Values are converted leniently ("2.5" is a valid distance), but a value that
// cannot be converted is a client error naming the key. Unknown keys are
// ignored and returned, prefixed with their section, so callers can log them.
// room_type and num_sharing at the top level override any copy inside
// amenities.
func ParseAttributes(body map[string]any) (Attributes, []string, error) {
	attrs := DefaultAttributes()
	req := requestBody{RoomType: RoomSingle, NumSharing: 1}

	unknown, err := decode("request", body, &req)
	if err != nil {
		return Attributes{}, nil, err
	}

	sections := []struct {
		name string
		in   map[string]any
		out  any
	}{
		{"amenities", req.Amenities, &attrs.Amenities},
		{"location", req.Location, &attrs.Location},
		{"reviews", req.Reviews, &attrs.Reviews},
	}
	for _, s := range sections {
		unused, err := decode(s.name, s.in, s.out)
		if err != nil {
			return Attributes{}, nil, err
		}
		unknown = append(unknown, unused...)
	}

	attrs.Amenities.RoomType = strings.TrimSpace(req.RoomType)
	if attrs.Amenities.RoomType == "" {
		attrs.Amenities.RoomType = RoomSingle
	}
	attrs.Amenities.NumSharing = req.NumSharing

	if err := attrs.Validate(); err != nil {
		return Attributes{}, nil, err
	}

	sort.Strings(unknown)
	return attrs, unknown, nil
}

// Validate checks the values the pricing rules depend on.
func (a Attributes) Validate() error {
	d := a.Location.DistanceToUni
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return apperr.Input("distance_to_uni must be a non-negative number")
	}
	if _, err := RoomFactorFor(a.Amenities.RoomType, a.Amenities.NumSharing); err != nil {
		return err
	}
	return nil
}

func decode(section string, in map[string]any, out any) ([]string, error) {
	if in == nil {
		return nil, nil
	}

	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		Metadata:         &md,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}

	if err := dec.Decode(in); err != nil {
		return nil, apperr.Input("invalid %s attributes: %s", section, decodeMessage(err))
	}

	unused := make([]string, 0, len(md.Unused))
	for _, k := range md.Unused {
		unused = append(unused, section+"."+k)
	}
	return unused, nil
}

// decodeMessage flattens mapstructure's multi-line error into one line.
func decodeMessage(err error) string {
	if me, ok := err.(*mapstructure.Error); ok {
		msgs := append([]string(nil), me.Errors...)
		sort.Strings(msgs)
		return strings.Join(msgs, "; ")
	}
	return err.Error()
}
