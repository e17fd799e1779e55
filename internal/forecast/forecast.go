// Package forecast projects daily bookings and revenue from calendar features.
package forecast

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/neexbeast/boardinghub/internal/apperr"
	"github.com/neexbeast/boardinghub/internal/predictor"
)

const (
	// Days is the length of a forecast window.
	Days = 30
	// DefaultAveragePrice is the monthly room price used to turn bookings into revenue.
	DefaultAveragePrice = 18000.0

	dateLayout = "2006-01-02"
)

// BookingPredictor predicts one booking count per feature row.
type BookingPredictor interface {
	PredictBookings(ctx context.Context, rows []predictor.BookingFeatures) ([]float64, error)
}

// Day is the forecast for one date.
type Day struct {
	Date     string  `json:"date"`
	Bookings int     `json:"predicted_bookings"`
	Revenue  float64 `json:"predicted_revenue"`
}

// Summary aggregates a forecast window.
type Summary struct {
	TotalBookings     int     `json:"total_bookings"`
	TotalRevenue      float64 `json:"total_revenue"`
	MeanDailyBookings float64 `json:"mean_daily_bookings"`
}

// Forecast is the projected bookings for a window starting at Start.
type Forecast struct {
	Start   string  `json:"start_date"`
	Days    []Day   `json:"forecast"`
	Summary Summary `json:"summary"`
}

// ParseStart parses a YYYY-MM-DD start date.
func ParseStart(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, apperr.Input("start_date is required")
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, apperr.Input("start_date must be YYYY-MM-DD, got %q", s)
	}
	return t, nil
}

// Features returns calendar features for days consecutive dates from start.
// day_of_week counts from Monday = 0 and week_of_year is the ISO week.
func Features(start time.Time, days int) []predictor.BookingFeatures {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	rows := make([]predictor.BookingFeatures, 0, days)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		_, week := d.ISOWeek()
		weekday := (int(d.Weekday()) + 6) % 7

		weekend := 0
		if weekday >= 5 {
			weekend = 1
		}

		rows = append(rows, predictor.BookingFeatures{
			Date:       d.Format(dateLayout),
			DayOfWeek:  weekday,
			WeekOfYear: week,
			Month:      int(d.Month()),
			Year:       d.Year(),
			Day:        d.Day(),
			IsWeekend:  weekend,
		})
	}
	return rows
}

// Forecaster runs booking forecasts.
type Forecaster struct {
	predictor    BookingPredictor
	averagePrice float64
}

// NewForecaster constructs a Forecaster. A non-positive averagePrice falls
// back to DefaultAveragePrice.
func NewForecaster(p BookingPredictor, averagePrice float64) *Forecaster {
	if averagePrice <= 0 {
		averagePrice = DefaultAveragePrice
	}
	return &Forecaster{predictor: p, averagePrice: averagePrice}
}

// Forecast projects bookings for the Days days starting at start.
// Predicted bookings are rounded half to even.
func (f *Forecaster) Forecast(ctx context.Context, start time.Time) (*Forecast, error) {
	rows := Features(start, Days)

	preds, err := f.predictor.PredictBookings(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("predicting bookings: %w", err)
	}
	if len(preds) != len(rows) {
		return nil, apperr.Predictor(fmt.Errorf("got %d booking predictions for %d days", len(preds), len(rows)))
	}

	out := &Forecast{
		Start: rows[0].Date,
		Days:  make([]Day, len(rows)),
	}
	bookings := make([]float64, len(rows))
	revenue := make([]float64, len(rows))
	for i, row := range rows {
		n := math.RoundToEven(preds[i])
		bookings[i] = n
		revenue[i] = n * f.averagePrice
		out.Days[i] = Day{Date: row.Date, Bookings: int(n), Revenue: revenue[i]}
	}

	out.Summary = Summary{
		TotalBookings:     int(floats.Sum(bookings)),
		TotalRevenue:      floats.Sum(revenue),
		MeanDailyBookings: stat.Mean(bookings, nil),
	}
	return out, nil
}
