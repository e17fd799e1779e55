package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/boardinghub/internal/api"
	"github.com/neexbeast/boardinghub/internal/apperr"
	"github.com/neexbeast/boardinghub/internal/catalog"
	"github.com/neexbeast/boardinghub/internal/forecast"
	"github.com/neexbeast/boardinghub/internal/predictor"
	"github.com/neexbeast/boardinghub/internal/pricing"
	"github.com/neexbeast/boardinghub/internal/search"
)

// ---- mock implementations ----

type mockSearcher struct {
	searchFn func(ctx context.Context, query string) ([]search.Result, error)
}

func (m *mockSearcher) Search(ctx context.Context, query string) ([]search.Result, error) {
	return m.searchFn(ctx, query)
}

type mockComposer struct {
	gotAttrs  pricing.Attributes
	composeFn func(ctx context.Context, attrs pricing.Attributes) (*pricing.Prediction, error)
}

func (m *mockComposer) Compose(ctx context.Context, attrs pricing.Attributes) (*pricing.Prediction, error) {
	m.gotAttrs = attrs
	return m.composeFn(ctx, attrs)
}

type mockForecaster struct {
	gotStart   time.Time
	forecastFn func(ctx context.Context, start time.Time) (*forecast.Forecast, error)
}

func (m *mockForecaster) Forecast(ctx context.Context, start time.Time) (*forecast.Forecast, error) {
	m.gotStart = start
	return m.forecastFn(ctx, start)
}

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// ---- helpers ----

const testToken = "secret-token"

var errModelDown = apperr.Predictor(errors.New("dial tcp: connection refused"))

type deps struct {
	searcher   *mockSearcher
	composer   *mockComposer
	forecaster *mockForecaster
	pingers    map[string]api.Pinger
	token      string
}

func newDeps() *deps {
	return &deps{
		searcher: &mockSearcher{
			searchFn: func(_ context.Context, _ string) ([]search.Result, error) { return []search.Result{}, nil },
		},
		composer: &mockComposer{
			composeFn: func(_ context.Context, _ pricing.Attributes) (*pricing.Prediction, error) {
				return samplePrediction(), nil
			},
		},
		forecaster: &mockForecaster{
			forecastFn: func(_ context.Context, _ time.Time) (*forecast.Forecast, error) {
				return &forecast.Forecast{Start: "2026-03-01"}, nil
			},
		},
		pingers: map[string]api.Pinger{"predictor": &mockPinger{}},
	}
}

func sampleCatalog(t *testing.T) *catalog.Snapshot {
	t.Helper()
	snap, err := catalog.NewSnapshot([]catalog.Record{
		{ID: "1", Location: "Campus Road", Price: 8000, Amenities: "WiFi, Parking"},
		{ID: "2", Location: "Kandy", Price: 15000, Amenities: "wifi, ac"},
		{ID: "3", Location: "Campus Gate", Price: 25000, Amenities: "wifi"},
		{ID: "4", Location: "Campus East", Price: 9000, Amenities: "kitchen"},
	})
	require.NoError(t, err)
	return snap
}

func samplePrediction() *pricing.Prediction {
	up := 20.04
	loc := 7.456
	return &pricing.Prediction{
		LastMonth: pricing.MonthPrice{
			HorizonPrice: pricing.HorizonPrice{PerPerson: 10400.004, Total: 20800.008},
			Season:       pricing.Season{Month: time.February, Factor: 1.024, Reason: pricing.SeasonalReason(time.February)},
		},
		Current: pricing.MonthPrice{
			HorizonPrice: pricing.HorizonPrice{PerPerson: 12480, Total: 24960},
			Season:       pricing.Season{Month: time.March, Factor: 0.9, Reason: pricing.SeasonalReason(time.March)},
			Change:       &up,
		},
		NextMonth: pricing.MonthPrice{
			HorizonPrice: pricing.HorizonPrice{PerPerson: 15600, Total: 31200},
			Season:       pricing.Season{Month: time.April, Factor: 1.1, Reason: pricing.SeasonalReason(time.April)},
		},
		NextYear:      pricing.HorizonPrice{PerPerson: 20800, Total: 41600},
		Range:         predictor.PriceRange{Min: 9000.456, Max: 16000},
		AmenityScore:  6.333,
		LocationScore: &loc,
		Location:      pricing.CategorizeDistance(1.5),
		Room:          pricing.RoomFactor{TotalPriceFactor: 1.6, PerPersonFactor: 0.8, MaxSharing: 2, Description: "Shared 2 (2 of 2 sharing)"},
	}
}

func (d *deps) router(t *testing.T) http.Handler {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	snap := sampleCatalog(t)
	handlers := api.NewHandlers(d.searcher, d.composer, d.forecaster, snap, log)
	health := api.HealthHandlerFunc(d.pingers, snap, log)
	return api.NewRouter(handlers, health, api.RouterOptions{
		Token:             d.token,
		AllowedOrigins:    []string{"*"},
		RequestsPerMinute: 1000,
	})
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	return got
}

// ---- POST /api/v1/search ----

func TestSearch_Success(t *testing.T) {
	d := newDeps()
	var gotQuery string
	d.searcher.searchFn = func(_ context.Context, q string) ([]search.Result, error) {
		gotQuery = q
		return []search.Result{{ID: "1", Location: "Campus Road", Amenities: []string{"wifi"}, Price: 8000, Score: 1}}, nil
	}

	w := do(t, d.router(t), http.MethodPost, "/api/v1/search", `{"query":"cheap room with wifi"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cheap room with wifi", gotQuery)
	got := decode(t, w)
	results := got["results"].([]any)
	require.Len(t, results, 1)
	first := results[0].(map[string]any)
	assert.Equal(t, "1", first["id"])
	assert.Equal(t, 1.0, first["score"])
	assert.Equal(t, false, first["ranked"])
	assert.NotContains(t, got, "error")
}

func TestSearch_EmptyQuery_400(t *testing.T) {
	d := newDeps()
	d.searcher.searchFn = func(_ context.Context, _ string) ([]search.Result, error) {
		return nil, apperr.Input("query must not be empty")
	}

	w := do(t, d.router(t), http.MethodPost, "/api/v1/search", `{"query":""}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	got := decode(t, w)
	assert.Equal(t, []any{}, got["results"])
	assert.Equal(t, "query must not be empty", got["error"])
}

func TestSearch_BadJSON_400(t *testing.T) {
	w := do(t, newDeps().router(t), http.MethodPost, "/api/v1/search", `{"query":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	got := decode(t, w)
	assert.Equal(t, []any{}, got["results"])
	assert.Equal(t, "invalid JSON body", got["error"])
}

func TestSearch_PredictorError_500_NoInternals(t *testing.T) {
	d := newDeps()
	d.searcher.searchFn = func(_ context.Context, _ string) ([]search.Result, error) { return nil, errModelDown }

	w := do(t, d.router(t), http.MethodPost, "/api/v1/search", `{"query":"q"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
	got := decode(t, w)
	assert.Equal(t, "internal server error", got["error"])
	assert.Equal(t, []any{}, got["results"])
}

// ---- POST /api/v1/pricing/predict ----

func TestPredictPrice_Success(t *testing.T) {
	d := newDeps()
	body := `{
		"room_type": "shared-2", "num_sharing": 2,
		"amenities": {"has_wifi": true},
		"location": {"distance_to_uni": 1.5},
		"reviews": {"overall_rating": 4}
	}`

	w := do(t, d.router(t), http.MethodPost, "/api/v1/pricing/predict", body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, pricing.RoomShared2, d.composer.gotAttrs.Amenities.RoomType)
	assert.Equal(t, 2, d.composer.gotAttrs.Amenities.NumSharing)
	assert.True(t, d.composer.gotAttrs.Amenities.HasWifi)
	assert.Equal(t, 1.5, d.composer.gotAttrs.Location.DistanceToUni)
	assert.Equal(t, 4.0, d.composer.gotAttrs.Reviews.OverallRating)

	got := decode(t, w)
	prices := got["predicted_prices"].(map[string]any)

	last := prices["last_month"].(map[string]any)
	assert.Equal(t, "February", last["month"])
	assert.Equal(t, 10400.0, last["price"])
	assert.Equal(t, 20800.01, last["total_room_price"])
	assert.Equal(t, 1.02, last["seasonal_factor"])
	assert.Equal(t, pricing.SeasonalReason(time.February), last["reason"])
	assert.NotContains(t, last, "change_from_last")

	current := prices["current"].(map[string]any)
	assert.Equal(t, 20.0, current["change_from_last"])

	next := prices["next_month"].(map[string]any)
	assert.Contains(t, next, "change_from_current")
	assert.Nil(t, next["change_from_current"])

	assert.Equal(t, 20800.0, prices["next_year_estimate"])
	assert.Equal(t, 41600.0, prices["next_year_total"])

	location := got["location_info"].(map[string]any)
	assert.Equal(t, "Premium Location", location["category"])
	assert.Equal(t, 1.3, location["factor"])

	room := got["room_info"].(map[string]any)
	assert.Equal(t, "Shared 2 (2 of 2 sharing)", room["description"])
	assert.Equal(t, 2.0, room["num_sharing"])

	assert.Equal(t, 6.33, got["amenity_score"])
	assert.Equal(t, 7.46, got["location_score"])
	assert.Equal(t, 0.0, got["review_score"])
	assert.Equal(t, []any{}, got["amenities_list"])
	assert.Equal(t, map[string]any{"min": 9000.46, "max": 16000.0}, got["recommended_range"])
}

func TestPredictPrice_ClientErrors_400_BeforeCompose(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"too many sharing", `{"room_type":"shared-2","num_sharing":3}`, "maximum 2 students allowed for shared-2"},
		{"unknown room", `{"room_type":"villa"}`, "invalid room type: villa"},
		{"bad distance", `{"location":{"distance_to_uni":"far"}}`, "distance_to_uni"},
		{"not an object", `[1,2]`, "invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDeps()
			called := false
			d.composer.composeFn = func(_ context.Context, _ pricing.Attributes) (*pricing.Prediction, error) {
				called = true
				return samplePrediction(), nil
			}

			w := do(t, d.router(t), http.MethodPost, "/api/v1/pricing/predict", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decode(t, w)["error"], tt.wantMsg)
			assert.False(t, called)
		})
	}
}

func TestPredictPrice_PredictorError_500(t *testing.T) {
	d := newDeps()
	d.composer.composeFn = func(_ context.Context, _ pricing.Attributes) (*pricing.Prediction, error) {
		return nil, errModelDown
	}

	w := do(t, d.router(t), http.MethodPost, "/api/v1/pricing/predict", `{}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, map[string]any{"error": "internal server error"}, decode(t, w))
}

// ---- POST /api/v1/forecast ----

func TestForecast_Success(t *testing.T) {
	d := newDeps()

	w := do(t, d.router(t), http.MethodPost, "/api/v1/forecast", `{"start_date":"2026-03-01"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), d.forecaster.gotStart)
	assert.Equal(t, "2026-03-01", decode(t, w)["start_date"])
}

func TestForecast_BadDate_400(t *testing.T) {
	for _, body := range []string{`{}`, `{"start_date":"March 1"}`} {
		w := do(t, newDeps().router(t), http.MethodPost, "/api/v1/forecast", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestForecast_PredictorError_500(t *testing.T) {
	d := newDeps()
	d.forecaster.forecastFn = func(_ context.Context, _ time.Time) (*forecast.Forecast, error) { return nil, errModelDown }

	w := do(t, d.router(t), http.MethodPost, "/api/v1/forecast", `{"start_date":"2026-03-01"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// ---- GET /api/v1/listings ----

func listingIDs(t *testing.T, w *httptest.ResponseRecorder) []string {
	t.Helper()
	var got struct {
		Count    int `json:"count"`
		Listings []struct {
			ID        string `json:"id"`
			PriceTier string `json:"price_tier"`
		} `json:"listings"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	ids := make([]string, 0, len(got.Listings))
	for _, l := range got.Listings {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, got.Count, len(ids))
	return ids
}

func TestListListings(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"all", "", []string{"1", "2", "3", "4"}},
		{"location", "?location=CAMPUS", []string{"1", "3", "4"}},
		{"location and tier", "?location=campus&tier=cheap", []string{"1", "4"}},
		{"amenities intersect", "?amenity=wifi&amenity=parking", []string{"1"}},
		{"no match", "?location=galle", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, newDeps().router(t), http.MethodGet, "/api/v1/listings"+tt.query, "")
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, listingIDs(t, w))
		})
	}
}

// ---- auth ----

func TestAuth_RequiredWhenTokenConfigured(t *testing.T) {
	d := newDeps()
	d.token = testToken
	router := d.router(t)

	w := do(t, router, http.MethodGet, "/api/v1/listings", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/listings", "", "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/listings", "", "Authorization", testToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/listings", "", "Authorization", "Bearer "+testToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code, "health must not require auth")
}

// ---- GET /api/v1/health ----

func TestHealth_AllOK(t *testing.T) {
	d := newDeps()
	d.pingers["db"] = &mockPinger{}

	w := do(t, d.router(t), http.MethodGet, "/api/v1/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Equal(t, "ok", got["status"])
	assert.Equal(t, map[string]any{"db": "ok", "predictor": "ok"}, got["checks"])
	assert.Equal(t, 4.0, got["catalog_size"])
}

func TestHealth_Degraded(t *testing.T) {
	d := newDeps()
	d.pingers["redis"] = &mockPinger{err: errors.New("connection refused")}

	w := do(t, d.router(t), http.MethodGet, "/api/v1/health", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	got := decode(t, w)
	assert.Equal(t, "degraded", got["status"])
	assert.Equal(t, map[string]any{"predictor": "ok", "redis": "error"}, got["checks"])
}
