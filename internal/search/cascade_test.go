package search_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/boardinghub/internal/apperr"
	"github.com/neexbeast/boardinghub/internal/catalog"
	"github.com/neexbeast/boardinghub/internal/predictor"
	"github.com/neexbeast/boardinghub/internal/search"
)

type mockPredictor struct {
	calls            int
	gotQuery         string
	predictFiltersFn func(ctx context.Context, query string) (*predictor.FilterPrediction, error)
}

func (m *mockPredictor) PredictFilters(ctx context.Context, query string) (*predictor.FilterPrediction, error) {
	m.calls++
	m.gotQuery = query
	return m.predictFiltersFn(ctx, query)
}

func returning(p predictor.FilterPrediction) *mockPredictor {
	return &mockPredictor{
		predictFiltersFn: func(_ context.Context, _ string) (*predictor.FilterPrediction, error) { return &p, nil },
	}
}

func newSnapshot(t *testing.T) *catalog.Snapshot {
	t.Helper()
	snap, err := catalog.NewSnapshot([]catalog.Record{
		{ID: "1", Location: "Campus Road", Price: 8000, Amenities: "WiFi, Parking"},
		{ID: "2", Location: "Near Campus", Price: 9000, Amenities: "wifi"},
		{ID: "3", Location: "campus gate", Price: 15000, Amenities: "wifi, ac"},
		{ID: "4", Location: "Kandy", Price: 7000, Amenities: "wifi"},
		{ID: "5", Location: "Campus North", Price: 9500, Amenities: "kitchen"},
		{ID: "6", Location: "Campus East", Price: 5000, Amenities: "free wifi, ac"},
		{ID: "7", Location: "Campus West", Price: 6000, Amenities: "wifi, parking, ac"},
		{ID: "8", Location: "Campus South", Price: 6500, Amenities: "wifi"},
		{ID: "9", Location: "Campus Hill", Price: 4000, Amenities: "wifi"},
	})
	require.NoError(t, err)
	return snap
}

func ids(results []search.Result) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.ID)
	}
	return out
}

func TestApplyThreshold(t *testing.T) {
	f := search.ApplyThreshold(predictor.FilterPrediction{
		Location:           "Campus",
		PriceTier:          "cheap",
		AmenityConfidences: map[string]float64{"wifi": 0.9, "parking": 0.1, "ac": 0.3},
	})

	assert.Equal(t, "Campus", f.Location)
	assert.Equal(t, "cheap", f.PriceTier)
	assert.Equal(t, []string{"ac", "wifi"}, f.Amenities)
}

func TestApplyThreshold_NoAmenities(t *testing.T) {
	f := search.ApplyThreshold(predictor.FilterPrediction{Location: "x", PriceTier: "y"})
	assert.NotNil(t, f.Amenities)
	assert.Empty(t, f.Amenities)
}

func TestSearch_EmptyQuery_RejectedBeforePredictor(t *testing.T) {
	p := returning(predictor.FilterPrediction{})
	c := search.NewCascade(newSnapshot(t), p)

	_, err := c.Search(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, apperr.IsClientInput(err))
	assert.Zero(t, p.calls)
}

func TestSearch_LowercasesQuery(t *testing.T) {
	p := returning(predictor.FilterPrediction{Location: "campus", PriceTier: "cheap"})
	c := search.NewCascade(newSnapshot(t), p)

	_, err := c.Search(context.Background(), "  Cheap Apartment NEAR Campus ")
	require.NoError(t, err)
	assert.Equal(t, "cheap apartment near campus", p.gotQuery)
}

func TestSearch_ThresholdExcludesLowConfidenceAmenity(t *testing.T) {
	p := returning(predictor.FilterPrediction{
		Location:           "Campus",
		PriceTier:          "cheap",
		AmenityConfidences: map[string]float64{"wifi": 0.9, "parking": 0.1},
	})
	c := search.NewCascade(newSnapshot(t), p)

	results, err := c.Search(context.Background(), "cheap apartment near campus with wifi")
	require.NoError(t, err)

	// "parking" is below the threshold, so listings without parking still match.
	assert.Equal(t, []string{"1", "2", "6", "7", "8"}, ids(results))
}

func TestSearch_TruncatesToFirstFiveInCatalogOrder(t *testing.T) {
	p := returning(predictor.FilterPrediction{Location: "campus", PriceTier: "cheap"})
	c := search.NewCascade(newSnapshot(t), p)

	results, err := c.Search(context.Background(), "anything")
	require.NoError(t, err)
	require.Len(t, results, search.MaxResults)
	assert.Equal(t, []string{"1", "2", "5", "6", "7"}, ids(results))
}

func TestSearch_ResultsCarryUnrankedMarker(t *testing.T) {
	p := returning(predictor.FilterPrediction{Location: "campus road", PriceTier: "cheap"})
	c := search.NewCascade(newSnapshot(t), p)

	results, err := c.Search(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, "Campus Road", r.Location)
	assert.Equal(t, []string{"wifi", "parking"}, r.Amenities)
	assert.Equal(t, 8000.0, r.Price)
	assert.Equal(t, search.UnrankedScore, r.Score)
	assert.False(t, r.Ranked)
}

func TestSearch_NoMatches_EmptyNotError(t *testing.T) {
	p := returning(predictor.FilterPrediction{Location: "galle", PriceTier: "cheap"})
	c := search.NewCascade(newSnapshot(t), p)

	results, err := c.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearch_PredictorError_NoPartialResults(t *testing.T) {
	p := &mockPredictor{
		predictFiltersFn: func(_ context.Context, _ string) (*predictor.FilterPrediction, error) {
			return nil, apperr.Predictor(fmt.Errorf("model down"))
		},
	}
	c := search.NewCascade(newSnapshot(t), p)

	results, err := c.Search(context.Background(), "q")
	require.Error(t, err)
	assert.Nil(t, results)
	assert.True(t, errors.Is(err, apperr.ErrPredictor))
}

func TestFilter_AmenityChainIsMonotonic(t *testing.T) {
	entries := newSnapshot(t).Entries()
	chain := []string{"wifi", "ac", "parking", "pool"}

	prev := len(search.Filter(entries, search.PredictedFilters{Location: "campus", PriceTier: ""}))
	for i := range chain {
		f := search.PredictedFilters{Location: "campus", PriceTier: "", Amenities: chain[:i+1]}
		n := len(search.Filter(entries, f))
		assert.LessOrEqual(t, n, prev, "adding %q grew the result set", chain[i])
		prev = n
	}
	assert.Zero(t, prev)
}

func TestFilter_SubstringMatching(t *testing.T) {
	entries := newSnapshot(t).Entries()

	got := search.Filter(entries, search.PredictedFilters{Location: "CAMPUS EAST", PriceTier: "CHE", Amenities: []string{"WIFI"}})
	require.Len(t, got, 1)
	assert.Equal(t, "6", got[0].ID)
}
