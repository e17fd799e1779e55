package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/neexbeast/boardinghub/internal/apperr"
	"github.com/neexbeast/boardinghub/internal/catalog"
	"github.com/neexbeast/boardinghub/internal/forecast"
	"github.com/neexbeast/boardinghub/internal/pricing"
	"github.com/neexbeast/boardinghub/internal/search"
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	search   Searcher
	pricing  PriceComposer
	forecast BookingForecaster
	catalog  ListingCatalog
	log      *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(s Searcher, p PriceComposer, f BookingForecaster, c ListingCatalog, log *slog.Logger) *Handlers {
	return &Handlers{
		search:   s,
		pricing:  p,
		forecast: f,
		catalog:  c,
		log:      log,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// status maps err to a response code and a caller-safe message.
// Only client input errors are echoed back.
func (h *Handlers) status(r *http.Request, op string, err error) (int, string) {
	if apperr.IsClientInput(err) {
		return http.StatusBadRequest, err.Error()
	}
	h.log.Error(op+" failed", "err", err, "request_id", middleware.GetReqID(r.Context()))
	return http.StatusInternalServerError, "internal server error"
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	code, msg := h.status(r, op, err)
	writeJSON(w, code, errorResponse{Error: msg})
}

// decodeBody decodes a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Input("request body too large")
		}
		return apperr.Input("invalid JSON body")
	}
	return nil
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchResponse struct {
	Results []search.Result `json:"results"`
	Error   string          `json:"error,omitempty"`
}

// Search handles POST /api/v1/search.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, searchResponse{Results: []search.Result{}, Error: err.Error()})
		return
	}

	results, err := h.search.Search(r.Context(), req.Query)
	if err != nil {
		code, msg := h.status(r, "search", err)
		writeJSON(w, code, searchResponse{Results: []search.Result{}, Error: msg})
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

// PredictPrice handles POST /api/v1/pricing/predict.
func (h *Handlers) PredictPrice(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, "predict price", err)
		return
	}

	attrs, unknown, err := pricing.ParseAttributes(body)
	if err != nil {
		h.writeError(w, r, "predict price", err)
		return
	}
	if len(unknown) > 0 {
		h.log.Debug("ignoring unknown pricing attributes", "keys", unknown)
	}

	prediction, err := h.pricing.Compose(r.Context(), attrs)
	if err != nil {
		h.writeError(w, r, "predict price", err)
		return
	}

	writeJSON(w, http.StatusOK, newPriceResponse(attrs, prediction))
}

type forecastRequest struct {
	StartDate string `json:"start_date"`
}

// Forecast handles POST /api/v1/forecast.
func (h *Handlers) Forecast(w http.ResponseWriter, r *http.Request) {
	var req forecastRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, "forecast", err)
		return
	}

	start, err := forecast.ParseStart(req.StartDate)
	if err != nil {
		h.writeError(w, r, "forecast", err)
		return
	}

	out, err := h.forecast.Forecast(r.Context(), start)
	if err != nil {
		h.writeError(w, r, "forecast", err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}

type listingsResponse struct {
	Count    int             `json:"count"`
	Listings []catalog.Entry `json:"listings"`
}

// ListListings handles GET /api/v1/listings?location=&tier=&amenity=.
// Filters are case-insensitive substrings and are intersected; results keep
// catalog order.
func (h *Handlers) ListListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var sets [][]catalog.Entry
	if v := strings.TrimSpace(q.Get("location")); v != "" {
		sets = append(sets, h.catalog.ByLocation(v))
	}
	if v := strings.TrimSpace(q.Get("tier")); v != "" {
		sets = append(sets, h.catalog.ByTier(v))
	}
	for _, v := range q["amenity"] {
		if v = strings.TrimSpace(v); v != "" {
			sets = append(sets, h.catalog.ByAmenity(v))
		}
	}

	var listings []catalog.Entry
	if len(sets) == 0 {
		listings = h.catalog.Entries()
	} else {
		listings = intersect(sets)
	}

	writeJSON(w, http.StatusOK, listingsResponse{Count: len(listings), Listings: listings})
}

// intersect keeps the entries of sets[0] whose IDs appear in every other set.
func intersect(sets [][]catalog.Entry) []catalog.Entry {
	out := make([]catalog.Entry, 0, len(sets[0]))
outer:
	for _, e := range sets[0] {
		for _, s := range sets[1:] {
			if !containsID(s, e.ID) {
				continue outer
			}
		}
		out = append(out, e)
	}
	return out
}

func containsID(entries []catalog.Entry, id string) bool {
	for _, e := range entries {
		if e.ID == id {
			return true
		}
	}
	return false
}
