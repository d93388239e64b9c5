package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/wildtrails/tours-api/internal/domain"
	"github.com/wildtrails/tours-api/internal/service"
)

// TourHandler covers the tour routes that fall outside plain CRUD:
// the canned top-5 listing, the aggregate reports and the radius search.
type TourHandler struct {
	tours *service.TourService
}

func NewTourHandler(tours *service.TourService) *TourHandler {
	return &TourHandler{tours: tours}
}

// AliasTopTours rewrites the query string to the fixed top-5-cheap
// shape and hands off to the regular listing. Client-supplied values
// for the aliased params are overridden.
func AliasTopTours(list http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values := r.URL.Query()
		values.Set("limit", "5")
		values.Set("sort", "-ratingsAverage,price")
		values.Set("fields", "name,price,ratingsAverage,summary,difficulty")
		r.URL.RawQuery = values.Encode()
		list(w, r)
	}
}

func (h *TourHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tours.Stats(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, stats)
}

func (h *TourHandler) MonthlyPlan(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		respondError(w, r, domain.BadRequest("invalid year"))
		return
	}
	plan, err := h.tours.MonthlyPlan(r.Context(), year)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, plan)
}

// Within handles /tours-within/{distance}/center/{latlng}/unit/{unit}.
func (h *TourHandler) Within(w http.ResponseWriter, r *http.Request) {
	distance, err := strconv.ParseFloat(chi.URLParam(r, "distance"), 64)
	if err != nil {
		respondError(w, r, domain.BadRequest("invalid distance"))
		return
	}

	latlng, err := url.PathUnescape(chi.URLParam(r, "latlng"))
	if err != nil {
		respondError(w, r, domain.BadRequest("please provide latitude and longitude in the format lat,lng"))
		return
	}
	parts := strings.Split(latlng, ",")
	if len(parts) != 2 {
		respondError(w, r, domain.BadRequest("please provide latitude and longitude in the format lat,lng"))
		return
	}
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, lngErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if latErr != nil || lngErr != nil {
		respondError(w, r, domain.BadRequest("please provide latitude and longitude in the format lat,lng"))
		return
	}

	tours, err := h.tours.Within(r.Context(), distance, lat, lng, chi.URLParam(r, "unit"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondList(w, len(tours), tours)
}
