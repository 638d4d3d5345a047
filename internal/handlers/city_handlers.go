package handlers

import (
	"net/http"
	"strconv"

	"github.com/IlTetta/Climate-Monitoring-App/internal/models"
)

// SearchCities handles GET /api/cities?name= and GET /api/cities?lat=&lon=
func (h *Handler) SearchCities(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var (
		cities []*models.City
		err    error
	)

	switch {
	case query.Get("name") != "":
		cities, err = h.cities.SearchByName(r.Context(), query.Get("name"))
	case query.Get("lat") != "" || query.Get("lon") != "":
		lat, latErr := strconv.ParseFloat(query.Get("lat"), 64)
		if latErr != nil {
			h.sendServiceError(w, r, models.NewValidationError(models.CityFieldLatitude, query.Get("lat"), "lat must be a decimal number"))
			return
		}
		lon, lonErr := strconv.ParseFloat(query.Get("lon"), 64)
		if lonErr != nil {
			h.sendServiceError(w, r, models.NewValidationError(models.CityFieldLongitude, query.Get("lon"), "lon must be a decimal number"))
			return
		}
		cities, err = h.cities.SearchByCoordinates(r.Context(), lat, lon)
	default:
		h.sendServiceError(w, r, models.NewValidationError("name", "", "provide name or lat and lon"))
		return
	}

	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}
	if cities == nil {
		cities = []*models.City{}
	}

	h.sendJSON(w, cities, http.StatusOK)
}

// GetCity handles GET /api/cities/{id}
func (h *Handler) GetCity(w http.ResponseWriter, r *http.Request) {
	cityID, err := pathID(r, "id")
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	city, err := h.cities.GetCity(r.Context(), cityID)
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	h.sendJSON(w, city, http.StatusOK)
}

// GetSummary handles GET /api/cities/{id}/summary, optionally narrowed with ?date=dd/MM/yyyy
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	cityID, err := pathID(r, "id")
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	if date := r.URL.Query().Get("date"); date != "" {
		day, err := models.ParseDate(date)
		if err != nil {
			h.sendServiceError(w, r, err)
			return
		}
		summary, err := h.cities.WeatherSummaryOn(r.Context(), cityID, day)
		if err != nil {
			h.sendServiceError(w, r, err)
			return
		}
		h.sendJSON(w, summary, http.StatusOK)
		return
	}

	summary, err := h.cities.WeatherSummary(r.Context(), cityID)
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	h.sendJSON(w, summary, http.StatusOK)
}
