package handlers

import (
	"net/http"

	"github.com/IlTetta/Climate-Monitoring-App/internal/models"
	"github.com/IlTetta/Climate-Monitoring-App/internal/services"
)

// weatherRequest is a submission keyed by category name, e.g. "wind" or "glacierMass"
type weatherRequest struct {
	Date       string                          `json:"date"`
	Categories map[string]models.CategoryEntry `json:"categories"`
}

func (req weatherRequest) rows() ([models.NumCategories]models.CategoryEntry, error) {
	var rows [models.NumCategories]models.CategoryEntry
	for key, entry := range req.Categories {
		c, err := models.ParseCategory(key)
		if err != nil {
			return rows, err
		}
		rows[c] = entry
	}
	return rows, nil
}

// ListCenters handles GET /api/centers
func (h *Handler) ListCenters(w http.ResponseWriter, r *http.Request) {
	centers, err := h.centers.ListCenters(r.Context())
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}
	if centers == nil {
		centers = []*models.Center{}
	}

	h.sendJSON(w, centers, http.StatusOK)
}

// CreateCenter handles POST /api/centers
func (h *Handler) CreateCenter(w http.ResponseWriter, r *http.Request) {
	s, r, err := h.currentSession(r)
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	var req services.NewCenter
	if err := decodeJSON(r, &req); err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	center, err := h.centers.InitNewCenter(r.Context(), req, s.OperatorID)
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	h.refreshSessionCenter(r, s.Token, center.ID)
	h.sendJSON(w, center, http.StatusCreated)
}

// AddWeather handles POST /api/cities/{id}/weather
func (h *Handler) AddWeather(w http.ResponseWriter, r *http.Request) {
	s, r, err := h.currentSession(r)
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	cityID, err := pathID(r, "id")
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	var req weatherRequest
	if err := decodeJSON(r, &req); err != nil {
		h.sendServiceError(w, r, err)
		return
	}
	rows, err := req.rows()
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	record, err := h.centers.AddDataToCenter(r.Context(), cityID, s.OperatorID, req.Date, rows)
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	h.sendJSON(w, record, http.StatusCreated)
}
