package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

type route struct {
	method  string
	path    string
	summary string
	auth    bool
	handler http.HandlerFunc
}

func (h *Handler) routes() []route {
	return []route{
		{http.MethodPost, "/api/operators", "Register an operator", false, h.Register},
		{http.MethodPost, "/api/sessions", "Log in and obtain a session token", false, h.Login},
		{http.MethodDelete, "/api/sessions", "Log out", true, h.Logout},
		{http.MethodPost, "/api/operators/me/center", "Bind the logged-in operator to an existing center", true, h.AssociateCenter},
		{http.MethodGet, "/api/centers", "List monitoring centers", false, h.ListCenters},
		{http.MethodPost, "/api/centers", "Create a center and bind the logged-in operator to it", true, h.CreateCenter},
		{http.MethodGet, "/api/cities", "Search cities by name or by exact coordinates", false, h.SearchCities},
		{http.MethodGet, "/api/cities/{id}", "Get a city", false, h.GetCity},
		{http.MethodPost, "/api/cities/{id}/weather", "Submit a weather record for a city", true, h.AddWeather},
		{http.MethodGet, "/api/cities/{id}/summary", "Per-category summary of a city's weather records", false, h.GetSummary},
		{http.MethodGet, "/health", "Health check", false, h.HealthCheck},
		{http.MethodGet, "/api/docs/openapi.json", "OpenAPI description of this API", false, h.OpenAPISpec},
	}
}

// RegisterRoutes registers all API routes and their middleware
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.Use(RequestID, Instrument(h.metrics, h.logger))

	for _, rt := range h.routes() {
		router.HandleFunc(rt.path, rt.handler).Methods(rt.method)
	}
}
