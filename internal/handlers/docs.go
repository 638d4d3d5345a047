package handlers

import (
	"net/http"
	"strings"
)

// OpenAPISpec returns an OpenAPI 3.0 description of the registered routes
func (h *Handler) OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	paths := map[string]map[string]interface{}{}

	for _, rt := range h.routes() {
		op := map[string]interface{}{
			"summary":   rt.summary,
			"responses": responsesFor(rt),
		}
		if params := pathParameters(rt.path); len(params) > 0 {
			op["parameters"] = params
		}
		if rt.auth {
			op["security"] = []map[string][]string{{"bearerAuth": {}}}
		}

		if paths[rt.path] == nil {
			paths[rt.path] = map[string]interface{}{}
		}
		paths[rt.path][strings.ToLower(rt.method)] = op
	}

	paths["/metrics"] = map[string]interface{}{
		"get": map[string]interface{}{
			"summary": "Prometheus metrics",
			"responses": map[string]interface{}{
				"200": map[string]string{"description": "Prometheus metrics in text format"},
			},
		},
	}

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Climate Monitoring API",
			"description": "Operators, monitoring centers, cities and weather observations",
			"version":     "1.0.0",
		},
		"paths": paths,
		"components": map[string]interface{}{
			"securitySchemes": map[string]interface{}{
				"bearerAuth": map[string]string{"type": "http", "scheme": "bearer"},
			},
		},
	}

	h.sendJSON(w, spec, http.StatusOK)
}

func pathParameters(path string) []map[string]interface{} {
	var params []map[string]interface{}
	for _, segment := range strings.Split(path, "/") {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			params = append(params, map[string]interface{}{
				"name":     strings.Trim(segment, "{}"),
				"in":       "path",
				"required": true,
				"schema":   map[string]string{"type": "integer", "format": "int64"},
			})
		}
	}
	return params
}

func responsesFor(rt route) map[string]interface{} {
	success := "200"
	switch rt.method {
	case http.MethodPost:
		success = "201"
	case http.MethodDelete:
		success = "204"
	}
	if rt.path == "/api/operators/me/center" {
		success = "200"
	}

	responses := map[string]interface{}{
		success: map[string]string{"description": "Success"},
		"500":   map[string]string{"description": "Internal error"},
	}
	if rt.method != http.MethodGet || strings.Contains(rt.path, "{") || rt.path == "/api/cities" {
		responses["400"] = map[string]string{"description": "Validation error"}
	}
	if rt.auth {
		responses["401"] = map[string]string{"description": "Login required"}
		responses["409"] = map[string]string{"description": "Operator or center state conflict"}
	}
	return responses
}
