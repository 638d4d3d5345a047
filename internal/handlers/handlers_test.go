package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IlTetta/Climate-Monitoring-App/internal/models"
	"github.com/IlTetta/Climate-Monitoring-App/internal/repository/memory"
	"github.com/IlTetta/Climate-Monitoring-App/internal/services"
	"github.com/IlTetta/Climate-Monitoring-App/internal/session"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/logging"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/metrics"
)

type apiFixture struct {
	router  *mux.Router
	store   *memory.Store
	metrics *metrics.Collector
	health  *stubHealth
}

type stubHealth struct{ err error }

func (s *stubHealth) HealthCheck(ctx context.Context) error { return s.err }

func newAPI(t *testing.T) *apiFixture {
	t.Helper()

	store := memory.New()
	_, err := store.CreateCitiesBatch(context.Background(), []*models.City{
		{ID: 1, Name: "Milano", ASCIIName: "Milano", CountryCode: "IT", CountryName: "Italy", Latitude: 45.46427, Longitude: 9.18951},
		{ID: 2, Name: "Como", ASCIIName: "Como", CountryCode: "IT", CountryName: "Italy", Latitude: 45.80819, Longitude: 9.0832},
	})
	require.NoError(t, err)

	logger := logging.NewNopLogger()
	m := metrics.NewCollectorWithRegistry("test", prometheus.NewRegistry())
	health := &stubHealth{}

	h := NewHandler(
		services.NewOperatorService(store, logger, m),
		services.NewCenterService(store, logger, m),
		services.NewCityService(store, logger, m),
		session.NewManager(time.Hour, 0, clockwork.NewRealClock(), m),
		health,
		logger,
		m,
	)

	router := mux.NewRouter()
	h.RegisterRoutes(router)

	return &apiFixture{router: router, store: store, metrics: m, health: health}
}

func (a *apiFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

var registration = map[string]interface{}{
	"name_surname": "Mario Rossi",
	"tax_code":     "RSSMRA80A01F205X",
	"email":        "mario.rossi@example.com",
	"username":     "mrossi",
	"password":     "Password1!",
}

var lakeCenter = map[string]interface{}{
	"center_name":   "Centro Lario",
	"street":        "Via Roma",
	"street_number": "1",
	"postal_code":   "22100",
	"town":          "Como",
	"district":      "CO",
	"city_ids":      []int64{1, 2},
}

func (a *apiFixture) login(t *testing.T) string {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/api/operators", "", registration)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/api/sessions", "", map[string]string{"username": "mrossi", "password": "Password1!"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	return decode[loginResponse](t, rec).Session.Token
}

func TestRegisterAndLogin(t *testing.T) {
	api := newAPI(t)

	rec := api.do(t, http.MethodPost, "/api/operators", "", registration)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	op := decode[OperatorResponse](t, rec)
	assert.Equal(t, "mrossi", op.Username)

	rec = api.do(t, http.MethodPost, "/api/operators", "", registration)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "username", decode[ErrorResponse](t, rec).Field)

	rec = api.do(t, http.MethodPost, "/api/sessions", "", map[string]string{"username": "mrossi", "password": "Wrong#Pass1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/sessions", "", map[string]string{"username": "mrossi", "password": "Password1!"})
	require.Equal(t, http.StatusCreated, rec.Code)
	login := decode[loginResponse](t, rec)
	assert.NotEmpty(t, login.Session.Token)
	assert.Equal(t, op.ID, login.Operator.ID)

	rec = api.do(t, http.MethodDelete, "/api/sessions", login.Session.Token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodDelete, "/api/sessions", login.Session.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegister_ValidationError(t *testing.T) {
	api := newAPI(t)

	bad := map[string]interface{}{}
	for k, v := range registration {
		bad[k] = v
	}
	bad["email"] = "not-an-email"

	rec := api.do(t, http.MethodPost, "/api/operators", "", bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email", decode[ErrorResponse](t, rec).Field)

	rec = api.do(t, http.MethodPost, "/api/operators", "", map[string]string{"unexpected": "field"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCenterAndWeatherFlow(t *testing.T) {
	api := newAPI(t)
	token := api.login(t)

	rec := api.do(t, http.MethodPost, "/api/centers", "", lakeCenter)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/cities/1/weather", token, map[string]interface{}{
		"date":       "01/01/2024",
		"categories": map[string]interface{}{"wind": map[string]interface{}{"score": 3}},
	})
	assert.Equal(t, http.StatusConflict, rec.Code, "operator has no center yet")

	rec = api.do(t, http.MethodPost, "/api/centers", token, lakeCenter)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	center := decode[models.Center](t, rec)
	assert.Equal(t, []int64{1, 2}, center.CityIDs)

	rec = api.do(t, http.MethodPost, "/api/centers", token, lakeCenter)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/operators/me/center", token, map[string]int64{"center_id": center.ID})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/centers", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Center](t, rec), 1)

	for _, body := range []map[string]interface{}{
		{"date": "01/01/2024", "categories": map[string]interface{}{"wind": map[string]interface{}{"score": 2, "comment": "calm"}}},
		{"date": "02/01/2024", "categories": map[string]interface{}{"wind": map[string]interface{}{"score": 4}, "glacierMass": map[string]interface{}{"score": 1}}},
	} {
		rec = api.do(t, http.MethodPost, "/api/cities/1/weather", token, body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec = api.do(t, http.MethodPost, "/api/cities/1/weather", token, map[string]interface{}{
		"date":       "01/01/2024",
		"categories": map[string]interface{}{"wind": map[string]interface{}{"comment": "no score"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "data", decode[ErrorResponse](t, rec).Field)

	rec = api.do(t, http.MethodPost, "/api/cities/1/weather", token, map[string]interface{}{
		"date":       "01/01/2024",
		"categories": map[string]interface{}{"snow": map[string]interface{}{"score": 3}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "category", decode[ErrorResponse](t, rec).Field)

	rec = api.do(t, http.MethodGet, "/api/cities/1/summary", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[services.CitySummary](t, rec)
	assert.Equal(t, 2, summary.Records)
	require.NotNil(t, summary.Rows[models.Wind].AvgScore)
	assert.Equal(t, 3, *summary.Rows[models.Wind].AvgScore)
	assert.Equal(t, []string{"calm"}, summary.Rows[models.Wind].Comments)
	assert.Nil(t, summary.Rows[models.Humidity].AvgScore)

	rec = api.do(t, http.MethodGet, "/api/cities/1/summary?date=02/01/2024", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[services.CitySummary](t, rec).Records)

	rec = api.do(t, http.MethodGet, "/api/cities/2/summary", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAssociateCenter(t *testing.T) {
	api := newAPI(t)
	token := api.login(t)

	rec := api.do(t, http.MethodPost, "/api/operators/me/center", token, map[string]int64{"center_id": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/operators/me/center", token, map[string]int64{"center_id": 5})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(5), decode[OperatorResponse](t, rec).CenterID)

	rec = api.do(t, http.MethodPost, "/api/operators/me/center", token, map[string]int64{"center_id": 6})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCityLookups(t *testing.T) {
	api := newAPI(t)

	tests := []struct {
		name   string
		path   string
		status int
		count  int
	}{
		{"by name", "/api/cities?name=Como", http.StatusOK, 1},
		{"by name no match", "/api/cities?name=Atlantis", http.StatusOK, 0},
		{"by coordinates", "/api/cities?lat=45.46427&lon=9.18951", http.StatusOK, 1},
		{"bad latitude", "/api/cities?lat=north&lon=9.18951", http.StatusBadRequest, -1},
		{"no criteria", "/api/cities", http.StatusBadRequest, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodGet, tt.path, "", nil)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.count >= 0 {
				assert.Len(t, decode[[]models.City](t, rec), tt.count)
			}
		})
	}

	rec := api.do(t, http.MethodGet, "/api/cities/2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Como", decode[models.City](t, rec).Name)

	rec = api.do(t, http.MethodGet, "/api/cities/404", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/cities/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	api := newAPI(t)

	rec := api.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	api.health.err = errors.New("connection refused")
	rec = api.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMiddleware(t *testing.T) {
	api := newAPI(t)

	rec := api.do(t, http.MethodGet, "/api/cities/1", "", nil)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/cities/1", nil)
	req.Header.Set(RequestIDHeader, "4f1c7a52-9d2e-4b7a-8f43-6f1e2d3c4b5a")
	rec = httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	assert.Equal(t, "4f1c7a52-9d2e-4b7a-8f43-6f1e2d3c4b5a", rec.Header().Get(RequestIDHeader))

	assert.Equal(t, 2.0, testutil.ToFloat64(api.metrics.APIRequestsTotal.WithLabelValues("/api/cities/{id}", "GET", "200")))
}

func TestSendServiceError(t *testing.T) {
	api := newAPI(t)
	h := NewHandler(nil, nil, nil, nil, api.health, logging.NewNopLogger(), api.metrics)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", models.NewValidationError("date", "x", "bad date"), http.StatusBadRequest},
		{"duplicate center", models.ErrDuplicateCenter, http.StatusConflict},
		{"not associated", models.ErrNotAssociated, http.StatusConflict},
		{"session", session.ErrNotFound, http.StatusUnauthorized},
		{"storage", &models.StorageError{Op: "select", Err: errors.New("timeout")}, http.StatusServiceUnavailable},
		{"inconsistency", models.ErrInternalInconsistency, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.sendServiceError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.status, decode[ErrorResponse](t, rec).Code)
		})
	}
}

func TestOpenAPISpec(t *testing.T) {
	api := newAPI(t)

	rec := api.do(t, http.MethodGet, "/api/docs/openapi.json", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	spec := decode[map[string]interface{}](t, rec)
	paths, ok := spec["paths"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, paths, "/api/cities/{id}/weather")
	assert.Contains(t, paths, "/metrics")
}
