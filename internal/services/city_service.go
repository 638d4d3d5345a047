package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/IlTetta/Climate-Monitoring-App/internal/models"
	"github.com/IlTetta/Climate-Monitoring-App/internal/repository"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/logging"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/metrics"
)

// CityService handles city lookups and weather summaries
type CityService struct {
	store   repository.Store
	logger  *logging.ContextLogger
	metrics *metrics.Collector
}

// CitySummary is the per-category view of every record stored for a city
type CitySummary struct {
	City    *models.City             `json:"city"`
	Records int                      `json:"records"`
	Rows    []models.CategorySummary `json:"categories"`
}

// NewCityService creates a new city service
func NewCityService(store repository.Store, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *CityService {
	return &CityService{
		store:   store,
		logger:  logger.WithFields(logging.Fields{"component": "city_service"}),
		metrics: metricsCollector,
	}
}

// GetCity retrieves a city by ID
func (s *CityService) GetCity(ctx context.Context, cityID int64) (*models.City, error) {
	return s.store.GetCity(ctx, cityID)
}

// SearchByName returns the cities whose name matches exactly
func (s *CityService) SearchByName(ctx context.Context, name string) ([]*models.City, error) {
	name = strings.TrimSpace(name)
	if err := requireNotBlank(FieldName, name); err != nil {
		return nil, err
	}
	return s.store.FindCities(ctx, models.NewCondition(models.CityFieldName, name))
}

// SearchByCoordinates returns the cities located exactly at lat, lon
func (s *CityService) SearchByCoordinates(ctx context.Context, lat, lon float64) ([]*models.City, error) {
	if lat < -90 || lat > 90 {
		return nil, models.NewValidationError(models.CityFieldLatitude, strconv.FormatFloat(lat, 'f', -1, 64), "latitude must be between -90 and 90")
	}
	if lon < -180 || lon > 180 {
		return nil, models.NewValidationError(models.CityFieldLongitude, strconv.FormatFloat(lon, 'f', -1, 64), "longitude must be between -180 and 180")
	}
	return s.store.FindCities(ctx,
		models.NewCondition(models.CityFieldLatitude, lat),
		models.NewCondition(models.CityFieldLongitude, lon),
	)
}

// WeatherSummary aggregates every weather record stored for cityID
func (s *CityService) WeatherSummary(ctx context.Context, cityID int64) (*CitySummary, error) {
	return s.summarize(ctx, cityID, models.NewCondition(models.WeatherFieldCityID, cityID))
}

// WeatherSummaryOn aggregates the records stored for cityID on a single day
func (s *CityService) WeatherSummaryOn(ctx context.Context, cityID int64, day time.Time) (*CitySummary, error) {
	return s.summarize(ctx, cityID,
		models.NewCondition(models.WeatherFieldCityID, cityID),
		models.NewCondition(models.WeatherFieldDate, day),
	)
}

func (s *CityService) summarize(ctx context.Context, cityID int64, conds ...models.Condition) (*CitySummary, error) {
	timer := s.metrics.NewTimer(s.metrics.SummaryDuration)
	defer timer.ObserveDuration()

	city, err := s.store.GetCity(ctx, cityID)
	if err != nil {
		return nil, err
	}

	records, err := s.store.FindWeather(ctx, conds...)
	if err != nil {
		return nil, fmt.Errorf("failed to load weather for city %d: %w", cityID, err)
	}
	if len(records) == 0 {
		return nil, &repository.NotFoundError{Resource: "weather", ID: strconv.FormatInt(cityID, 10)}
	}

	summary, err := models.SummarizeWeather(records)
	if err != nil {
		return nil, err
	}
	s.metrics.SummaryRecordsPerCall.Observe(float64(summary.Records()))

	s.logger.Debug(ctx, "[SUMMARY_BUILT] Weather summary computed", logging.Fields{
		"city_id": cityID,
		"records": summary.Records(),
	})

	return &CitySummary{
		City:    city,
		Records: summary.Records(),
		Rows:    summary.Rows(),
	}, nil
}
