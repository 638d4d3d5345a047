package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/IlTetta/Climate-Monitoring-App/internal/models"
	"github.com/IlTetta/Climate-Monitoring-App/internal/repository"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/logging"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/metrics"
)

// CenterService handles monitoring center creation and weather submissions
type CenterService struct {
	store   repository.Store
	logger  *logging.ContextLogger
	metrics *metrics.Collector
}

// NewCenter carries the fields of a center being created
type NewCenter struct {
	CenterName   string  `json:"center_name"`
	Street       string  `json:"street"`
	StreetNumber string  `json:"street_number"`
	PostalCode   string  `json:"postal_code"`
	Town         string  `json:"town"`
	District     string  `json:"district"`
	CityIDs      []int64 `json:"city_ids"`
}

// NewCenterService creates a new center service
func NewCenterService(store repository.Store, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *CenterService {
	return &CenterService{
		store:   store,
		logger:  logger.WithFields(logging.Fields{"component": "center_service"}),
		metrics: metricsCollector,
	}
}

// InitNewCenter creates a center and binds the requesting operator to it.
// The center insert and the operator update commit together: if the operator
// cannot be bound, the center is not kept.
func (s *CenterService) InitNewCenter(ctx context.Context, req NewCenter, operatorID int64) (*models.Center, error) {
	ctx = logging.WithOperatorID(ctx, operatorID)

	fields := []struct{ key, value string }{
		{models.CenterFieldCenterName, req.CenterName},
		{models.CenterFieldStreet, req.Street},
		{models.CenterFieldStreetNumber, req.StreetNumber},
		{models.CenterFieldPostalCode, req.PostalCode},
		{models.CenterFieldTown, req.Town},
		{models.CenterFieldDistrict, req.District},
	}
	for _, f := range fields {
		if err := requireNotBlank(f.key, f.value); err != nil {
			return nil, err
		}
	}

	if err := s.validateCities(ctx, req.CityIDs); err != nil {
		return nil, err
	}

	center := &models.Center{
		CenterName:   req.CenterName,
		Street:       req.Street,
		StreetNumber: req.StreetNumber,
		PostalCode:   req.PostalCode,
		Town:         req.Town,
		District:     req.District,
		CityIDs:      append([]int64(nil), req.CityIDs...),
	}

	err := s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		existing, err := tx.FindCenters(ctx, center.IdentityConditions()...)
		if err != nil {
			return fmt.Errorf("failed to check center: %w", err)
		}
		if len(existing) > 0 {
			return fmt.Errorf("center %q: %w", center.CenterName, models.ErrDuplicateCenter)
		}

		if err := tx.CreateCenter(ctx, center); err != nil {
			return err
		}

		op, err := tx.GetOperator(ctx, operatorID)
		if err != nil {
			return err
		}
		if op.HasCenter() {
			return fmt.Errorf("operator %d: %w", operatorID, models.ErrAlreadyAssociated)
		}

		return tx.UpdateOperator(ctx, op.WithCenter(center.ID))
	})
	if err != nil {
		s.logCreateFailure(ctx, center, err)
		return nil, err
	}

	s.metrics.CentersCreatedTotal.Inc()
	s.logger.Info(ctx, "[CENTER_CREATED] Center created and operator bound", logging.Fields{
		"center_id":   center.ID,
		"center_name": center.CenterName,
		"city_count":  len(center.CityIDs),
	})

	return center, nil
}

func (s *CenterService) logCreateFailure(ctx context.Context, center *models.Center, err error) {
	fields := logging.Fields{"center_name": center.CenterName}

	var nf *repository.NotFoundError
	switch {
	case errors.Is(err, models.ErrDuplicateCenter), errors.Is(err, models.ErrAlreadyAssociated), errors.As(err, &nf):
		s.logger.Warn(ctx, "[CENTER_REJECTED] Center not created", fields, err)
	default:
		// the center insert, if it happened, was rolled back with the transaction
		s.logger.Error(ctx, "[CENTER_ROLLBACK] Center creation rolled back", fields, err)
	}
}

func (s *CenterService) validateCities(ctx context.Context, cityIDs []int64) error {
	if len(cityIDs) == 0 {
		return models.NewValidationError(FieldCity, "", "at least one city is required")
	}

	for _, id := range cityIDs {
		invalid := models.NewValidationError(FieldCity, strconv.FormatInt(id, 10), fmt.Sprintf("unknown city %d", id))
		if id <= 0 {
			return invalid
		}

		if _, err := s.store.GetCity(ctx, id); err != nil {
			var nf *repository.NotFoundError
			if errors.As(err, &nf) {
				return invalid
			}
			return fmt.Errorf("failed to look up city %d: %w", id, err)
		}
	}

	return nil
}

// AddDataToCenter appends one weather record for cityID on behalf of the
// operator's center. date uses the dd/MM/yyyy format; rows are ordered as
// models.Categories and at least one must carry a score.
func (s *CenterService) AddDataToCenter(ctx context.Context, cityID, operatorID int64, date string, rows [models.NumCategories]models.CategoryEntry) (*models.Weather, error) {
	ctx = logging.WithOperatorID(ctx, operatorID)

	op, err := s.store.GetOperator(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	if !op.HasCenter() {
		s.metrics.RecordWeatherRejected("not_associated")
		return nil, fmt.Errorf("operator %d: %w", operatorID, models.ErrNotAssociated)
	}

	if err := requireNotBlank(FieldDate, date); err != nil {
		s.metrics.RecordWeatherRejected("date")
		return nil, err
	}
	day, err := models.ParseDate(date)
	if err != nil {
		s.metrics.RecordWeatherRejected("date")
		return nil, err
	}

	record := &models.Weather{
		CityID:    cityID,
		CenterID:  op.CenterID,
		Date:      day,
		CreatedAt: clock.Now().UTC(),
	}
	for _, c := range models.Categories() {
		entry, err := normalizeEntry(c, rows[c])
		if err != nil {
			s.metrics.RecordWeatherRejected("entry")
			return nil, err
		}
		record.Categories[c] = entry
	}

	if !record.HasObservation() {
		s.metrics.RecordWeatherRejected("no_scores")
		return nil, models.NewValidationError(FieldData, "", "at least one category score is required")
	}

	if _, err := s.store.GetCity(ctx, cityID); err != nil {
		var nf *repository.NotFoundError
		if errors.As(err, &nf) {
			s.metrics.RecordWeatherRejected("city")
			return nil, models.NewValidationError(FieldCity, strconv.FormatInt(cityID, 10), fmt.Sprintf("unknown city %d", cityID))
		}
		return nil, fmt.Errorf("failed to look up city %d: %w", cityID, err)
	}

	if err := s.store.CreateWeather(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store weather record: %w", err)
	}

	s.metrics.WeatherRecordsTotal.Inc()
	s.logger.Info(ctx, "[WEATHER_ADDED] Weather record stored", logging.Fields{
		"weather_id": record.ID,
		"city_id":    cityID,
		"center_id":  record.CenterID,
		"date":       record.DisplayDate(),
	})

	return record, nil
}

// ListCenters returns every center, for registration and association pickers
func (s *CenterService) ListCenters(ctx context.Context) ([]*models.Center, error) {
	return s.store.ListCenters(ctx)
}

// GetCenter retrieves a center, failing with NotFound when absent
func (s *CenterService) GetCenter(ctx context.Context, centerID int64) (*models.Center, error) {
	center, err := s.store.GetCenter(ctx, centerID)
	if err != nil {
		return nil, err
	}
	if center == nil {
		return nil, &repository.NotFoundError{Resource: "center", ID: strconv.FormatInt(centerID, 10)}
	}
	return center, nil
}

// CitiesOfCenter resolves the cities a center covers, in the center's order
func (s *CenterService) CitiesOfCenter(ctx context.Context, centerID int64) ([]*models.City, error) {
	center, err := s.GetCenter(ctx, centerID)
	if err != nil {
		return nil, err
	}

	cities := make([]*models.City, 0, len(center.CityIDs))
	for _, id := range center.CityIDs {
		city, err := s.store.GetCity(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("center %d references city %d: %w", centerID, id, err)
		}
		cities = append(cities, city)
	}

	return cities, nil
}
