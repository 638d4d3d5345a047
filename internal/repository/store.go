package repository

import (
	"context"
	"fmt"

	"github.com/IlTetta/Climate-Monitoring-App/internal/models"
)

// CityRepository provides access to the seeded city dataset
type CityRepository interface {
	// GetCity fails with *NotFoundError when id is unknown
	GetCity(ctx context.Context, id int64) (*models.City, error)
	FindCities(ctx context.Context, conditions ...models.Condition) ([]*models.City, error)
	// CreateCitiesBatch inserts cities, skipping ids already present, and
	// returns the number actually inserted
	CreateCitiesBatch(ctx context.Context, cities []*models.City) (int, error)
	UpdateCity(ctx context.Context, city *models.City) error
}

// OperatorRepository provides access to registered operators
type OperatorRepository interface {
	// GetOperator fails with *NotFoundError when id is unknown
	GetOperator(ctx context.Context, id int64) (*models.Operator, error)
	FindOperators(ctx context.Context, conditions ...models.Condition) ([]*models.Operator, error)
	// CreateOperator assigns op.ID; a taken username fails with models.ErrDuplicateUsername
	CreateOperator(ctx context.Context, op *models.Operator) error
	UpdateOperator(ctx context.Context, op *models.Operator) error
}

// CenterRepository provides access to monitoring centers
type CenterRepository interface {
	// GetCenter returns nil, nil when id is unknown
	GetCenter(ctx context.Context, id int64) (*models.Center, error)
	FindCenters(ctx context.Context, conditions ...models.Condition) ([]*models.Center, error)
	ListCenters(ctx context.Context) ([]*models.Center, error)
	// CreateCenter assigns c.ID; a taken address tuple fails with models.ErrDuplicateCenter
	CreateCenter(ctx context.Context, c *models.Center) error
	UpdateCenter(ctx context.Context, c *models.Center) error
}

// WeatherRepository provides access to append-only weather records
type WeatherRepository interface {
	// GetWeather fails with *NotFoundError when id is unknown
	GetWeather(ctx context.Context, id int64) (*models.Weather, error)
	// FindWeather returns matches in insertion order
	FindWeather(ctx context.Context, conditions ...models.Condition) ([]*models.Weather, error)
	CreateWeather(ctx context.Context, w *models.Weather) error
}

// Repositories groups the per-entity repositories
type Repositories interface {
	CityRepository
	OperatorRepository
	CenterRepository
	WeatherRepository
}

// Store is the record store used by the services
type Store interface {
	Repositories

	// WithinTx runs fn against a transactional view of the store. All writes
	// made through tx are discarded when fn returns an error.
	WithinTx(ctx context.Context, fn func(tx Repositories) error) error

	HealthCheck(ctx context.Context) error
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
