package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/IlTetta/Climate-Monitoring-App/internal/models"
	"github.com/IlTetta/Climate-Monitoring-App/internal/query"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/database"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/logging"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/metrics"
)

const (
	cityBatchSize = 1000
	sqlDateLayout = "2006-01-02"
)

var (
	cityColumns = query.Columns{
		models.CityFieldID:          "id",
		models.CityFieldName:        "name",
		models.CityFieldASCIIName:   "ascii_name",
		models.CityFieldCountryCode: "country_code",
		models.CityFieldCountryName: "country_name",
		models.CityFieldLatitude:    "latitude",
		models.CityFieldLongitude:   "longitude",
	}

	operatorColumns = query.Columns{
		models.OperatorFieldID:          "id",
		models.OperatorFieldNameSurname: "name_surname",
		models.OperatorFieldTaxCode:     "tax_code",
		models.OperatorFieldEmail:       "email",
		models.OperatorFieldUsername:    "username",
		models.OperatorFieldPassword:    "password",
		models.OperatorFieldCenterID:    "center_id",
	}

	centerColumns = query.Columns{
		models.CenterFieldID:           "id",
		models.CenterFieldCenterName:   "center_name",
		models.CenterFieldStreet:       "street",
		models.CenterFieldStreetNumber: "street_number",
		models.CenterFieldPostalCode:   "postal_code",
		models.CenterFieldTown:         "town",
		models.CenterFieldDistrict:     "district",
	}

	weatherColumns = query.Columns{
		models.WeatherFieldID:       "id",
		models.WeatherFieldCityID:   "city_id",
		models.WeatherFieldCenterID: "center_id",
		models.WeatherFieldDate:     "observed_on",
	}
)

const (
	citySelect = `
		SELECT id, name, ascii_name, country_code, country_name, latitude, longitude
		FROM cities`

	operatorSelect = `
		SELECT id, name_surname, tax_code, email, username, password, center_id, created_at
		FROM operators`

	centerSelect = `
		SELECT id, center_name, street, street_number, postal_code, town, district, city_ids
		FROM centers`

	weatherSelect = `
		SELECT id, city_id, center_id, observed_on,
		       wind_score, wind_comment,
		       humidity_score, humidity_comment,
		       pressure_score, pressure_comment,
		       temperature_score, temperature_comment,
		       precipitation_score, precipitation_comment,
		       glacier_elevation_score, glacier_elevation_comment,
		       glacier_mass_score, glacier_mass_comment,
		       created_at
		FROM weather_records`
)

type centerRow struct {
	ID           int64         `db:"id"`
	CenterName   string        `db:"center_name"`
	Street       string        `db:"street"`
	StreetNumber string        `db:"street_number"`
	PostalCode   string        `db:"postal_code"`
	Town         string        `db:"town"`
	District     string        `db:"district"`
	CityIDs      pq.Int64Array `db:"city_ids"`
}

func (r *centerRow) toModel() *models.Center {
	cityIDs := make([]int64, len(r.CityIDs))
	copy(cityIDs, r.CityIDs)

	return &models.Center{
		ID:           r.ID,
		CenterName:   r.CenterName,
		Street:       r.Street,
		StreetNumber: r.StreetNumber,
		PostalCode:   r.PostalCode,
		Town:         r.Town,
		District:     r.District,
		CityIDs:      cityIDs,
	}
}

type weatherRow struct {
	ID                      int64     `db:"id"`
	CityID                  int64     `db:"city_id"`
	CenterID                int64     `db:"center_id"`
	ObservedOn              time.Time `db:"observed_on"`
	WindScore               *int      `db:"wind_score"`
	WindComment             *string   `db:"wind_comment"`
	HumidityScore           *int      `db:"humidity_score"`
	HumidityComment         *string   `db:"humidity_comment"`
	PressureScore           *int      `db:"pressure_score"`
	PressureComment         *string   `db:"pressure_comment"`
	TemperatureScore        *int      `db:"temperature_score"`
	TemperatureComment      *string   `db:"temperature_comment"`
	PrecipitationScore      *int      `db:"precipitation_score"`
	PrecipitationComment    *string   `db:"precipitation_comment"`
	GlacierElevationScore   *int      `db:"glacier_elevation_score"`
	GlacierElevationComment *string   `db:"glacier_elevation_comment"`
	GlacierMassScore        *int      `db:"glacier_mass_score"`
	GlacierMassComment      *string   `db:"glacier_mass_comment"`
	CreatedAt               time.Time `db:"created_at"`
}

func (r *weatherRow) toModel() *models.Weather {
	w := &models.Weather{
		ID:        r.ID,
		CityID:    r.CityID,
		CenterID:  r.CenterID,
		Date:      models.TruncateDay(r.ObservedOn),
		CreatedAt: r.CreatedAt,
	}
	w.Categories[models.Wind] = models.CategoryEntry{Score: r.WindScore, Comment: r.WindComment}
	w.Categories[models.Humidity] = models.CategoryEntry{Score: r.HumidityScore, Comment: r.HumidityComment}
	w.Categories[models.Pressure] = models.CategoryEntry{Score: r.PressureScore, Comment: r.PressureComment}
	w.Categories[models.Temperature] = models.CategoryEntry{Score: r.TemperatureScore, Comment: r.TemperatureComment}
	w.Categories[models.Precipitation] = models.CategoryEntry{Score: r.PrecipitationScore, Comment: r.PrecipitationComment}
	w.Categories[models.GlacierElevation] = models.CategoryEntry{Score: r.GlacierElevationScore, Comment: r.GlacierElevationComment}
	w.Categories[models.GlacierMass] = models.CategoryEntry{Score: r.GlacierMassScore, Comment: r.GlacierMassComment}
	return w
}

// postgresRepositories implements Repositories over a pool or a transaction
type postgresRepositories struct {
	q       database.Querier
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// postgresStore implements Store
type postgresStore struct {
	*postgresRepositories
	db *database.PostgresDB
}

// NewPostgresStore creates a record store backed by PostgreSQL
func NewPostgresStore(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) Store {
	return &postgresStore{
		postgresRepositories: &postgresRepositories{
			q:       db,
			logger:  logger,
			metrics: metricsCollector,
		},
		db: db,
	}
}

// WithinTx runs fn inside a database transaction
func (s *postgresStore) WithinTx(ctx context.Context, fn func(tx Repositories) error) error {
	var fnErr error
	err := s.db.WithTx(ctx, func(q database.Querier) error {
		fnErr = fn(&postgresRepositories{q: q, logger: s.logger, metrics: s.metrics})
		return fnErr
	})
	if err != nil && fnErr == nil {
		return storageError("transaction", err)
	}
	return err
}

// HealthCheck performs a repository health check
func (s *postgresStore) HealthCheck(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

func storageError(op string, err error) error {
	return &models.StorageError{Op: op, Err: err}
}

func notFound(resource string, id int64) error {
	return &NotFoundError{Resource: resource, ID: strconv.FormatInt(id, 10)}
}

// where renders conditions against columns; validation failures pass through unchanged
func where(columns query.Columns, conditions []models.Condition) (string, []interface{}, error) {
	f, err := query.New(conditions...)
	if err != nil {
		return "", nil, err
	}
	return f.Where(columns, 1)
}

// GetCity retrieves a city by ID
func (r *postgresRepositories) GetCity(ctx context.Context, id int64) (*models.City, error) {
	var city models.City
	err := r.q.GetContext(ctx, "get_city", &city, citySelect+` WHERE id = $1`, id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("city", id)
	}

	if err != nil {
		return nil, storageError("get_city", err)
	}

	return &city, nil
}

// FindCities retrieves cities matching all conditions
func (r *postgresRepositories) FindCities(ctx context.Context, conditions ...models.Condition) ([]*models.City, error) {
	clause, args, err := where(cityColumns, conditions)
	if err != nil {
		return nil, err
	}

	var cities []*models.City
	if err := r.q.SelectContext(ctx, "find_cities", &cities, citySelect+` WHERE `+clause+` ORDER BY id`, args...); err != nil {
		return nil, storageError("find_cities", err)
	}

	return cities, nil
}

// CreateCitiesBatch inserts cities in chunks, ignoring ids already present
func (r *postgresRepositories) CreateCitiesBatch(ctx context.Context, cities []*models.City) (int, error) {
	if len(cities) == 0 {
		return 0, nil
	}

	timer := time.Now()
	inserted := 0

	for start := 0; start < len(cities); start += cityBatchSize {
		end := start + cityBatchSize
		if end > len(cities) {
			end = len(cities)
		}
		chunk := cities[start:end]

		values := make([]string, 0, len(chunk))
		args := make([]interface{}, 0, len(chunk)*7)
		for i, c := range chunk {
			n := i * 7
			values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
				n+1, n+2, n+3, n+4, n+5, n+6, n+7))
			args = append(args, c.ID, c.Name, c.ASCIIName, c.CountryCode, c.CountryName, c.Latitude, c.Longitude)
		}

		query := `
			INSERT INTO cities (id, name, ascii_name, country_code, country_name, latitude, longitude)
			VALUES ` + strings.Join(values, ", ") + `
			ON CONFLICT (id) DO NOTHING`

		result, err := r.q.ExecContext(ctx, "insert_cities_batch", query, args...)
		if err != nil {
			return inserted, storageError("insert_cities_batch", err)
		}
		if n, err := result.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	r.metrics.SeedBatchSize.Observe(float64(len(cities)))
	r.logger.Debug(ctx, "[REPO_BATCH_INSERT] City batch insert completed", logging.Fields{
		"count":       len(cities),
		"inserted":    inserted,
		"duration_ms": time.Since(timer).Milliseconds(),
	})

	return inserted, nil
}

// UpdateCity rewrites every column of an existing city
func (r *postgresRepositories) UpdateCity(ctx context.Context, city *models.City) error {
	return r.update(ctx, "update_city", "city", cityUpdate{city})
}

// GetOperator retrieves an operator by ID
func (r *postgresRepositories) GetOperator(ctx context.Context, id int64) (*models.Operator, error) {
	var op models.Operator
	err := r.q.GetContext(ctx, "get_operator", &op, operatorSelect+` WHERE id = $1`, id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("operator", id)
	}

	if err != nil {
		return nil, storageError("get_operator", err)
	}

	return &op, nil
}

// FindOperators retrieves operators matching all conditions
func (r *postgresRepositories) FindOperators(ctx context.Context, conditions ...models.Condition) ([]*models.Operator, error) {
	clause, args, err := where(operatorColumns, conditions)
	if err != nil {
		return nil, err
	}

	var operators []*models.Operator
	if err := r.q.SelectContext(ctx, "find_operators", &operators, operatorSelect+` WHERE `+clause+` ORDER BY id`, args...); err != nil {
		return nil, storageError("find_operators", err)
	}

	return operators, nil
}

// CreateOperator inserts a new operator
func (r *postgresRepositories) CreateOperator(ctx context.Context, op *models.Operator) error {
	query := `
		INSERT INTO operators (name_surname, tax_code, email, username, password, center_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.q.GetContext(ctx, "insert_operator", &op.ID, query,
		op.NameSurname,
		op.TaxCode,
		op.Email,
		op.Username,
		op.Password,
		op.CenterID,
		op.CreatedAt,
	)

	if _, ok := database.IsUniqueViolation(err); ok {
		return fmt.Errorf("create operator %q: %w", op.Username, models.ErrDuplicateUsername)
	}

	if err != nil {
		return storageError("insert_operator", err)
	}

	r.logger.Debug(ctx, "[REPO_CREATE_OPERATOR] Operator created", logging.Fields{
		"operator_id": op.ID,
		"username":    op.Username,
	})

	return nil
}

// UpdateOperator rewrites every mutable column of an existing operator
func (r *postgresRepositories) UpdateOperator(ctx context.Context, op *models.Operator) error {
	err := r.update(ctx, "update_operator", "operator", operatorUpdate{op})
	if _, ok := database.IsUniqueViolation(err); ok {
		return fmt.Errorf("update operator %d: %w", op.ID, models.ErrDuplicateUsername)
	}
	return err
}

// GetCenter retrieves a center by ID, returning nil when absent
func (r *postgresRepositories) GetCenter(ctx context.Context, id int64) (*models.Center, error) {
	var row centerRow
	err := r.q.GetContext(ctx, "get_center", &row, centerSelect+` WHERE id = $1`, id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, storageError("get_center", err)
	}

	return row.toModel(), nil
}

// FindCenters retrieves centers matching all conditions
func (r *postgresRepositories) FindCenters(ctx context.Context, conditions ...models.Condition) ([]*models.Center, error) {
	clause, args, err := where(centerColumns, conditions)
	if err != nil {
		return nil, err
	}

	var rows []centerRow
	if err := r.q.SelectContext(ctx, "find_centers", &rows, centerSelect+` WHERE `+clause+` ORDER BY id`, args...); err != nil {
		return nil, storageError("find_centers", err)
	}

	return centersFromRows(rows), nil
}

// ListCenters retrieves every center
func (r *postgresRepositories) ListCenters(ctx context.Context) ([]*models.Center, error) {
	var rows []centerRow
	if err := r.q.SelectContext(ctx, "list_centers", &rows, centerSelect+` ORDER BY id`); err != nil {
		return nil, storageError("list_centers", err)
	}

	return centersFromRows(rows), nil
}

func centersFromRows(rows []centerRow) []*models.Center {
	centers := make([]*models.Center, 0, len(rows))
	for i := range rows {
		centers = append(centers, rows[i].toModel())
	}
	return centers
}

// CreateCenter inserts a new center
func (r *postgresRepositories) CreateCenter(ctx context.Context, c *models.Center) error {
	query := `
		INSERT INTO centers (center_name, street, street_number, postal_code, town, district, city_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.q.GetContext(ctx, "insert_center", &c.ID, query,
		c.CenterName,
		c.Street,
		c.StreetNumber,
		c.PostalCode,
		c.Town,
		c.District,
		pq.Int64Array(c.CityIDs),
	)

	if _, ok := database.IsUniqueViolation(err); ok {
		return fmt.Errorf("create center %q: %w", c.CenterName, models.ErrDuplicateCenter)
	}

	if err != nil {
		return storageError("insert_center", err)
	}

	r.logger.Debug(ctx, "[REPO_CREATE_CENTER] Center created", logging.Fields{
		"center_id":  c.ID,
		"city_count": len(c.CityIDs),
	})

	return nil
}

// UpdateCenter rewrites every mutable column of an existing center
func (r *postgresRepositories) UpdateCenter(ctx context.Context, c *models.Center) error {
	err := r.update(ctx, "update_center", "center", centerUpdate{c})
	if _, ok := database.IsUniqueViolation(err); ok {
		return fmt.Errorf("update center %d: %w", c.ID, models.ErrDuplicateCenter)
	}
	return err
}

// GetWeather retrieves a weather record by ID
func (r *postgresRepositories) GetWeather(ctx context.Context, id int64) (*models.Weather, error) {
	var row weatherRow
	err := r.q.GetContext(ctx, "get_weather", &row, weatherSelect+` WHERE id = $1`, id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("weather", id)
	}

	if err != nil {
		return nil, storageError("get_weather", err)
	}

	return row.toModel(), nil
}

// FindWeather retrieves weather records matching all conditions in insertion order
func (r *postgresRepositories) FindWeather(ctx context.Context, conditions ...models.Condition) ([]*models.Weather, error) {
	clause, args, err := where(weatherColumns, conditions)
	if err != nil {
		return nil, err
	}

	var rows []weatherRow
	if err := r.q.SelectContext(ctx, "find_weather", &rows, weatherSelect+` WHERE `+clause+` ORDER BY id`, args...); err != nil {
		return nil, storageError("find_weather", err)
	}

	records := make([]*models.Weather, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].toModel())
	}

	return records, nil
}

// CreateWeather appends a weather record
func (r *postgresRepositories) CreateWeather(ctx context.Context, w *models.Weather) error {
	query := `
		INSERT INTO weather_records (
			city_id, center_id, observed_on,
			wind_score, wind_comment,
			humidity_score, humidity_comment,
			pressure_score, pressure_comment,
			temperature_score, temperature_comment,
			precipitation_score, precipitation_comment,
			glacier_elevation_score, glacier_elevation_comment,
			glacier_mass_score, glacier_mass_comment,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id
	`

	args := []interface{}{w.CityID, w.CenterID, w.Date.Format(sqlDateLayout)}
	for _, c := range models.Categories() {
		entry := w.Entry(c)
		args = append(args, entry.Score, entry.Comment)
	}
	args = append(args, w.CreatedAt)

	if err := r.q.GetContext(ctx, "insert_weather", &w.ID, query, args...); err != nil {
		return storageError("insert_weather", err)
	}

	r.logger.Debug(ctx, "[REPO_CREATE_WEATHER] Weather record created", logging.Fields{
		"weather_id": w.ID,
		"city_id":    w.CityID,
		"center_id":  w.CenterID,
		"date":       w.DisplayDate(),
	})

	return nil
}

func (r *postgresRepositories) update(ctx context.Context, queryType, resource string, b updateBuilder) error {
	query, args := buildUpdate(b)

	result, err := r.q.ExecContext(ctx, queryType, query, args...)
	if err != nil {
		return storageError(queryType, err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return notFound(resource, b.key())
	}

	return nil
}
