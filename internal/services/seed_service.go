package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/IlTetta/Climate-Monitoring-App/internal/models"
	"github.com/IlTetta/Climate-Monitoring-App/internal/repository"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/logging"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/metrics"
)

// DefaultSeedBatchSize is used when a non-positive batch size is requested
const DefaultSeedBatchSize = 500

const (
	seedDelimiter = ';'
	seedColumns   = 6
)

// SeedService loads the bootstrap city dataset into the store
type SeedService struct {
	store   repository.Store
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// SeedResult contains seeding statistics
type SeedResult struct {
	TotalRecords    int
	InsertedRecords int
	SkippedRecords  int
	FailedRecords   int
	Duration        time.Duration
	Errors          []string
}

// NewSeedService creates a new seed service
func NewSeedService(store repository.Store, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *SeedService {
	return &SeedService{
		store:   store,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// SeedFile seeds cities from a CSV file on disk
func (s *SeedService) SeedFile(ctx context.Context, path string, batchSize int) (*SeedResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	s.logger.Info(ctx, "[SEED_FILE] Seeding cities from file", logging.Fields{
		"file_path": path,
	})

	return s.Seed(ctx, file, batchSize)
}

// Seed reads `Geoname ID;Name;ASCII Name;Country Code;Country Name;Coordinates`
// rows, skipping the header line. Malformed rows are counted and skipped;
// cities whose id is already stored are left untouched.
func (s *SeedService) Seed(ctx context.Context, r io.Reader, batchSize int) (*SeedResult, error) {
	startTime := time.Now()
	if batchSize <= 0 {
		batchSize = DefaultSeedBatchSize
	}

	s.logger.Info(ctx, "[SEED_START] Starting city seeding", logging.Fields{
		"batch_size": batchSize,
		"stage":      "INITIALIZATION",
	})

	reader := csv.NewReader(r)
	reader.Comma = seedDelimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	result := &SeedResult{Errors: make([]string, 0)}
	batch := make([]*models.City, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		inserted, err := s.store.CreateCitiesBatch(ctx, batch)
		if err != nil {
			s.metrics.RecordSeedError("batch_error")
			return fmt.Errorf("failed to insert batch: %w", err)
		}
		result.InsertedRecords += inserted
		result.SkippedRecords += len(batch) - inserted
		s.metrics.SeedRecordsTotal.Add(float64(inserted))
		batch = batch[:0]
		return nil
	}

	line := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			result.TotalRecords++
			result.FailedRecords++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			s.metrics.RecordSeedError("parse_error")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("error reading input: %w", err)
		}

		if line == 1 {
			continue
		}
		result.TotalRecords++

		city, err := parseCityRecord(record)
		if err != nil {
			result.FailedRecords++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			s.metrics.RecordSeedError("parse_error")
			continue
		}

		batch = append(batch, city)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}

	result.Duration = time.Since(startTime)

	s.logger.Info(ctx, "[SEED_COMPLETE] City seeding completed", logging.Fields{
		"total_records":    result.TotalRecords,
		"inserted_records": result.InsertedRecords,
		"skipped_records":  result.SkippedRecords,
		"failed_records":   result.FailedRecords,
		"duration_seconds": result.Duration.Seconds(),
		"stage":            "COMPLETE",
	})

	return result, nil
}

// parseCityRecord converts one CSV row; coordinates are "lat, lon"
func parseCityRecord(record []string) (*models.City, error) {
	if len(record) < seedColumns {
		return nil, fmt.Errorf("invalid row: expected %d fields, got %d", seedColumns, len(record))
	}

	id, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid geoname id: %w", err)
	}
	if id <= 0 {
		return nil, fmt.Errorf("invalid geoname id: %d", id)
	}

	coords := strings.Split(strings.TrimSpace(record[5]), ",")
	if len(coords) != 2 {
		return nil, fmt.Errorf("invalid coordinates %q", record[5])
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(coords[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(coords[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude: %w", err)
	}

	return &models.City{
		ID:          id,
		Name:        strings.TrimSpace(record[1]),
		ASCIIName:   strings.TrimSpace(record[2]),
		CountryCode: strings.TrimSpace(record[3]),
		CountryName: strings.TrimSpace(record[4]),
		Latitude:    lat,
		Longitude:   lon,
	}, nil
}
