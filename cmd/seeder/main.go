package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/IlTetta/Climate-Monitoring-App/internal/config"
	"github.com/IlTetta/Climate-Monitoring-App/internal/migrations"
	"github.com/IlTetta/Climate-Monitoring-App/internal/repository"
	"github.com/IlTetta/Climate-Monitoring-App/internal/services"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/database"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/logging"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/metrics"
)

func main() {
	// Parse command-line flags
	file := flag.String("file", "./data/geonames-and-coordinates.csv", "CSV file with the bootstrap city dataset")
	batchSize := flag.Int("batch-size", services.DefaultSeedBatchSize, "Number of cities inserted per batch")
	migrate := flag.Bool("migrate", true, "Apply pending schema migrations before seeding")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("climate-seeder", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "[SEEDER_START] Starting city seeding", logging.Fields{
		"file":       *file,
		"batch_size": *batchSize,
		"migrate":    *migrate,
	})

	metricsCollector := metrics.NewCollector("climate_seeder")

	db, err := database.NewPostgresDB(cfg.Database.Postgres(), logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[SEEDER_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	if *migrate {
		if err := migrations.Run(db.DB().DB); err != nil {
			logger.Fatal(ctx, "[SEEDER_ERROR] Failed to apply migrations", logging.Fields{}, err)
		}
	}

	store := repository.NewPostgresStore(db, logger, metricsCollector)
	seeder := services.NewSeedService(store, logger, metricsCollector)

	result, err := seeder.SeedFile(ctx, *file, *batchSize)
	if err != nil {
		logger.Fatal(ctx, "[SEEDER_ERROR] Seeding failed", logging.Fields{
			"file": *file,
		}, err)
	}

	// Print results
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("SEEDING COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Total Records:    %d\n", result.TotalRecords)
	fmt.Printf("Inserted Records: %d\n", result.InsertedRecords)
	fmt.Printf("Skipped Records:  %d\n", result.SkippedRecords)
	fmt.Printf("Failed Records:   %d\n", result.FailedRecords)
	fmt.Printf("Duration:         %v\n", result.Duration)

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(result.Errors))
		for i, errMsg := range result.Errors {
			if i < 10 {
				fmt.Printf("  - %s\n", errMsg)
			}
		}
		if len(result.Errors) > 10 {
			fmt.Printf("  ... and %d more errors\n", len(result.Errors)-10)
		}
	}
}
