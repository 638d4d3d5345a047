package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/IlTetta/Climate-Monitoring-App/internal/models"
	"github.com/IlTetta/Climate-Monitoring-App/internal/repository/memory"
	"github.com/IlTetta/Climate-Monitoring-App/internal/services"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/logging"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/metrics"
)

const sampleCities = `Geoname ID;Name;ASCII Name;Country Code;Country Name;Coordinates
3173435;Milano;Milano;IT;Italy;45.46427, 9.18951
3178229;Como;Como;IT;Italy;45.80819, 9.0832
`

type sample struct {
	date string
	rows map[models.Category]models.CategoryEntry
}

func score(v int) *int         { return &v }
func comment(v string) *string { return &v }

// Runs the operator flow end to end against the in-memory store
func main() {
	file := flag.String("file", "", "Optional city CSV; a two-city sample is used when empty")
	flag.Parse()

	fmt.Println(strings.Repeat("═", 64))
	fmt.Println("CLIMATE MONITORING - OFFLINE DEMONSTRATION")
	fmt.Println(strings.Repeat("═", 64))

	ctx := context.Background()
	logger := logging.NewStructuredLogger("demo", "1.0.0", logging.WarnLevel)
	collector := metrics.NewCollectorWithRegistry("demo", prometheus.NewRegistry())
	store := memory.New()

	seeder := services.NewSeedService(store, logger, collector)
	operators := services.NewOperatorService(store, logger, collector)
	centers := services.NewCenterService(store, logger, collector)
	cities := services.NewCityService(store, logger, collector)

	var (
		seeded *services.SeedResult
		err    error
	)
	if *file != "" {
		seeded, err = seeder.SeedFile(ctx, *file, services.DefaultSeedBatchSize)
	} else {
		seeded, err = seeder.Seed(ctx, strings.NewReader(sampleCities), services.DefaultSeedBatchSize)
	}
	exitOn(err)
	fmt.Printf("Seeded %d cities (%d failed rows)\n\n", seeded.InsertedRecords, seeded.FailedRecords)

	found, err := cities.SearchByName(ctx, "Como")
	exitOn(err)
	if len(found) == 0 {
		exitOn(fmt.Errorf("city Como not in dataset"))
	}
	como := found[0]

	_, err = operators.PerformRegistration(ctx, services.Registration{
		NameSurname: "Mario Rossi",
		TaxCode:     "RSSMRA80A01F205X",
		Email:       "mario.rossi@example.com",
		Username:    "mrossi",
		Password:    "Password1!",
	})
	exitOn(err)

	op, err := operators.PerformLogin(ctx, "mrossi", "Password1!")
	exitOn(err)
	fmt.Printf("Logged in as %s (operator %d)\n", op.Username, op.ID)

	center, err := centers.InitNewCenter(ctx, services.NewCenter{
		CenterName:   "Centro Lario",
		Street:       "Via Roma",
		StreetNumber: "1",
		PostalCode:   "22100",
		Town:         "Como",
		District:     "CO",
		CityIDs:      []int64{como.ID},
	}, op.ID)
	exitOn(err)
	fmt.Printf("Created center %q (id %d)\n\n", center.CenterName, center.ID)

	samples := []sample{
		{"01/01/2024", map[models.Category]models.CategoryEntry{
			models.Wind:        {Score: score(2), Comment: comment("calm")},
			models.Temperature: {Score: score(3)},
		}},
		{"02/01/2024", map[models.Category]models.CategoryEntry{
			models.Wind:          {Score: score(4)},
			models.Precipitation: {Score: score(5), Comment: comment("heavy snow")},
		}},
		{"03/01/2024", map[models.Category]models.CategoryEntry{
			models.Wind: {Comment: comment("gusty")},
		}},
	}
	for _, s := range samples {
		var rows [models.NumCategories]models.CategoryEntry
		for c, e := range s.rows {
			rows[c] = e
		}
		if _, err := centers.AddDataToCenter(ctx, como.ID, op.ID, s.date, rows); err != nil {
			fmt.Printf("  %s rejected: %v\n", s.date, err)
			continue
		}
		fmt.Printf("  %s stored\n", s.date)
	}

	summary, err := cities.WeatherSummary(ctx, como.ID)
	exitOn(err)

	fmt.Println()
	fmt.Println(strings.Repeat("═", 64))
	fmt.Printf("SUMMARY FOR %s (%d records)\n", strings.ToUpper(summary.City.Name), summary.Records)
	fmt.Println(strings.Repeat("═", 64))
	for _, row := range summary.Rows {
		avg := "N/A"
		if row.AvgScore != nil {
			avg = fmt.Sprint(*row.AvgScore)
		}
		fmt.Printf("%-18s avg %-4s records %-3d %s\n", row.Category, avg, row.RecordCount, strings.Join(row.Comments, " | "))
	}
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "demo failed: %v\n", err)
		os.Exit(1)
	}
}
