package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const citiesCSV = `Geoname ID;Name;ASCII Name;Country Code;Country Name;Coordinates
3173435;Milano;Milano;IT;Italy;45.46427, 9.18951
3178229;Como;Como;IT;Italy;45.80819, 9.0832
not-a-number;Broken;Broken;IT;Italy;45.0, 9.0
3164527;Varese;Varese;IT;Italy;45.82058
1;Already There;Already There;IT;Italy;45.46427, 9.18951
2643743;London;London;GB;United Kingdom;51.50853, -0.12574
`

func TestSeed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	result, err := f.seeder.Seed(ctx, strings.NewReader(citiesCSV), 2)
	require.NoError(t, err)

	assert.Equal(t, 6, result.TotalRecords)
	assert.Equal(t, 3, result.InsertedRecords)
	assert.Equal(t, 1, result.SkippedRecords, "id 1 is seeded by the fixture")
	assert.Equal(t, 2, result.FailedRecords)
	assert.Len(t, result.Errors, 2)
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.SeedRecordsTotal))

	london, err := f.store.GetCity(ctx, 2643743)
	require.NoError(t, err)
	assert.Equal(t, "United Kingdom", london.CountryName)
	assert.InDelta(t, -0.12574, london.Longitude, 1e-9)

	existing, err := f.store.GetCity(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Milano", existing.Name, "existing ids are left untouched")
}

func TestSeedFile(t *testing.T) {
	f := newFixture(t)

	path := filepath.Join(t.TempDir(), "cities.csv")
	require.NoError(t, os.WriteFile(path, []byte(citiesCSV), 0o600))

	result, err := f.seeder.SeedFile(context.Background(), path, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, result.InsertedRecords)

	_, err = f.seeder.SeedFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), 10)
	assert.Error(t, err)
}

func TestParseCityRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  []string
		wantErr bool
	}{
		{"valid", []string{"3173435", "Milano", "Milano", "IT", "Italy", "45.46427, 9.18951"}, false},
		{"no space after comma", []string{"3173435", "Milano", "Milano", "IT", "Italy", "45.46427,9.18951"}, false},
		{"short row", []string{"3173435", "Milano"}, true},
		{"zero id", []string{"0", "Milano", "Milano", "IT", "Italy", "45.46427, 9.18951"}, true},
		{"bad longitude", []string{"3173435", "Milano", "Milano", "IT", "Italy", "45.46427, east"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			city, err := parseCityRecord(tt.record)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(3173435), city.ID)
			assert.InDelta(t, 9.18951, city.Longitude, 1e-9)
		})
	}
}
