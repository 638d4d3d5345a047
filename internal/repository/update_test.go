package repository

import (
	"testing"

	"github.com/lib/pq"

	"github.com/IlTetta/Climate-Monitoring-App/internal/models"
)

func TestBuildUpdate(t *testing.T) {
	tests := []struct {
		name      string
		builder   updateBuilder
		wantQuery string
		wantArgs  int
	}{
		{
			name:      "operator",
			builder:   operatorUpdate{&models.Operator{ID: 4, Username: "mrossi", CenterID: 2}},
			wantQuery: "UPDATE operators SET name_surname = $1, tax_code = $2, email = $3, username = $4, password = $5, center_id = $6 WHERE id = $7",
			wantArgs:  7,
		},
		{
			name:      "center",
			builder:   centerUpdate{&models.Center{ID: 9, CityIDs: []int64{1, 2}}},
			wantQuery: "UPDATE centers SET center_name = $1, street = $2, street_number = $3, postal_code = $4, town = $5, district = $6, city_ids = $7 WHERE id = $8",
			wantArgs:  8,
		},
		{
			name:      "city",
			builder:   cityUpdate{&models.City{ID: 1}},
			wantQuery: "UPDATE cities SET name = $1, ascii_name = $2, country_code = $3, country_name = $4, latitude = $5, longitude = $6 WHERE id = $7",
			wantArgs:  7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildUpdate(tt.builder)
			if query != tt.wantQuery {
				t.Errorf("buildUpdate() query = %q, want %q", query, tt.wantQuery)
			}
			if len(args) != tt.wantArgs {
				t.Fatalf("buildUpdate() args = %d, want %d", len(args), tt.wantArgs)
			}
			if args[len(args)-1] != tt.builder.key() {
				t.Errorf("last arg = %v, want id %d", args[len(args)-1], tt.builder.key())
			}
		})
	}
}

func TestCenterUpdate_EncodesCityIDsAsArray(t *testing.T) {
	_, args := buildUpdate(centerUpdate{&models.Center{ID: 1, CityIDs: []int64{3, 5}}})

	arr, ok := args[6].(pq.Int64Array)
	if !ok {
		t.Fatalf("city_ids arg type = %T, want pq.Int64Array", args[6])
	}
	if len(arr) != 2 || arr[0] != 3 || arr[1] != 5 {
		t.Errorf("city_ids = %v, want [3 5]", arr)
	}
}
