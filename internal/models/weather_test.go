package models

import (
	"errors"
	"testing"
	"time"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func weatherWith(c Category, score *int, comment *string) *Weather {
	w := &Weather{}
	w.Categories[c] = CategoryEntry{Score: score, Comment: comment}
	return w
}

// TestParseDate covers the dd/MM/yyyy boundary format
func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "valid date",
			value: "01/01/2024",
			want:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "leap day",
			value: "29/02/2024",
			want:  time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "not a leap year",
			value:   "29/02/2023",
			wantErr: true,
		},
		{
			name:    "month out of range",
			value:   "01/13/2024",
			wantErr: true,
		},
		{
			name:    "iso format rejected",
			value:   "2024-01-01",
			wantErr: true,
		},
		{
			name:    "empty",
			value:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.value)

			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate() error = %v, wantErr %v", err, tt.wantErr)
			}

			if tt.wantErr {
				var vErr *ValidationError
				if !errors.As(err, &vErr) || vErr.Field != "date" {
					t.Errorf("ParseDate() error = %v, want ValidationError on date", err)
				}
				return
			}

			if !got.Equal(tt.want) {
				t.Errorf("ParseDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCategoryKeys(t *testing.T) {
	want := []string{"wind", "humidity", "pressure", "temperature", "precipitation", "glacierElevation", "glacierMass"}

	cats := Categories()
	if len(cats) != NumCategories {
		t.Fatalf("len(Categories()) = %d, want %d", len(cats), NumCategories)
	}

	for i, c := range cats {
		if c.String() != want[i] {
			t.Errorf("Category(%d).String() = %v, want %v", i, c.String(), want[i])
		}

		parsed, err := ParseCategory(want[i])
		if err != nil || parsed != c {
			t.Errorf("ParseCategory(%q) = %v, %v", want[i], parsed, err)
		}
	}

	if _, err := ParseCategory("snow"); err == nil {
		t.Error("ParseCategory(snow) should fail")
	}
}

func TestWeather_HasObservation(t *testing.T) {
	w := &Weather{}
	if w.HasObservation() {
		t.Error("empty record should have no observation")
	}

	w.Categories[GlacierMass] = CategoryEntry{Comment: strPtr("melting")}
	if w.HasObservation() {
		t.Error("a comment alone is not an observation")
	}

	w.Categories[GlacierMass].Score = intPtr(2)
	if !w.HasObservation() {
		t.Error("record with a score should have an observation")
	}
}

func TestSummarizeWeather_Averages(t *testing.T) {
	records := []*Weather{
		weatherWith(Wind, intPtr(2), nil),
		weatherWith(Wind, intPtr(4), nil),
		weatherWith(Wind, nil, nil),
	}

	s, err := SummarizeWeather(records)
	if err != nil {
		t.Fatalf("SummarizeWeather() error = %v", err)
	}

	avg, ok := s.AvgScore(Wind)
	if !ok || avg != 3 {
		t.Errorf("AvgScore(wind) = %v, %v, want 3, true", avg, ok)
	}

	if got := s.RecordCount(Wind); got != 2 {
		t.Errorf("RecordCount(wind) = %v, want 2", got)
	}

	if _, ok := s.AvgScore(Humidity); ok {
		t.Error("AvgScore(humidity) should be absent")
	}

	if got := s.Records(); got != 3 {
		t.Errorf("Records() = %v, want 3", got)
	}
}

func TestSummarizeWeather_Rounding(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		want   int
	}{
		{name: "exact", scores: []int{3, 3}, want: 3},
		{name: "half rounds up", scores: []int{1, 2}, want: 2},
		{name: "below half rounds down", scores: []int{1, 1, 2}, want: 1},
		{name: "above half rounds up", scores: []int{1, 2, 2}, want: 2},
		{name: "four and five", scores: []int{4, 5}, want: 5},
		{name: "single", scores: []int{5}, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := make([]*Weather, 0, len(tt.scores))
			for _, v := range tt.scores {
				records = append(records, weatherWith(Pressure, intPtr(v), nil))
			}

			s, err := SummarizeWeather(records)
			if err != nil {
				t.Fatalf("SummarizeWeather() error = %v", err)
			}

			if got, _ := s.AvgScore(Pressure); got != tt.want {
				t.Errorf("AvgScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSummarizeWeather_CommentsKeepOrder(t *testing.T) {
	records := []*Weather{
		weatherWith(Wind, intPtr(1), strPtr("calm")),
		weatherWith(Wind, intPtr(2), nil),
		weatherWith(Wind, nil, strPtr("gusty")),
		weatherWith(Wind, nil, strPtr("calm")),
	}

	s, err := SummarizeWeather(records)
	if err != nil {
		t.Fatalf("SummarizeWeather() error = %v", err)
	}

	want := []string{"calm", "gusty", "calm"}
	got := s.Comments(Wind)
	if len(got) != len(want) {
		t.Fatalf("Comments(wind) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Comments(wind)[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	// the returned slice is a copy
	got[0] = "changed"
	if s.Comments(Wind)[0] != "calm" {
		t.Error("Comments() must not expose internal state")
	}

	if len(s.Comments(Temperature)) != 0 {
		t.Error("Comments(temperature) should be empty")
	}
}

func TestSummarizeWeather_DoesNotMutateInput(t *testing.T) {
	record := weatherWith(Humidity, intPtr(4), strPtr("wet"))

	if _, err := SummarizeWeather([]*Weather{record}); err != nil {
		t.Fatalf("SummarizeWeather() error = %v", err)
	}

	if *record.Categories[Humidity].Score != 4 || *record.Categories[Humidity].Comment != "wet" {
		t.Error("input record was modified")
	}
}

func TestSummarizeWeather_Empty(t *testing.T) {
	for _, records := range [][]*Weather{nil, {}} {
		_, err := SummarizeWeather(records)

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("SummarizeWeather(%v) error = %v, want ValidationError", records, err)
		}
	}
}

func TestWeatherSummary_Rows(t *testing.T) {
	s, err := SummarizeWeather([]*Weather{weatherWith(Temperature, intPtr(5), strPtr("hot"))})
	if err != nil {
		t.Fatalf("SummarizeWeather() error = %v", err)
	}

	rows := s.Rows()
	if len(rows) != NumCategories {
		t.Fatalf("len(Rows()) = %d, want %d", len(rows), NumCategories)
	}

	for _, row := range rows {
		if row.Category == "temperature" {
			if row.AvgScore == nil || *row.AvgScore != 5 || row.RecordCount != 1 {
				t.Errorf("temperature row = %+v", row)
			}
			continue
		}
		if row.AvgScore != nil {
			t.Errorf("%s row should have no average, got %v", row.Category, *row.AvgScore)
		}
	}
}

func TestOperator_WithCenter(t *testing.T) {
	op := &Operator{ID: 7, Username: "mrossi"}
	if op.HasCenter() {
		t.Error("new operator should have no center")
	}

	bound := op.WithCenter(3)
	if !bound.HasCenter() || bound.CenterID != 3 {
		t.Errorf("WithCenter(3).CenterID = %v", bound.CenterID)
	}
	if op.CenterID != NoCenter {
		t.Error("WithCenter must not modify the receiver")
	}
}

// TestErrors tests error classification
func TestErrors(t *testing.T) {
	vErr := &ValidationError{
		Field:   "username",
		Value:   "mrossi",
		Message: "username already taken",
		Err:     ErrDuplicateUsername,
	}

	if vErr.Error() != "username already taken" {
		t.Errorf("Error() = %v, want %v", vErr.Error(), "username already taken")
	}
	if vErr.IsTransient() {
		t.Error("ValidationError should not be transient")
	}
	if !errors.Is(vErr, ErrDuplicateUsername) {
		t.Error("ValidationError should unwrap to ErrDuplicateUsername")
	}

	sErr := &StorageError{Op: "get_city", Err: errors.New("connection refused")}
	if !errors.Is(sErr, ErrStorageUnavailable) {
		t.Error("StorageError should match ErrStorageUnavailable")
	}
	if !sErr.IsTransient() {
		t.Error("StorageError should be transient")
	}
}
