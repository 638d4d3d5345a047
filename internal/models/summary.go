package models

// WeatherSummary folds a set of weather records into per-category statistics.
// It never mutates the records it was built from.
type WeatherSummary struct {
	records  int
	sums     [NumCategories]int
	counts   [NumCategories]int
	comments [NumCategories][]string
}

// CategorySummary is the display row for one category
type CategorySummary struct {
	Category    string   `json:"category"`
	AvgScore    *int     `json:"avg_score"`
	RecordCount int      `json:"record_count"`
	Comments    []string `json:"comments"`
}

// SummarizeWeather aggregates the given records. At least one record is required.
func SummarizeWeather(records []*Weather) (*WeatherSummary, error) {
	if len(records) == 0 {
		return nil, &ValidationError{
			Field:   "records",
			Message: "no weather records provided",
		}
	}

	s := &WeatherSummary{}
	for _, record := range records {
		if record == nil {
			continue
		}
		s.records++

		for i, entry := range record.Categories {
			if entry.Score != nil {
				s.sums[i] += *entry.Score
				s.counts[i]++
			}
			if entry.Comment != nil {
				s.comments[i] = append(s.comments[i], *entry.Comment)
			}
		}
	}

	return s, nil
}

// Records returns the number of records folded into the summary
func (s *WeatherSummary) Records() int {
	return s.records
}

// AvgScore returns the rounded (half-up) mean score of a category.
// ok is false when no record scored the category.
func (s *WeatherSummary) AvgScore(c Category) (avg int, ok bool) {
	if !valid(c) || s.counts[c] == 0 {
		return 0, false
	}
	sum, n := s.sums[c], s.counts[c]
	// scores are positive, so integer half-up is floor((2*sum + n) / (2*n))
	return (2*sum + n) / (2 * n), true
}

// RecordCount returns how many records carried a score for the category
func (s *WeatherSummary) RecordCount(c Category) int {
	if !valid(c) {
		return 0
	}
	return s.counts[c]
}

// Comments returns the category comments in input order
func (s *WeatherSummary) Comments(c Category) []string {
	if !valid(c) {
		return []string{}
	}
	out := make([]string, len(s.comments[c]))
	copy(out, s.comments[c])
	return out
}

// Rows returns one display row per category, in canonical order
func (s *WeatherSummary) Rows() []CategorySummary {
	rows := make([]CategorySummary, 0, NumCategories)
	for _, c := range Categories() {
		row := CategorySummary{
			Category:    c.String(),
			RecordCount: s.RecordCount(c),
			Comments:    s.Comments(c),
		}
		if avg, ok := s.AvgScore(c); ok {
			row.AvgScore = &avg
		}
		rows = append(rows, row)
	}
	return rows
}

func valid(c Category) bool {
	return c >= 0 && int(c) < NumCategories
}
