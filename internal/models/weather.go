package models

import (
	"fmt"
	"time"
)

// DateLayout is the day/month/year format used at the operator boundary
const DateLayout = "02/01/2006"

// MaxCommentLength caps free-text comments attached to a category entry
const MaxCommentLength = 256

// Score bounds for a category entry
const (
	MinScore = 1
	MaxScore = 5
)

// Category identifies one of the seven observed weather parameters
type Category int

const (
	Wind Category = iota
	Humidity
	Pressure
	Temperature
	Precipitation
	GlacierElevation
	GlacierMass
)

// NumCategories is the fixed number of categories carried by every record
const NumCategories = 7

var categoryKeys = [NumCategories]string{
	"wind",
	"humidity",
	"pressure",
	"temperature",
	"precipitation",
	"glacierElevation",
	"glacierMass",
}

// Categories returns all categories in their canonical order
func Categories() []Category {
	return []Category{Wind, Humidity, Pressure, Temperature, Precipitation, GlacierElevation, GlacierMass}
}

// String returns the category key
func (c Category) String() string {
	if c < 0 || int(c) >= NumCategories {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryKeys[c]
}

// ParseCategory maps a category key back to its Category
func ParseCategory(key string) (Category, error) {
	for i, k := range categoryKeys {
		if k == key {
			return Category(i), nil
		}
	}
	return 0, &ValidationError{
		Field:   "category",
		Value:   key,
		Message: "unknown weather category",
	}
}

// CategoryEntry is one observed value: an optional 1..5 score and an optional comment
type CategoryEntry struct {
	Score   *int    `json:"score,omitempty"`
	Comment *string `json:"comment,omitempty"`
}

// HasScore reports whether the entry carries a score
func (e CategoryEntry) HasScore() bool {
	return e.Score != nil
}

// Weather is a single append-only observation submitted by a center for a city
type Weather struct {
	ID         int64                        `json:"id"`
	CityID     int64                        `json:"city_id"`
	CenterID   int64                        `json:"center_id"`
	Date       time.Time                    `json:"date"`
	Categories [NumCategories]CategoryEntry `json:"categories"`
	CreatedAt  time.Time                    `json:"created_at"`
}

// Entry returns the entry recorded for the given category
func (w *Weather) Entry(c Category) CategoryEntry {
	if c < 0 || int(c) >= NumCategories {
		return CategoryEntry{}
	}
	return w.Categories[c]
}

// DisplayDate formats the observation date the way operators enter it
func (w *Weather) DisplayDate() string {
	return w.Date.Format(DateLayout)
}

// HasObservation reports whether at least one category carries a score
func (w *Weather) HasObservation() bool {
	for _, e := range w.Categories {
		if e.HasScore() {
			return true
		}
	}
	return false
}

// ParseDate parses a dd/MM/yyyy date into a UTC calendar day
func ParseDate(value string) (time.Time, error) {
	date, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, &ValidationError{
			Field:   "date",
			Value:   value,
			Message: "invalid date format, expected dd/MM/yyyy",
		}
	}
	return date, nil
}

// TruncateDay drops the time-of-day, keeping the calendar day in t's location
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Condition keys accepted for weather lookups
const (
	WeatherFieldID       = "id"
	WeatherFieldCityID   = "city_id"
	WeatherFieldCenterID = "center_id"
	WeatherFieldDate     = "date"
)

// Field returns the value stored under a condition key
func (w *Weather) Field(key string) (any, bool) {
	switch key {
	case WeatherFieldID:
		return w.ID, true
	case WeatherFieldCityID:
		return w.CityID, true
	case WeatherFieldCenterID:
		return w.CenterID, true
	case WeatherFieldDate:
		return w.Date, true
	}
	return nil, false
}
