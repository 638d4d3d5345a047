package models

// City is a monitored location seeded from the bootstrap dataset
type City struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	ASCIIName   string  `json:"ascii_name" db:"ascii_name"`
	CountryCode string  `json:"country_code" db:"country_code"`
	CountryName string  `json:"country_name" db:"country_name"`
	Latitude    float64 `json:"latitude" db:"latitude"`
	Longitude   float64 `json:"longitude" db:"longitude"`
}

// Condition keys accepted for city lookups
const (
	CityFieldID          = "id"
	CityFieldName        = "name"
	CityFieldASCIIName   = "ascii_name"
	CityFieldCountryCode = "country_code"
	CityFieldCountryName = "country_name"
	CityFieldLatitude    = "latitude"
	CityFieldLongitude   = "longitude"
)

// Field returns the value stored under a condition key
func (c *City) Field(key string) (any, bool) {
	switch key {
	case CityFieldID:
		return c.ID, true
	case CityFieldName:
		return c.Name, true
	case CityFieldASCIIName:
		return c.ASCIIName, true
	case CityFieldCountryCode:
		return c.CountryCode, true
	case CityFieldCountryName:
		return c.CountryName, true
	case CityFieldLatitude:
		return c.Latitude, true
	case CityFieldLongitude:
		return c.Longitude, true
	}
	return nil, false
}
