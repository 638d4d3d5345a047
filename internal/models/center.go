package models

// Center is a monitoring office covering a set of cities
type Center struct {
	ID           int64   `json:"id"`
	CenterName   string  `json:"center_name"`
	Street       string  `json:"street"`
	StreetNumber string  `json:"street_number"`
	PostalCode   string  `json:"postal_code"`
	Town         string  `json:"town"`
	District     string  `json:"district"`
	CityIDs      []int64 `json:"city_ids"`
}

// Condition keys accepted for center lookups
const (
	CenterFieldID           = "id"
	CenterFieldCenterName   = "center_name"
	CenterFieldStreet       = "street"
	CenterFieldStreetNumber = "street_number"
	CenterFieldPostalCode   = "postal_code"
	CenterFieldTown         = "town"
	CenterFieldDistrict     = "district"
)

// Field returns the value stored under a condition key
func (c *Center) Field(key string) (any, bool) {
	switch key {
	case CenterFieldID:
		return c.ID, true
	case CenterFieldCenterName:
		return c.CenterName, true
	case CenterFieldStreet:
		return c.Street, true
	case CenterFieldStreetNumber:
		return c.StreetNumber, true
	case CenterFieldPostalCode:
		return c.PostalCode, true
	case CenterFieldTown:
		return c.Town, true
	case CenterFieldDistrict:
		return c.District, true
	}
	return nil, false
}

// IdentityConditions describes the address tuple that must be unique across centers
func (c *Center) IdentityConditions() []Condition {
	return []Condition{
		NewCondition(CenterFieldCenterName, c.CenterName),
		NewCondition(CenterFieldStreet, c.Street),
		NewCondition(CenterFieldStreetNumber, c.StreetNumber),
		NewCondition(CenterFieldPostalCode, c.PostalCode),
		NewCondition(CenterFieldTown, c.Town),
		NewCondition(CenterFieldDistrict, c.District),
	}
}

// CoversCity reports whether cityID is among the center's cities
func (c *Center) CoversCity(cityID int64) bool {
	for _, id := range c.CityIDs {
		if id == cityID {
			return true
		}
	}
	return false
}
