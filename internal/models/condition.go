package models

// Condition is an equality filter on a single field. A time.Time value
// matches on the calendar day only; a nil value matches absent fields.
type Condition struct {
	Key   string
	Value any
}

// NewCondition builds a Condition
func NewCondition(key string, value any) Condition {
	return Condition{Key: key, Value: value}
}
