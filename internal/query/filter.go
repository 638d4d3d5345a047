// Package query translates ordered condition lists into record filters.
//
// A Filter renders as a parameterized SQL WHERE clause for the PostgreSQL
// store and evaluates in memory with the same semantics for the memory store:
// conditions are ANDed, time.Time values compare on the calendar day only
// (CAST(col AS DATE) = $n), nil values match NULL, everything else is plain
// equality.
package query

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/IlTetta/Climate-Monitoring-App/internal/models"
)

const sqlDateLayout = "2006-01-02"

// Columns maps condition keys accepted by an entity to their storage columns
type Columns map[string]string

// Filter is an immutable conjunction of equality conditions
type Filter struct {
	conditions []models.Condition
}

// New builds a Filter. An empty condition list is rejected: unconditional
// scans go through dedicated list operations instead.
func New(conditions ...models.Condition) (*Filter, error) {
	if len(conditions) == 0 {
		return nil, &models.ValidationError{
			Field:   "condition",
			Message: models.ErrNoConditions.Error(),
			Err:     models.ErrNoConditions,
		}
	}

	for _, c := range conditions {
		if strings.TrimSpace(c.Key) == "" {
			return nil, &models.ValidationError{
				Field:   "condition",
				Message: "condition key must not be empty",
			}
		}
	}

	owned := make([]models.Condition, len(conditions))
	copy(owned, conditions)

	return &Filter{conditions: owned}, nil
}

// Conditions returns a copy of the filter's conditions in order
func (f *Filter) Conditions() []models.Condition {
	out := make([]models.Condition, len(f.conditions))
	copy(out, f.conditions)
	return out
}

// Where renders the filter as a WHERE clause body with positional
// placeholders starting at $firstArg. Keys not present in columns are
// rejected so callers never splice arbitrary identifiers into SQL.
func (f *Filter) Where(columns Columns, firstArg int) (string, []interface{}, error) {
	parts := make([]string, 0, len(f.conditions))
	args := make([]interface{}, 0, len(f.conditions))
	argNum := firstArg

	for _, c := range f.conditions {
		column, ok := columns[c.Key]
		if !ok {
			return "", nil, &models.ValidationError{
				Field:   "condition",
				Value:   c.Key,
				Message: fmt.Sprintf("unsupported condition key %q", c.Key),
			}
		}

		if c.Value == nil {
			parts = append(parts, column+" IS NULL")
			continue
		}

		if day, ok := asTime(c.Value); ok {
			parts = append(parts, fmt.Sprintf("CAST(%s AS DATE) = $%d", column, argNum))
			args = append(args, day.Format(sqlDateLayout))
			argNum++
			continue
		}

		parts = append(parts, fmt.Sprintf("%s = $%d", column, argNum))
		args = append(args, c.Value)
		argNum++
	}

	return strings.Join(parts, " AND "), args, nil
}

// Record exposes field values by condition key
type Record interface {
	Field(key string) (any, bool)
}

// Match evaluates the filter against a record in memory
func (f *Filter) Match(r Record) bool {
	for _, c := range f.conditions {
		value, ok := r.Field(c.Key)
		if !ok {
			return false
		}
		if !equal(value, c.Value) {
			return false
		}
	}
	return true
}

func equal(stored, wanted any) bool {
	if wanted == nil {
		return stored == nil
	}
	if stored == nil {
		return false
	}

	if w, ok := asTime(wanted); ok {
		s, ok := asTime(stored)
		if !ok {
			return false
		}
		sy, sm, sd := s.Date()
		wy, wm, wd := w.Date()
		return sy == wy && sm == wm && sd == wd
	}

	if w, ok := asNumber(wanted); ok {
		s, ok := asNumber(stored)
		return ok && s == w
	}

	switch w := wanted.(type) {
	case string:
		s, ok := stored.(string)
		return ok && s == w
	case bool:
		s, ok := stored.(bool)
		return ok && s == w
	}

	return false
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t != nil {
			return *t, true
		}
	}
	return time.Time{}, false
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		if math.IsNaN(n) {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
