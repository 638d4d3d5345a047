package repository

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/IlTetta/Climate-Monitoring-App/internal/models"
)

type assignment struct {
	column string
	value  interface{}
}

// updateBuilder describes a full-row UPDATE for one entity type
type updateBuilder interface {
	table() string
	key() int64
	assignments() []assignment
}

type operatorUpdate struct{ op *models.Operator }

func (u operatorUpdate) table() string { return "operators" }
func (u operatorUpdate) key() int64    { return u.op.ID }

func (u operatorUpdate) assignments() []assignment {
	return []assignment{
		{"name_surname", u.op.NameSurname},
		{"tax_code", u.op.TaxCode},
		{"email", u.op.Email},
		{"username", u.op.Username},
		{"password", u.op.Password},
		{"center_id", u.op.CenterID},
	}
}

type centerUpdate struct{ c *models.Center }

func (u centerUpdate) table() string { return "centers" }
func (u centerUpdate) key() int64    { return u.c.ID }

func (u centerUpdate) assignments() []assignment {
	return []assignment{
		{"center_name", u.c.CenterName},
		{"street", u.c.Street},
		{"street_number", u.c.StreetNumber},
		{"postal_code", u.c.PostalCode},
		{"town", u.c.Town},
		{"district", u.c.District},
		{"city_ids", pq.Int64Array(u.c.CityIDs)},
	}
}

type cityUpdate struct{ c *models.City }

func (u cityUpdate) table() string { return "cities" }
func (u cityUpdate) key() int64    { return u.c.ID }

func (u cityUpdate) assignments() []assignment {
	return []assignment{
		{"name", u.c.Name},
		{"ascii_name", u.c.ASCIIName},
		{"country_code", u.c.CountryCode},
		{"country_name", u.c.CountryName},
		{"latitude", u.c.Latitude},
		{"longitude", u.c.Longitude},
	}
}

// buildUpdate renders b as a parameterized UPDATE keyed on id
func buildUpdate(b updateBuilder) (string, []interface{}) {
	assigns := b.assignments()
	sets := make([]string, 0, len(assigns))
	args := make([]interface{}, 0, len(assigns)+1)

	for i, a := range assigns {
		sets = append(sets, fmt.Sprintf("%s = $%d", a.column, i+1))
		args = append(args, a.value)
	}
	args = append(args, b.key())

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", b.table(), strings.Join(sets, ", "), len(args))
	return query, args
}
