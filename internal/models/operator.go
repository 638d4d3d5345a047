package models

import "time"

// NoCenter is the center id of an operator not yet linked to any center.
// Zero is a marker, never a real center id.
const NoCenter int64 = 0

// Operator is a registered field operator. Password holds the credential hash.
type Operator struct {
	ID          int64     `json:"id" db:"id"`
	NameSurname string    `json:"name_surname" db:"name_surname"`
	TaxCode     string    `json:"tax_code" db:"tax_code"`
	Email       string    `json:"email" db:"email"`
	Username    string    `json:"username" db:"username"`
	Password    string    `json:"-" db:"password"`
	CenterID    int64     `json:"center_id" db:"center_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// HasCenter reports whether the operator is bound to a center
func (o *Operator) HasCenter() bool {
	return o.CenterID != NoCenter
}

// WithCenter returns a copy of the operator bound to centerID
func (o *Operator) WithCenter(centerID int64) *Operator {
	updated := *o
	updated.CenterID = centerID
	return &updated
}

// Condition keys accepted for operator lookups
const (
	OperatorFieldID          = "id"
	OperatorFieldNameSurname = "name_surname"
	OperatorFieldTaxCode     = "tax_code"
	OperatorFieldEmail       = "email"
	OperatorFieldUsername    = "username"
	OperatorFieldPassword    = "password"
	OperatorFieldCenterID    = "center_id"
)

// Field returns the value stored under a condition key
func (o *Operator) Field(key string) (any, bool) {
	switch key {
	case OperatorFieldID:
		return o.ID, true
	case OperatorFieldNameSurname:
		return o.NameSurname, true
	case OperatorFieldTaxCode:
		return o.TaxCode, true
	case OperatorFieldEmail:
		return o.Email, true
	case OperatorFieldUsername:
		return o.Username, true
	case OperatorFieldPassword:
		return o.Password, true
	case OperatorFieldCenterID:
		return o.CenterID, true
	}
	return nil, false
}
