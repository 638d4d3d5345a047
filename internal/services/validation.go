package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/IlTetta/Climate-Monitoring-App/internal/models"
)

// Registration field keys reported in validation errors
const (
	FieldNameSurname = "name_surname"
	FieldTaxCode     = "tax_code"
	FieldEmail       = "email"
	FieldUsername    = "username"
	FieldPassword    = "password"
	FieldCenter      = "center"
	FieldCity        = "city"
	FieldDate        = "date"
	FieldData        = "data"
	FieldName        = "name"
)

const (
	minPasswordLength = 8
	passwordSpecials  = "@#$%^&+=!."
	lineTerminators   = "\n\r\u0085\u2028\u2029"
)

var (
	nameSurnamePattern = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	taxCodePattern     = regexp.MustCompile(`^[A-Z]{6}\d{2}[A-Z]\d{2}[A-Z]\d{3}[A-Z]$`)
	emailPattern       = regexp.MustCompile(`^[\w.-]+@([\w-]+\.)+[\w-]{2,4}$`)
	usernamePattern    = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,}$`)
)

// HashPassword derives the stored credential: hex SHA-256 of username followed by password.
// The format carries no salt and is shared with existing operator rows.
func HashPassword(username, password string) string {
	sum := sha256.Sum256([]byte(username + password))
	return hex.EncodeToString(sum[:])
}

func validateNameSurname(v string) error {
	if !nameSurnamePattern.MatchString(v) {
		return models.NewValidationError(FieldNameSurname, v, "name and surname may contain only letters and spaces")
	}
	return nil
}

func validateTaxCode(v string) error {
	if !taxCodePattern.MatchString(v) {
		return models.NewValidationError(FieldTaxCode, v, "invalid tax code, expected a form like RSSMRA80A01H501T")
	}
	return nil
}

func validateEmail(v string) error {
	if !emailPattern.MatchString(v) {
		return models.NewValidationError(FieldEmail, v, "invalid email address")
	}
	return nil
}

func validateUsernameFormat(v string) error {
	if !usernamePattern.MatchString(v) {
		return models.NewValidationError(FieldUsername, v,
			"username needs at least 3 characters among letters, digits and . - _")
	}
	return nil
}

// validatePassword requires at least 8 characters on a single line, one
// uppercase ASCII letter and one of @#$%^&+=!.
func validatePassword(v string) error {
	invalid := &models.ValidationError{
		Field:   FieldPassword,
		Message: fmt.Sprintf("password needs at least %d characters, an uppercase letter and one of %s", minPasswordLength, passwordSpecials),
	}

	if utf8.RuneCountInString(v) < minPasswordLength || strings.ContainsAny(v, lineTerminators) {
		return invalid
	}

	var upper, special bool
	for _, r := range v {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	if !upper || !special {
		return invalid
	}

	return nil
}

func requireNotBlank(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return models.NewValidationError(field, v, field+" must not be blank")
	}
	return nil
}

// normalizeEntry checks one category row and drops blank comments
func normalizeEntry(c models.Category, e models.CategoryEntry) (models.CategoryEntry, error) {
	if e.Score != nil && (*e.Score < models.MinScore || *e.Score > models.MaxScore) {
		return e, &models.ValidationError{
			Field:   c.String(),
			Value:   fmt.Sprint(*e.Score),
			Message: fmt.Sprintf("%s score must be between %d and %d", c, models.MinScore, models.MaxScore),
		}
	}

	if e.Comment != nil {
		if strings.TrimSpace(*e.Comment) == "" {
			e.Comment = nil
		} else if utf8.RuneCountInString(*e.Comment) > models.MaxCommentLength {
			return e, &models.ValidationError{
				Field:   c.String(),
				Message: fmt.Sprintf("%s comment exceeds %d characters", c, models.MaxCommentLength),
			}
		}
	}

	return e, nil
}
