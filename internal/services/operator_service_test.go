package services

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IlTetta/Climate-Monitoring-App/internal/models"
	"github.com/IlTetta/Climate-Monitoring-App/internal/repository"
)

func TestHashPassword(t *testing.T) {
	a := HashPassword("mrossi", "Password1!")
	assert.Equal(t, a, HashPassword("mrossi", "Password1!"))
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, HashPassword("mrossi", "Password2!"))
	assert.NotEqual(t, a, HashPassword("lbianchi", "Password1!"))
}

func TestPerformRegistration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	op := f.register(t, validRegistration())
	assert.True(t, op.ID > 0)
	assert.Equal(t, HashPassword("mrossi", "Password1!"), op.Password)
	assert.Equal(t, testNow, op.CreatedAt)
	assert.False(t, op.HasCenter())

	stored, err := f.store.GetOperator(ctx, op.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "Password1!", stored.Password)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RegistrationsTotal.WithLabelValues("success")))
}

func TestPerformRegistration_DuplicateUsername(t *testing.T) {
	f := newFixture(t)
	f.register(t, validRegistration())

	again := Registration{
		NameSurname: "Luigi Bianchi",
		TaxCode:     "BNCLGU85B02L219Y",
		Email:       "luigi@example.com",
		Username:    "mrossi",
		Password:    "Another#Pass",
	}
	_, err := f.operators.PerformRegistration(context.Background(), again)

	var vErr *models.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, FieldUsername, vErr.Field)
	assert.True(t, errors.Is(err, models.ErrDuplicateUsername))
}

func TestPerformRegistration_ValidationOrder(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(r *Registration)
		field string
	}{
		{"name with digits", func(r *Registration) { r.NameSurname = "Mario R0ssi" }, FieldNameSurname},
		{"tax code lowercase", func(r *Registration) { r.TaxCode = "rssmra80a01f205x" }, FieldTaxCode},
		{"email without domain", func(r *Registration) { r.Email = "mario@" }, FieldEmail},
		{"username too short", func(r *Registration) { r.Username = "mr" }, FieldUsername},
		{"password without uppercase", func(r *Registration) { r.Password = "password1!" }, FieldPassword},
		{"password without special", func(r *Registration) { r.Password = "Password12" }, FieldPassword},
		{"password too short", func(r *Registration) { r.Password = "Pa!1" }, FieldPassword},
		{"password over two lines", func(r *Registration) { r.Password = "Pass\nword!" }, FieldPassword},
		{"first failure wins", func(r *Registration) { r.TaxCode = ""; r.Password = "" }, FieldTaxCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			reg := validRegistration()
			tt.edit(&reg)

			_, err := f.operators.PerformRegistration(context.Background(), reg)

			var vErr *models.ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestPerformLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	registered := f.register(t, validRegistration())

	op, err := f.operators.PerformLogin(ctx, "mrossi", "Password1!")
	require.NoError(t, err)
	require.NotNil(t, op)
	assert.Equal(t, registered.ID, op.ID)

	op, err = f.operators.PerformLogin(ctx, "mrossi", "Wrong#Pass")
	require.NoError(t, err)
	assert.Nil(t, op)

	op, err = f.operators.PerformLogin(ctx, "nobody", "Password1!")
	require.NoError(t, err)
	assert.Nil(t, op)

	_, err = f.operators.PerformLogin(ctx, "", "Password1!")
	var vErr *models.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, FieldUsername, vErr.Field)

	_, err = f.operators.PerformLogin(ctx, "mrossi", "")
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, FieldPassword, vErr.Field)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.LoginsTotal.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.LoginsTotal.WithLabelValues("no_match")))
}

func TestAssociateCenter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	op := f.register(t, validRegistration())

	updated, err := f.operators.AssociateCenter(ctx, op.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), updated.CenterID)

	stored, err := f.operators.GetOperator(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), stored.CenterID)

	for _, centerID := range []int64{7, 8} {
		_, err = f.operators.AssociateCenter(ctx, op.ID, centerID)
		assert.True(t, errors.Is(err, models.ErrAlreadyAssociated), "center %d: %v", centerID, err)
	}
}

func TestAssociateCenter_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	op := f.register(t, validRegistration())

	_, err := f.operators.AssociateCenter(ctx, op.ID, models.NoCenter)
	var vErr *models.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, FieldCenter, vErr.Field)

	_, err = f.operators.AssociateCenter(ctx, 999, 1)
	var nf *repository.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "operator", nf.Resource)
}
