package validator_test

import (
	"testing"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/inventory-sale/pkg/validator"
)

type priceInput struct {
	Name  string          `validate:"required,alphanumspace"`
	Price decimal.Decimal `validate:"nonnegdecimal"`
}

func TestDefaultValidator(t *testing.T) {
	v, err := validator.NewDefaultValidator()
	require.NoError(t, err)

	t.Run("Should accept valid input", func(t *testing.T) {
		assert.NoError(t, v.Validate(priceInput{Name: "Hand Tools", Price: decimal.RequireFromString("0")}))
	})

	t.Run("Should reject negative price", func(t *testing.T) {
		err := v.Validate(priceInput{Name: "Tools", Price: decimal.RequireFromString("-0.01")})
		require.Error(t, err)
		assert.True(t, validator.IsValidationError(err))

		fieldErrs := err.(govalidator.ValidationErrors)
		require.Len(t, fieldErrs, 1)
		assert.Equal(t, "Price", fieldErrs[0].Field())
		assert.Equal(t, "must be a non-negative decimal", validator.ValidationErrorMessage(fieldErrs[0]))
	})

	t.Run("Should reject punctuation in names", func(t *testing.T) {
		err := v.Validate(priceInput{Name: "Tools;", Price: decimal.Zero})
		require.Error(t, err)

		fieldErrs := err.(govalidator.ValidationErrors)
		assert.Equal(t, "must contain only alphanumeric characters and spaces", validator.ValidationErrorMessage(fieldErrs[0]))
	})
}
