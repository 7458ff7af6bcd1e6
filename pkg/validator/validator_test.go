package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Entity   string `json:"entity" validate:"required,grn"`
}

func TestValidateStructSuccess(t *testing.T) {
	payload := testPayload{
		Username: "alice",
		Email:    "alice@example.com",
		Entity:   "grn::::stream:57bc9188e62a2373778d9e03",
	}

	require.NoError(t, ValidateStruct(payload))
}

func TestValidateStructFailures(t *testing.T) {
	payload := testPayload{
		Username: "",
		Email:    "invalid",
		Entity:   "stream:1",
	}

	err := ValidateStruct(payload)
	require.Error(t, err)

	var vErrs ValidationErrors
	require.ErrorAs(t, err, &vErrs)
	require.Len(t, vErrs, 3)

	fields := make([]string, 0, len(vErrs))
	for _, v := range vErrs {
		fields = append(fields, v.Field)
	}
	require.ElementsMatch(t, []string{"username", "email", "entity"}, fields)
}

func TestGRNRuleWithType(t *testing.T) {
	type dependency struct {
		Target string `json:"target" validate:"grn=stream"`
	}

	require.NoError(t, ValidateStruct(dependency{Target: "grn::::stream:s1"}))
	require.Error(t, ValidateStruct(dependency{Target: "grn::::dashboard:d1"}))
}

func TestRegisterValidation(t *testing.T) {
	err := RegisterValidation("capability", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == "view"
	})
	require.NoError(t, err)

	type custom struct {
		Value string `validate:"capability"`
	}

	require.NoError(t, ValidateStruct(custom{Value: "view"}))
	require.Error(t, ValidateStruct(custom{Value: "other"}))
}
