package validation

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrongPassword(t *testing.T) {
	require.NoError(t, RegisterCustomValidators())
	v := binding.Validator.Engine().(*validator.Validate)

	cases := []struct {
		password string
		valid    bool
	}{
		{"Password1", true},
		{"Str0ngEnough", true},
		{"short1A", false},
		{"alllowercase1", false},
		{"ALLUPPERCASE1", false},
		{"NoDigitsHere", false},
		{"", false},
	}
	for _, tc := range cases {
		err := v.Var(tc.password, "strongpassword")
		if tc.valid {
			assert.NoError(t, err, "password %q", tc.password)
		} else {
			assert.Error(t, err, "password %q", tc.password)
		}
	}
}

func TestFormatValidationErrors(t *testing.T) {
	require.NoError(t, RegisterCustomValidators())
	v := binding.Validator.Engine().(*validator.Validate)

	type form struct {
		Email    string `binding:"required,email"`
		Password string `binding:"required,strongpassword"`
	}

	err := v.Struct(form{Email: "not-an-email", Password: ""})
	require.Error(t, err)

	details := FormatValidationErrors(err)
	assert.Contains(t, details["email"], "valid email address")
	assert.Contains(t, details["password"], "required")
}

func TestFormatValidationErrorsNonValidator(t *testing.T) {
	details := FormatValidationErrors(errors.New("unexpected EOF"))
	assert.Equal(t, map[string]string{"body": "invalid request body"}, details)
}
