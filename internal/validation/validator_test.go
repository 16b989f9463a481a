package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Amount string `json:"amount" validate:"required,decimal_amount"`
	On     string `json:"transactionDate" validate:"omitempty,isodate"`
	Page   int    `query:"page" validate:"omitempty,min=1"`
}

func TestDecimalAmount(t *testing.T) {
	v := GetValidator().GetValidate()

	testCases := []struct {
		amount string
		valid  bool
	}{
		{"100", true},
		{"0", true},
		{"12.5", true},
		{"12.50", true},
		{"0.01", true},
		{"12.505", false},
		{"-1", false},
		{"abc", false},
	}

	for _, tc := range testCases {
		t.Run(tc.amount, func(t *testing.T) {
			err := v.Struct(sample{Amount: tc.amount})
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestISODate(t *testing.T) {
	v := GetValidator().GetValidate()

	assert.NoError(t, v.Struct(sample{Amount: "1", On: "2025-02-28"}))
	assert.Error(t, v.Struct(sample{Amount: "1", On: "2025-02-30"}))
	assert.Error(t, v.Struct(sample{Amount: "1", On: "28/02/2025"}))
}

func TestFieldNamesFollowTags(t *testing.T) {
	err := GetValidator().GetValidate().Struct(sample{Amount: "x", On: "bad", Page: -1})

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	assert.ElementsMatch(t, []string{"amount", "transactionDate", "page"}, fields)
}

func TestGetValidatorIsShared(t *testing.T) {
	assert.Same(t, GetValidator(), GetValidator())
}
