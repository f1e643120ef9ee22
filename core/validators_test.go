package core

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
)

type validatedSlot struct {
	Name    string      `json:"name" validate:"required,notblank"`
	Code    string      `json:"code" validate:"omitempty,alphanum_"`
	Start   string      `json:"startTime" validate:"required,hhmm"`
	Weekday int         `json:"weekday" validate:"weekday"`
	Email   null.String `json:"email" validate:"omitempty,email"`
}

func TestInitValidators(t *testing.T) {
	tests := []struct {
		name   string
		locale string
		slot   validatedSlot
		want   map[string]string
	}{
		{
			name: "valid", locale: "en",
			slot: validatedSlot{Name: "Math", Code: "m_1", Start: "08:30", Weekday: 1, Email: null.StringFrom("a@b.co")},
		},
		{
			name: "en messages", locale: "en",
			slot: validatedSlot{Name: "  ", Code: "m-1", Start: "8:30", Weekday: 8, Email: null.StringFrom("nope")},
			want: map[string]string{
				"name":      "this field cannot be blank",
				"code":      "only alphanumeric characters and underscores are allowed",
				"startTime": "must be a time in HH:MM format",
				"weekday":   "must be a weekday between 1 (Monday) and 7 (Sunday)",
				"email":     "email must be a valid email address",
			},
		},
		{
			name: "tr messages", locale: "tr",
			slot: validatedSlot{Weekday: 3},
			want: map[string]string{
				"name":      "bu alan zorunludur",
				"startTime": "bu alan zorunludur",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validate, translator := NewValidator(tt.locale)
			err := validate.Struct(tt.slot)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			var vErrs validator.ValidationErrors
			require.ErrorAs(t, err, &vErrs)
			assert.Equal(t, tt.want, TranslateErrors(vErrs, translator))
		})
	}
}
