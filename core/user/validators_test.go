package user

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iepapp/iep/core"
)

func TestPasswordPolicy(t *testing.T) {
	validate, translator := core.NewValidator("en")
	InitValidators(validate, translator)

	newUser := func(pwd string) NewUser {
		return NewUser{Name: "Ayşe Yılmaz", Username: "ayilmaz", Email: "ayse@okul.test", Password: pwd, PasswordConfirm: pwd, Role: RoleTeacher}
	}
	tests := []struct {
		name string
		data interface{}
		want map[string]string
	}{
		{name: "valid", data: newUser("LolC@t123")},
		{name: "min len", data: newUser("lol"), want: map[string]string{"password": "password must contain at least 8 characters"}},
		{name: "no whitespace", data: newUser("l o loll"), want: map[string]string{"password": "password must not contain whitespace"}},
		{name: "not all numeric", data: newUser("12345678"), want: map[string]string{"password": "password cannot be entirely numeric"}},
		{
			name: "complexity", data: newUser("lol12345"),
			want: map[string]string{"password": "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"},
		},
		{name: "similar to username", data: newUser("Ayilmaz1!"), want: map[string]string{"password": "password cannot be similar to user attributes"}},
		{name: "too common", data: newUser("P@$$w0rd"), want: map[string]string{"password": "password is too common"}},
		{
			name: "username or email", data: NewUser{Name: "X", Password: "LolC@t123", PasswordConfirm: "LolC@t123", Role: RoleParent},
			want: map[string]string{"username": "one of username or email is required", "email": "one of username or email is required"},
		},
		{
			name: "invalid role", data: NewUser{Name: "X", Email: "x@y.test", Password: "LolC@t123", PasswordConfirm: "LolC@t123", Role: "owner"},
			want: map[string]string{"role": "invalid role"},
		},
		{
			name: "reset requires fields", data: ResetUserPassword{},
			want: map[string]string{
				"tenant": "this field is required", "token": "this field is required", "uid": "this field is required",
				"password": "password must contain at least 8 characters", "passwordConfirm": "this field is required",
			},
		},
		{name: "update without password", data: UpdateUser{Name: "X"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.data)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			var vErrs validator.ValidationErrors
			require.ErrorAs(t, err, &vErrs)
			assert.Equal(t, tt.want, core.TranslateErrors(vErrs, translator))
		})
	}
}
