package tenant

import (
	"regexp"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/iepapp/iep/core"
)

var (
	subdomainTag   = "subdomain"
	subdomainText  = core.LocalText{En: "must be 3-63 lowercase letters, digits or hyphens", Tr: "3-63 karakterlik küçük harf, rakam veya tire olmalıdır"}
	subdomainRegex = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{1,61}[a-z0-9])$`)
)

// InitValidators registers the tenant validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(subdomainTag, func(fl validator.FieldLevel) bool {
		return subdomainRegex.MatchString(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, subdomainTag, subdomainText.In(translator))
}
