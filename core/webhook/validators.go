package webhook

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/iepapp/iep/core"
)

var (
	eventTag  = "event"
	eventText = core.LocalText{En: "unknown event", Tr: "bilinmeyen olay"}
)

func eventValidation(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	for _, e := range core.AllEvents {
		if e == v {
			return true
		}
	}
	return false
}

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(eventTag, eventValidation)
	core.RegisterCustomTranslation(validate, translator, eventTag, eventText.In(translator))
}
