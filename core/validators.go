package core

import (
	"database/sql/driver"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/tr"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	tr_translations "github.com/go-playground/validator/v10/translations/tr"
	"github.com/volatiletech/null/v8"
)

// LocalText is a message available in every supported locale.
type LocalText struct {
	En string
	Tr string
}

// In returns the text for the translator's locale (English when unknown).
func (lt LocalText) In(translator ut.Translator) string {
	if translator != nil && translator.Locale() == "tr" && lt.Tr != "" {
		return lt.Tr
	}
	return lt.En
}

var (
	// custom validation tags & texts
	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderText  = LocalText{En: "only alphanumeric characters and underscores are allowed", Tr: "yalnızca harf, rakam ve alt çizgi kullanılabilir"}
	alphaNumUnderRegex = regexp.MustCompile(`^[\w\s]+$`)

	notBlankTag  = "notblank"
	notBlankText = LocalText{En: "this field cannot be blank", Tr: "bu alan boş bırakılamaz"}

	hhmmTag   = "hhmm"
	hhmmText  = LocalText{En: "must be a time in HH:MM format", Tr: "SS:DD biçiminde bir saat olmalıdır"}
	hhmmRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

	weekdayTag  = "weekday"
	weekdayText = LocalText{En: "must be a weekday between 1 (Monday) and 7 (Sunday)", Tr: "1 (Pazartesi) ile 7 (Pazar) arasında bir gün olmalıdır"}

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = LocalText{En: "this field is required", Tr: "bu alan zorunludur"}
)

// NewTranslator returns the translator of the given locale ("tr" or "en"; English otherwise).
func NewTranslator(locale string) ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en, tr.New())
	translator, found := uni.GetTranslator(locale)
	if !found {
		translator, _ = uni.GetTranslator("en")
	}
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	if translator.Locale() == "tr" {
		_ = tr_translations.RegisterDefaultTranslations(validate, translator)
	} else {
		_ = en_translations.RegisterDefaultTranslations(validate, translator)
	}

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// validate null.* fields on their underlying values
	validate.RegisterCustomTypeFunc(nullValue, null.String{}, null.Time{}, null.Int{}, null.Float64{}, null.Bool{})

	// register custom validators
	_ = validate.RegisterValidation(alphaNumUnderTag, alphaNumUnderValidation)
	RegisterCustomTranslation(validate, translator, alphaNumUnderTag, alphaNumUnderText.In(translator))

	_ = validate.RegisterValidation(notBlankTag, validators.NotBlank)
	RegisterCustomTranslation(validate, translator, notBlankTag, notBlankText.In(translator))

	_ = validate.RegisterValidation(hhmmTag, hhmmValidation)
	RegisterCustomTranslation(validate, translator, hhmmTag, hhmmText.In(translator))

	_ = validate.RegisterValidation(weekdayTag, weekdayValidation)
	RegisterCustomTranslation(validate, translator, weekdayTag, weekdayText.In(translator))

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText.In(translator), true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText.In(translator), true)
}

// NewValidator returns a validator initialized with the translator of `locale`.
func NewValidator(locale string) (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := NewTranslator(locale)
	InitValidators(validate, translator)
	return validate, translator
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
// `text` may reference the field name with {0}.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// TranslateErrors maps validation errors to {field: message}.
func TranslateErrors(errs validator.ValidationErrors, translator ut.Translator) map[string]string {
	fldErrs := make(map[string]string, len(errs))
	for _, vErr := range errs {
		fldErrs[vErr.Field()] = vErr.Translate(translator)
	}
	return fldErrs
}

// Custom Global Validators

// alphaNumUnderValidation only allows alphanumeric characters and underscores.
func alphaNumUnderValidation(fl validator.FieldLevel) bool {
	return alphaNumUnderRegex.MatchString(fl.Field().String())
}

func hhmmValidation(fl validator.FieldLevel) bool {
	return hhmmRegex.MatchString(fl.Field().String())
}

func weekdayValidation(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		d := fl.Field().Int()
		return d >= 1 && d <= 7
	}
	return false
}

func nullValue(field reflect.Value) interface{} {
	if valuer, ok := field.Interface().(driver.Valuer); ok {
		if val, err := valuer.Value(); err == nil {
			return val
		}
	}
	return nil
}
