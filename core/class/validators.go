package class

import (
	"regexp"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/iepapp/iep/core"
)

var (
	academicYearTag   = "academicyear"
	academicYearText  = core.LocalText{En: "must be an academic year such as 2024-2025", Tr: "2024-2025 gibi bir eğitim yılı olmalıdır"}
	academicYearRegex = regexp.MustCompile(`^(\d{4})-(\d{4})$`)
)

// InitValidators registers the class validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(academicYearTag, academicYearValidation)
	core.RegisterCustomTranslation(validate, translator, academicYearTag, academicYearText.In(translator))
}

// academicYearValidation accepts "YYYY-YYYY" where the second year follows the first.
func academicYearValidation(fl validator.FieldLevel) bool {
	m := academicYearRegex.FindStringSubmatch(fl.Field().String())
	if m == nil {
		return false
	}
	from, _ := strconv.Atoi(m[1])
	to, _ := strconv.Atoi(m[2])
	return to == from+1
}
