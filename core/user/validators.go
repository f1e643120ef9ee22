package user

import (
	"bufio"
	"bytes"
	"compress/gzip"
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/iepapp/iep/core"
)

//go:embed assets/common-passwords.txt.gz
var commonPasswordsGz []byte

var (
	roleTag  = "role"
	roleText = core.LocalText{En: "invalid role", Tr: "geçersiz rol"}

	usernameOrEmailTag  = "username_or_email"
	usernameOrEmailText = core.LocalText{En: "one of username or email is required", Tr: "kullanıcı adı veya e-posta zorunludur"}

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = core.LocalText{
		En: fmt.Sprintf("password must contain at least %d characters", pwdMinLen),
		Tr: fmt.Sprintf("parola en az %d karakter içermelidir", pwdMinLen),
	}

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = core.LocalText{En: "password must not contain whitespace", Tr: "parola boşluk içermemelidir"}

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = core.LocalText{En: "password cannot be entirely numeric", Tr: "parola yalnızca rakamlardan oluşamaz"}

	pwdComplexityTag  = "pwdcplx"
	pwdComplexityText = core.LocalText{
		En: "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character",
		Tr: "parola en az 1 büyük harf, 1 küçük harf, 1 rakam ve 1 özel karakter içermelidir",
	}
	specialRegex = regexp.MustCompile("[^A-Za-z0-9]")

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = core.LocalText{En: "password cannot be similar to user attributes", Tr: "parola kullanıcı bilgilerine benzer olamaz"}

	pwdNoCommonTag  = "pwdnocommon"
	pwdNoCommonText = core.LocalText{En: "password is too common", Tr: "parola çok yaygın"}

	commonPasswords     []string
	commonPasswordsOnce sync.Once
)

// InitValidators registers the user validation tags and the password policy.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	LoadCommonPasswords()

	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText.In(translator))

	validate.RegisterStructValidation(userStructValidation, NewUser{}, UpdateUser{}, ResetUserPassword{})
	core.RegisterCustomTranslation(validate, translator, usernameOrEmailTag, usernameOrEmailText.In(translator))
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText.In(translator))
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText.In(translator))
	core.RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText.In(translator))
	core.RegisterCustomTranslation(validate, translator, pwdComplexityTag, pwdComplexityText.In(translator))
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText.In(translator))
	core.RegisterCustomTranslation(validate, translator, pwdNoCommonTag, pwdNoCommonText.In(translator))
}

// LoadCommonPasswords loads the embedded list of common passwords (once).
func LoadCommonPasswords() {
	commonPasswordsOnce.Do(func() {
		gzRdr, err := gzip.NewReader(bytes.NewReader(commonPasswordsGz))
		if err != nil {
			return
		}
		//goland:noinspection GoUnhandledErrorResult
		defer gzRdr.Close()
		scanner := bufio.NewScanner(gzRdr)
		for scanner.Scan() {
			if pwd := strings.TrimSpace(scanner.Text()); pwd != "" {
				commonPasswords = append(commonPasswords, pwd)
			}
		}
		sort.Strings(commonPasswords)
	})
}

// Custom Validators

// roleValidation checks that the role is one of AllRoles
func roleValidation(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// userStructValidation does struct level validation on NewUser, UpdateUser and ResetUserPassword structs.
func userStructValidation(sl validator.StructLevel) {
	switch usr := sl.Current().Interface().(type) {
	case NewUser:
		validateUsernameAndEmail(usr, sl)
		validatePassword(usr.Password, usr.Name, usr.Username, usr.Email, sl)
	case UpdateUser:
		if usr.Password != "" {
			validatePassword(usr.Password, usr.Name, usr.Username, usr.Email, sl)
		}
	case ResetUserPassword:
		validatePassword(usr.Password, "", "", "", sl)
	}
}

// validateUsernameAndEmail checks that one of Username or Email is provided
func validateUsernameAndEmail(nu NewUser, sl validator.StructLevel) {
	if len(nu.Username) == 0 && len(nu.Email) == 0 {
		sl.ReportError(nu.Username, "username", "Username", usernameOrEmailTag, "")
		sl.ReportError(nu.Email, "email", "Email", usernameOrEmailTag, "")
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 8
// - no whitespace
// - no all numeric
// - complexity: 1 upper, 1 lower, 1 digit, 1 special
// - no user attrs similarity
// - no common password
func validatePassword(pwd, name, uname, email string, sl validator.StructLevel) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	var (
		digitCount                             int
		hasUpper, hasLower, hasDig, hasSpecial bool
	)

	pwdRunes := []rune(pwd)
	pwdLen := len(pwdRunes)
	if pwdLen < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}
	for _, char := range pwdRunes {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
		if !hasUpper && unicode.IsUpper(char) {
			hasUpper = true
		}
		if !hasLower && unicode.IsLower(char) {
			hasLower = true
		}
	}

	if digitCount == pwdLen {
		reportErr(pwdNotAllNumTag)
		return
	}

	hasDig = digitCount > 0
	hasSpecial = specialRegex.MatchString(pwd)
	if !(hasUpper && hasLower && hasDig && hasSpecial) {
		reportErr(pwdComplexityTag)
		return
	}

	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(strings.ToLower(pass), ""), strings.Split(strings.ToLower(usrAttr), "")).QuickRatio()
	}
	if getRatio(pwd, name) >= pwdMaxSim ||
		getRatio(pwd, uname) >= pwdMaxSim ||
		getRatio(pwd, email) >= pwdMaxSim {
		reportErr(pwdAttrSimTag)
		return
	}

	lpwd := strings.ToLower(pwd)
	if idx := sort.SearchStrings(commonPasswords, lpwd); idx < len(commonPasswords) && commonPasswords[idx] == lpwd {
		reportErr(pwdNoCommonTag)
	}
}
