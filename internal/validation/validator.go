package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"schools24/internal/errors"
	"schools24/internal/model"
)

// custom validation tags
const (
	notBlankTag = "notblank"
	gradeTag    = "grade"
	roleTag     = "role"
)

// Validator validates request payloads and reports failures as *errors.ValidationError
// keyed by JSON field name. It satisfies echo.Validator.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New builds a Validator with English messages and the custom tags registered.
func New() *Validator {
	validate := validator.New()

	// Register the english error messages for validation errors.
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlank)
	_ = validate.RegisterValidation(gradeTag, validGrade)
	_ = validate.RegisterValidation(roleTag, validRole)

	v := &Validator{validate: validate, translator: translator}
	v.registerCustomTranslations(notBlankTag, gradeTag, roleTag)
	return v
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &errors.ValidationError{Message: "validation failed", Fields: map[string]string{"body": err.Error()}}
	}
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = fe.Translate(v.translator)
	}
	return &errors.ValidationError{Message: "validation failed", Fields: fields}
}

// registerCustomTranslations registers messages for the custom tags. The
// registration func is a noop since the default translations are already loaded.
func (v *Validator) registerCustomTranslations(tags ...string) {
	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range tags {
		_ = v.validate.RegisterTranslation(tag, v.translator, registerFn, translateCustom)
	}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case gradeTag:
		return "invalid grade"
	case roleTag:
		return "invalid role"
	default:
		return fe.Error()
	}
}

func notBlank(fl validator.FieldLevel) bool {
	if fl.Field().Kind() == reflect.String {
		return strings.TrimSpace(fl.Field().String()) != ""
	}
	return false
}

func validGrade(fl validator.FieldLevel) bool {
	return fl.Field().Kind() == reflect.String && model.Grade(fl.Field().String()).Valid()
}

func validRole(fl validator.FieldLevel) bool {
	return fl.Field().Kind() == reflect.String && model.Role(fl.Field().String()).Valid()
}
