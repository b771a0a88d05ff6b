// Package inputval validates request bodies at the HTTP boundary.
//
// Request structs declare their rules with `validate` tags. Failures come
// back as a single apperr.BadRequest whose message joins one English
// sentence per field, using the JSON field names.
package inputval

import (
	"errors"
	"reflect"
	"strings"

	"github.com/dalemusser/studentportal/internal/app/system/apperr"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	notBlankTag   = "notblank"
	departmentTag = "department"
	sectionTag    = "section"
	objectIDTag   = "objectid"
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlank)
	_ = validate.RegisterValidation(departmentTag, department)
	_ = validate.RegisterValidation(sectionTag, section)
	_ = validate.RegisterValidation(objectIDTag, objectID)

	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, departmentTag, sectionTag, objectIDTag} {
		_ = validate.RegisterTranslation(tag, translator, registerFn, translateCustom)
	}
}

// Struct validates v and returns nil or an apperr.BadRequest.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fe.Translate(translator))
		}
		return apperr.E(apperr.BadRequest, strings.Join(msgs, "; "))
	}
	return apperr.Wrap(apperr.BadRequest, "invalid request", err)
}

// Var validates a single value against tag, reporting it under name.
func Var(name string, v any, tag string) error {
	err := validate.Var(v, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperr.E(apperr.BadRequest, name+" "+strings.TrimPrefix(verrs[0].Translate(translator), " "))
	}
	return apperr.Wrap(apperr.BadRequest, "invalid "+name, err)
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case departmentTag:
		return fe.Field() + " must be one of " + strings.Join(models.Departments, ", ")
	case sectionTag:
		return fe.Field() + " must be one of " + strings.Join(models.Sections, ", ")
	case objectIDTag:
		return fe.Field() + " must be a valid id"
	default:
		return fe.Field() + " is invalid"
	}
}

func notBlank(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return false
}

func department(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	return ok && models.IsDepartment(strings.ToUpper(strings.TrimSpace(s)))
}

func section(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, sec := range models.Sections {
		if sec == s {
			return true
		}
	}
	return false
}

func objectID(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	return ok && primitive.IsValidObjectID(strings.TrimSpace(s))
}
