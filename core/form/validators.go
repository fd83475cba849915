package form

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/formnet/core"
)

var (
	fieldTypeTag  = "fieldtype"
	fieldTypeText = "invalid field type"

	ruleOpTag  = "ruleop"
	ruleOpText = "invalid rule operator"

	formStatusTag  = "formstatus"
	formStatusText = "invalid form status"
)

// InitValidators registers the form validation tags. `role` is registered by user.InitValidators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(fieldTypeTag, func(fl validator.FieldLevel) bool {
		return isFieldType(FieldType(fl.Field().String()))
	})
	core.RegisterCustomTranslation(validate, translator, fieldTypeTag, fieldTypeText)

	_ = validate.RegisterValidation(ruleOpTag, func(fl validator.FieldLevel) bool {
		return isOperator(Operator(fl.Field().String()))
	})
	core.RegisterCustomTranslation(validate, translator, ruleOpTag, ruleOpText)

	_ = validate.RegisterValidation(formStatusTag, func(fl validator.FieldLevel) bool {
		return isStatus(Status(fl.Field().String()))
	})
	core.RegisterCustomTranslation(validate, translator, formStatusTag, formStatusText)
}
