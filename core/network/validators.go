package network

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/formnet/core"
)

var (
	islandTag  = "island"
	islandText = "invalid island"

	centerTypeTag  = "centertype"
	centerTypeText = "invalid center type"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(islandTag, func(fl validator.FieldLevel) bool {
		return IsValidIsland(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, islandTag, islandText)

	_ = validate.RegisterValidation(centerTypeTag, func(fl validator.FieldLevel) bool {
		return IsValidCenterType(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, centerTypeTag, centerTypeText)
}
