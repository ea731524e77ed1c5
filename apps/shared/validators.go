package shared

import (
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/class"
	"github.com/edusphere/edusphere/core/course"
	"github.com/edusphere/edusphere/core/organization"
	"github.com/edusphere/edusphere/core/user"
)

// NewValidator returns a validator with the english translations and every domain rule registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	organization.InitValidators(validate, translator)
	course.InitValidators(validate, translator)
	class.InitValidators(validate, translator)
	return validate, translator
}
