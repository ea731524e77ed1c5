package organization

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/edusphere/edusphere/core"
)

var (
	typeTag  = "orgtype"
	typeText = "invalid organization type"

	statusTag  = "orgstatus"
	statusText = "invalid status"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	types := make([]string, 0, len(AllTypes))
	for _, t := range AllTypes {
		types = append(types, string(t))
	}
	core.RegisterEnumValidation(validate, translator, typeTag, typeText, types...)

	statuses := make([]string, 0, len(AllStatuses))
	for _, s := range AllStatuses {
		statuses = append(statuses, string(s))
	}
	core.RegisterEnumValidation(validate, translator, statusTag, statusText, statuses...)
}
