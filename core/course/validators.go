package course

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/edusphere/edusphere/core"
)

var (
	levelTag  = "courselevel"
	levelText = "invalid level"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	levels := make([]string, 0, len(AllLevels))
	for _, l := range AllLevels {
		levels = append(levels, string(l))
	}
	core.RegisterEnumValidation(validate, translator, levelTag, levelText, levels...)
}
