package class

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/edusphere/edusphere/core"
)

var (
	statusTag  = "classstatus"
	statusText = "invalid status"

	datesTag  = "enddate"
	datesText = "end date must be after start date"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	statuses := make([]string, 0, len(AllStatuses))
	for _, s := range AllStatuses {
		statuses = append(statuses, string(s))
	}
	core.RegisterEnumValidation(validate, translator, statusTag, statusText, statuses...)

	validate.RegisterStructValidation(classStructValidation, NewClass{}, UpdateClass{})
	core.RegisterCustomTranslation(validate, translator, datesTag, datesText)
}

func classStructValidation(sl validator.StructLevel) {
	switch cls := sl.Current().Interface().(type) {
	case NewClass:
		validateDates(sl, cls.StartDate, cls.EndDate)
	case UpdateClass:
		start, end := cls.orig.StartDate, cls.orig.EndDate
		if cls.StartDate != nil {
			start = cls.StartDate
		}
		if cls.EndDate != nil {
			end = cls.EndDate
		}
		validateDates(sl, start, end)
	}
}

func validateDates(sl validator.StructLevel, start, end *time.Time) {
	if start != nil && end != nil && !end.After(*start) {
		sl.ReportError(end, "end_date", "EndDate", datesTag, "")
	}
}
