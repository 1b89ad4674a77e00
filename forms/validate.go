package forms

import (
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/dispatch_forms/models"
)

var validate = validator.New()

// Validate checks rec against the rules of its kind. It has no side effects.
func Validate(rec models.DraftRecord) models.ValidationResult {
	result := models.ValidationResult{}
	spec := rec.Kind.Spec()
	if spec == nil {
		return result
	}

	for _, f := range spec.Fields {
		value := strings.TrimSpace(rec.Fields[f.Name])
		if f.Required {
			if err := validate.Var(value, "required"); err != nil {
				result[f.Name] = f.Label + " is required"
				continue
			}
		}
		if value == "" {
			continue
		}
		switch f.Input {
		case models.InputDate:
			if err := validate.Var(value, "datetime="+models.DateLayout); err != nil {
				result[f.Name] = f.Label + " must be a date in YYYY-MM-DD format"
			}
		case models.InputSelector:
			if !slices.Contains(f.Options, value) {
				result[f.Name] = f.Label + " must be one of " + strings.Join(f.Options, ", ")
			}
		}
	}
	return result
}
