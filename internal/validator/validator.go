package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/models"
)

const maxStudentIDLength = 64

// Validator wraps go-playground/validator with the engine's custom tags
type Validator struct {
	structValidator *validator.Validate
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{structValidator: structValidator}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates s and converts failures to ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("finish_reason", validateFinishReason)
	validate.RegisterValidation("student_id", validateStudentID)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateFinishReason(fl validator.FieldLevel) bool {
	validReasons := []models.FinishReason{
		models.FinishedByCount,
		models.FinishedByTime,
		models.FinishedByClosure,
		models.FinishedByExhaustion,
		models.FinishedByRequest,
	}

	value := fl.Field().String()
	for _, reason := range validReasons {
		if string(reason) == value {
			return true
		}
	}
	return false
}

// validateStudentID accepts empty values so it can be combined with omitempty
func validateStudentID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	trimmed := strings.TrimSpace(value)
	return trimmed != "" && len(trimmed) <= maxStudentIDLength
}
