// internal/services/validation.go
package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/Corphon/ScriptRehearsal/internal/errors"
)

// fieldMessages holds the user-facing message per json field and failed tag.
var fieldMessages = map[string]string{
	"title/min":            "Title must be at least 3 characters",
	"title/required":       "Title is required",
	"name/min":             "Character name must be at least 2 characters",
	"name/required":        "Character name is required",
	"content/min":          "Dialogue content cannot be empty",
	"content/required":     "Dialogue content cannot be empty",
	"characterId/required": "Character is required",
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validateStruct runs the struct's validate tags and converts failures into a
// validation AppError with one message per field.
func validateStruct(v *validator.Validate, message string, s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewProcessingError("validation failed", err)
	}

	fields := make([]apperrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperrors.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return apperrors.NewFieldValidationError(message, fields...)
}

func fieldMessage(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Field()+"/"+fe.Tag()]; ok {
		return msg
	}
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}
