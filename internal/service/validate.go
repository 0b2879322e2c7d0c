package service

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/storage"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their request names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// validateInput runs the struct's validate tags and converts failures into a
// *domain.ValidationError keyed by request field.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validate input")
	}
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		fields[name] = append(fields[name], fieldMessage(fe))
	}
	return &domain.ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	name := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", name)
	case "eqfield":
		return fmt.Sprintf("The %s field must match %s.", name, strings.ToLower(fe.Param()))
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", name)
	case "min", "gte":
		if isCollection(fe.Kind()) {
			return fmt.Sprintf("The %s field must have at least %s items.", name, fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must be at least %s characters.", name, fe.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s.", name, fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must not be greater than %s characters.", name, fe.Param())
		}
		return fmt.Sprintf("The %s field must not be greater than %s.", name, fe.Param())
	case "gt":
		return fmt.Sprintf("The %s field must be greater than %s.", name, fe.Param())
	case "numeric":
		return fmt.Sprintf("The %s field must be a number.", name)
	}
	return fmt.Sprintf("The %s field is invalid.", name)
}

func isCollection(k reflect.Kind) bool {
	return k == reflect.Slice || k == reflect.Array || k == reflect.Map
}

// addRequired folds "field is required" messages into the result of
// validateInput. Non-validation errors are returned unchanged.
func addRequired(err error, fields ...string) error {
	var ve *domain.ValidationError
	if err != nil && !errors.As(err, &ve) {
		return err
	}
	if len(fields) == 0 {
		return err
	}
	if ve == nil {
		ve = &domain.ValidationError{}
	}
	if ve.Fields == nil {
		ve.Fields = map[string][]string{}
	}
	for _, field := range fields {
		ve.Fields[field] = append(ve.Fields[field], fmt.Sprintf("The %s field is required.", strings.ReplaceAll(field, "_", " ")))
	}
	return ve
}

// requireFiles reports every missing upload as a required field.
func requireFiles(err error, files map[string]*storage.Upload) error {
	var missing []string
	for field, up := range files {
		if up == nil {
			missing = append(missing, field)
		}
	}
	sort.Strings(missing)
	return addRequired(err, missing...)
}
