package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Garment condition validation
	validate.RegisterValidation("condition", func(fl validator.FieldLevel) bool {
		condition := fl.Field().String()
		validConditions := []string{"new", "like_new", "good", "fair", "worn"}
		for _, c := range validConditions {
			if condition == c {
				return true
			}
		}
		return false
	})

	// Catalog sort key validation
	validate.RegisterValidation("item_sort", func(fl validator.FieldLevel) bool {
		sort := fl.Field().String()
		validSorts := []string{"newest", "points_asc", "points_desc", ""}
		for _, s := range validSorts {
			if sort == s {
				return true
			}
		}
		return false
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "email":
			errors[field] = "Invalid email format"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "url":
			errors[field] = "Invalid URL format"
		case "uuid":
			errors[field] = "Invalid UUID"
		case "condition":
			errors[field] = "Invalid condition. Must be: new, like_new, good, fair, or worn"
		case "item_sort":
			errors[field] = "Invalid sort key. Must be: newest, points_asc, or points_desc"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
