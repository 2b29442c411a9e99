package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// PasswordPolicyMessage is reported when a password lacks an upper-case
// letter, a lower-case letter or a digit.
const PasswordPolicyMessage = "Le mot de passe doit contenir au moins une majuscule, une minuscule et un chiffre"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report JSON names rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	// Decimals are validated through their canonical string form.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return strongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && !d.IsNegative() && d.Exponent() >= -2
	})
	return v
}

func strongPassword(s string) bool {
	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// validateStruct runs the struct tags of in and converts failures into a
// *ValidationError.
func validateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fieldPath(fe), Message: message(fe)})
	}
	return out
}

// fieldPath drops the struct name prefix: "CreateOrderInput.items[0].quantity"
// becomes "items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "strongpassword":
		return PasswordPolicyMessage
	case "money":
		return "must be a non-negative amount with at most 2 decimals"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if isCollection(fe.Kind()) {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be >= " + fe.Param()
	case "max":
		if isCollection(fe.Kind()) {
			return fmt.Sprintf("must contain at most %s item(s)", fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be <= " + fe.Param()
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	default:
		return "is invalid"
	}
}

func isCollection(k reflect.Kind) bool {
	return k == reflect.Slice || k == reflect.Array || k == reflect.Map
}
