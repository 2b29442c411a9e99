package services

import (
	"errors"
	"strings"
	"testing"
)

func TestStrongPassword(t *testing.T) {
	cases := map[string]bool{
		"Secret123": true,
		"Éclair99z": true,
		"secret123": false,
		"SECRET123": false,
		"SecretPwd": false,
		"":          false,
	}
	for in, want := range cases {
		if got := strongPassword(in); got != want {
			t.Fatalf("strongPassword(%q) = %v; want %v", in, got, want)
		}
	}
}

func TestValidateStruct_MoneyAndMessages(t *testing.T) {
	err := validateStruct(CreateGameInput{Title: "x", Price: dec("10.5")})
	if err != nil {
		t.Fatalf("one decimal should be accepted: %v", err)
	}

	err = validateStruct(CreateGameInput{Title: "x", Price: dec("10.505")})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields[0].Field != "price" || !strings.Contains(verr.Fields[0].Message, "2 decimals") {
		t.Fatalf("unexpected error: %v", err)
	}

	err = validateStruct(CreateOrderInput{})
	if !errors.As(err, &verr) || verr.Fields[0].Field != "items" || verr.Fields[0].Message != "is required" {
		t.Fatalf("unexpected error: %v", err)
	}

	err = validateStruct(CreateOrderInput{Items: []OrderLineInput{}})
	if !errors.As(err, &verr) || verr.Fields[0].Message != "must contain at least 1 item(s)" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidationError_Error(t *testing.T) {
	e := &ValidationError{Fields: []FieldError{{Field: "a", Message: "is required"}, {Field: "b", Message: "is invalid"}}}
	if e.Error() != "validation failed: a: is required; b: is invalid" {
		t.Fatalf("Error() = %q", e.Error())
	}
	if (&ValidationError{}).Error() != "validation failed" {
		t.Fatalf("empty ValidationError message")
	}
}
