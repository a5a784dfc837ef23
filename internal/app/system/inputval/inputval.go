// Package inputval validates form input against struct tags.
//
// Fields declare rules with `validate:"..."` and a human label with
// `label:"..."`; error messages are built from the label so they can be
// shown to users as-is.
package inputval

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// FieldError is a single validation failure.
type FieldError struct {
	Field   string
	Message string
}

// Result collects validation failures for one input struct.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first error message, or "" if validation passed.
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every error message with "; ".
func (r *Result) All() string {
	if len(r.Errors) == 0 {
		return ""
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every string field of input against its validate tag.
// Rules are applied in tag order and evaluation stops at the first failure
// per field. Supported rules: required, max=N, min=N, email, role, status,
// authmethod, objectid.
func Validate(input any) *Result {
	res := &Result{}

	v := reflect.ValueOf(input)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get("validate")
		if tag == "" || sf.Type.Kind() != reflect.String {
			continue
		}
		label := sf.Tag.Get("label")
		if label == "" {
			label = sf.Name
		}
		value := v.Field(i).String()

		for _, rule := range strings.Split(tag, ",") {
			if msg := applyRule(rule, label, value); msg != "" {
				res.Errors = append(res.Errors, FieldError{Field: sf.Name, Message: msg})
				break
			}
		}
	}
	return res
}

// applyRule returns an error message or "" if the rule passed.
func applyRule(rule, label, value string) string {
	name, arg, _ := strings.Cut(rule, "=")

	switch name {
	case "required":
		if strings.TrimSpace(value) == "" {
			return label + " is required."
		}
	case "max":
		n, err := strconv.Atoi(arg)
		if err == nil && len([]rune(value)) > n {
			return fmt.Sprintf("%s must be at most %d characters.", label, n)
		}
	case "min":
		n, err := strconv.Atoi(arg)
		if err == nil && value != "" && len([]rune(value)) < n {
			return fmt.Sprintf("%s must be at least %d characters.", label, n)
		}
	case "email":
		if !IsValidEmail(value) {
			return "A valid email address is required."
		}
	case "role":
		if value != "" && !IsValidRole(value) {
			return label + " must be admin or user."
		}
	case "status":
		if value != "" && !IsValidMembershipStatus(value) {
			return label + " is not a recognized membership status."
		}
	case "authmethod":
		if value != "" && !IsValidAuthMethod(value) {
			return fmt.Sprintf("%s must be one of: %s.", label, strings.Join(AllowedAuthMethodsList(), ", "))
		}
	case "objectid":
		if value != "" && !IsValidObjectID(value) {
			return label + " is not a valid identifier."
		}
	}
	return ""
}
