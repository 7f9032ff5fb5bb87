// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

// Package validation provides struct validation using go-playground/validator
// v10. It exposes a thread-safe singleton validator instance with one
// custom validator, uuid_required, since validator's own "required" tag
// is a no-op against a fixed-size [16]byte array like uuid.UUID: its
// length never changes, so a Nil UUID would otherwise pass.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single field-level validation failure, field names and
// messages already resolved so callers never touch the validator library
// directly.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

// Errors is a collection of FieldError, returned in declaration order.
type Errors []*FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return strings.Join(msgs, "; ")
}

// GetValidator returns the singleton validator.Validate instance,
// registering uuid_required on first use.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		if err := validate.RegisterValidation("uuid_required", notNilUUID); err != nil {
			panic(fmt.Sprintf("validation: register uuid_required: %v", err))
		}
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})
	})
	return validate
}

func notNilUUID(fl validator.FieldLevel) bool {
	id, ok := fl.Field().Interface().(uuid.UUID)
	if !ok {
		return false
	}
	return id != uuid.Nil
}

// ValidateStruct runs the singleton validator against s, translating any
// failures into Errors. Returns nil when s passes validation.
func ValidateStruct(s interface{}) Errors {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Errors{{Field: "unknown", Message: err.Error()}}
	}

	out := make(Errors, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = &FieldError{Field: fe.Field(), Message: translate(fe)}
	}
	return out
}

var messageTemplates = map[string]string{
	"required":     "required",
	"uuid_required": "required",
}

var messageTemplatesWithParam = map[string]string{
	"gte":   "must be greater than or equal to %s",
	"lte":   "must be less than or equal to %s",
	"gt":    "must be greater than %s",
	"lt":    "must be less than %s",
	"oneof": "must be one of: %s",
	"min":   "must be at least %s",
	"max":   "must be at most %s",
}

func translate(fe validator.FieldError) string {
	tag, param := fe.Tag(), fe.Param()
	if msg, ok := messageTemplates[tag]; ok {
		return msg
	}
	if tmpl, ok := messageTemplatesWithParam[tag]; ok {
		return fmt.Sprintf(tmpl, param)
	}
	return fmt.Sprintf("failed %s validation", tag)
}
