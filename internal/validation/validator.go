// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

// Package validation provides struct validation using go-playground/validator
// v10 behind a thread-safe singleton with translated error messages.
//
// The config loader runs every section through ValidateStruct before the
// daemon starts; a failed validation aborts startup with a readable message.
//
// Example:
//
//	type StreamConfig struct {
//	    Transport string `validate:"oneof=sse websocket"`
//	    Path      string `validate:"required,startswith=/"`
//	}
//
//	if err := validation.ValidateStruct(&cfg); err != nil {
//	    return fmt.Errorf("invalid stream config: %w", err)
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// singleton validator instance
var (
	instance *validator.Validate
	once     sync.Once
)

// FieldError is a single field validation failure with structured detail.
type FieldError struct {
	field   string
	tag     string
	param   string
	value   interface{}
	message string
}

// Field returns the struct field name that failed validation.
func (e *FieldError) Field() string { return e.field }

// Tag returns the validation tag that failed.
func (e *FieldError) Tag() string { return e.tag }

// Param returns the parameter of the failed tag (e.g. "65535" for "max=65535").
func (e *FieldError) Param() string { return e.param }

// Value returns the value that failed validation.
func (e *FieldError) Value() interface{} { return e.value }

// Error returns a human-readable message.
func (e *FieldError) Error() string { return e.message }

// StructError collects every field failure from one ValidateStruct call.
type StructError struct {
	fields []FieldError
}

// Fields returns the individual field errors.
func (se *StructError) Fields() []FieldError { return se.fields }

// Error implements the error interface, joining all field messages.
func (se *StructError) Error() string {
	if len(se.fields) == 0 {
		return "validation failed"
	}

	messages := make([]string, len(se.fields))
	for i := range se.fields {
		messages[i] = se.fields[i].message
	}
	return strings.Join(messages, "; ")
}

// GetValidator returns the singleton validator instance. Thread-safe; the
// instance caches struct metadata across calls.
func GetValidator() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
	})
	return instance
}

// ValidateStruct validates a struct via the singleton validator. Returns nil
// on success or a *StructError describing every failing field.
func ValidateStruct(s interface{}) *StructError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &StructError{fields: []FieldError{{
			field:   "unknown",
			tag:     "unknown",
			message: err.Error(),
		}}}
	}

	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{
			field:   fe.Field(),
			tag:     fe.Tag(),
			param:   fe.Param(),
			value:   fe.Value(),
			message: translateError(fe),
		}
	}
	return &StructError{fields: fields}
}

// simpleTemplates maps validation tags to messages that only name the field.
var simpleTemplates = map[string]string{
	"required": "%s is required",
	"url":      "%s must be a valid URL",
	"ip":       "%s must be a valid IP address",
	"hostname": "%s must be a valid hostname",
}

// paramTemplates maps validation tags to messages that include the parameter.
var paramTemplates = map[string]string{
	"oneof":      "%s must be one of: %s",
	"gte":        "%s must be greater than or equal to %s",
	"lte":        "%s must be less than or equal to %s",
	"gt":         "%s must be greater than %s",
	"lt":         "%s must be less than %s",
	"gtefield":   "%s must be greater than or equal to %s",
	"startswith": "%s must start with %s",
}

// translateError converts a validator.FieldError to a readable message.
// min/max word differently for strings (length) than for numbers (value).
func translateError(fe validator.FieldError) string {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()

	if template, ok := simpleTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := paramTemplates[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}

	isString := fe.Kind() == reflect.String
	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters long", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters long", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	}
	return fmt.Sprintf("%s is invalid (%s)", field, tag)
}
