// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

// Package validate provides a chainable Validator that collects
// field-level problems before collapsing them into a single flat
// [apperr.AppError] message, plus the shared sentinel for undecodable
// request bodies. The service layer runs the Validator before the
// business rules that depend on the validated fields.
package validate

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/keyward/keyward/internal/platform/apperr"
)

// usernameRegex matches the 3-32 character, [A-Za-z0-9_-] username format.
var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)

// ErrInvalidJSON is returned when the request body cannot be decoded.
var ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")

// Validator collects validation failures via a fluent, chainable API.
//
// Validator is not safe for concurrent use. A new instance must be created
// for every request/operation.
type Validator struct {
	errs []string
}

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field + " is required")
	}
	return v
}

// MaxLen fails if the Unicode character count exceeds max.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.add(field + " is too long")
	}
	return v
}

// MinLen fails if the Unicode character count is below min.
func (v *Validator) MinLen(field, value string, min int) *Validator {
	if utf8.RuneCountInString(value) < min {
		v.add(field + " is too short")
	}
	return v
}

// Username fails if value does not match the 3-32 character
// `[A-Za-z0-9_-]` username format.
func (v *Validator) Username(field, value string) *Validator {
	if !usernameRegex.MatchString(value) {
		v.add(field + " must be 3-32 characters of letters, digits, underscore, or hyphen")
	}
	return v
}

// Email fails if the value is not a valid RFC 5322 email address.
func (v *Validator) Email(field, value string) *Validator {
	if _, err := mail.ParseAddress(value); err != nil {
		v.add(field + " must be a valid email address")
	}
	return v
}

// Custom adds a failure with a custom message if the condition is true.
func (v *Validator) Custom(failed bool, message string) *Validator {
	if failed {
		v.add(message)
	}
	return v
}

// Err returns a [apperr.AppError] (validation kind) if any rules failed, or
// nil if all rules passed. This is the only output method — call it at the
// end of the chain.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError(strings.Join(v.errs, "; "))
}

// HasErrors reports whether any validation rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

func (v *Validator) add(message string) {
	v.errs = append(v.errs, message)
}
