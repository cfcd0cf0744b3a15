// Package validate checks untyped JSON payloads and turns them into domain records.
//
// Every check is structural first (is the field a string, is the body an object)
// and semantic second (length, pattern, enumeration). Functions never panic on
// hostile input; they return *Error with a reason suitable for showing to the caller.
package validate

import (
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"
)

// Error is a rejected payload. Reason is safe to echo to the caller.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return fmt.Sprintf("validate: %s", e.Reason)
	}
	return fmt.Sprintf("validate: %s: %s", e.Field, e.Reason)
}

func reject(field, reason string) *Error {
	return &Error{Field: field, Reason: reason}
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[\d\s\-()+]+$`)
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern  = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9](\s?(AM|PM|am|pm))?$|^([0-9]|1[0-2]):[0-5][0-9]\s?(AM|PM|am|pm)$`)
)

const (
	maxNameLen            = 100
	maxEmailLen           = 255
	minPhoneLen           = 7
	maxPhoneLen           = 20
	maxSubjectLen         = 200
	maxContactMessageLen  = 2000
	maxAppointmentNoteLen = 1000
	maxServiceLen         = 100
	maxTimeLen            = 20
	maxChatContentLen     = 10000
	maxChatMessages       = 50
)

// length counts characters, not bytes, so non-Latin names get the same budget.
func length(s string) int {
	return utf8.RuneCountInString(s)
}

func between(s string, lo, hi int) bool {
	n := length(s)
	return n >= lo && n <= hi
}

// IsValidEmail reports whether s has a local@domain.tld shape and fits the column limit.
func IsValidEmail(s string) bool {
	return length(s) <= maxEmailLen && emailPattern.MatchString(s)
}

// IsValidPhone accepts digits, spaces, dashes, parentheses and plus signs.
func IsValidPhone(s string) bool {
	return between(s, minPhoneLen, maxPhoneLen) && phonePattern.MatchString(s)
}

// IsValidDate requires the strict YYYY-MM-DD form and a real calendar day.
func IsValidDate(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

// IsValidTime accepts 24-hour "HH:MM" and 12-hour "H:MM AM" forms.
func IsValidTime(s string) bool {
	return length(s) <= maxTimeLen && timePattern.MatchString(s)
}

// fields wraps a decoded JSON object.
type fields map[string]any

func asObject(raw any) (fields, bool) {
	m, ok := raw.(map[string]any)
	if !ok || m == nil {
		return nil, false
	}
	return fields(m), true
}

// requiredString returns the field when it is present and a string.
func (f fields) requiredString(key string) (string, bool) {
	s, ok := f[key].(string)
	return s, ok
}

// optionalString treats a missing key and JSON null alike. ok is false only
// when the key holds a non-string value.
func (f fields) optionalString(key string) (value string, present, ok bool) {
	v, exists := f[key]
	if !exists || v == nil {
		return "", false, true
	}
	s, isString := v.(string)
	if !isString {
		return "", true, false
	}
	return s, true, true
}
