package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrorMalformedRequest     ErrorCode = "MALFORMED_REQUEST"
	ErrorValidationFailed     ErrorCode = "VALIDATION_FAILED"
	ErrorRateLimited          ErrorCode = "RATE_LIMITED"
	ErrorCaptchaRejected      ErrorCode = "CAPTCHA_REJECTED"
	ErrorConfigurationMissing ErrorCode = "CONFIGURATION_MISSING"
	ErrorUpstreamBusy         ErrorCode = "UPSTREAM_BUSY"
	ErrorUpstreamUnavailable  ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrorUpstream             ErrorCode = "UPSTREAM_ERROR"
	ErrorInternal             ErrorCode = "INTERNAL_ERROR"
)

// HTTPStatus is the response status a transport should use for the code.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case ErrorMalformedRequest, ErrorValidationFailed, ErrorCaptchaRejected:
		return http.StatusBadRequest
	case ErrorRateLimited, ErrorUpstreamBusy:
		return http.StatusTooManyRequests
	case ErrorConfigurationMissing, ErrorUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Caller-visible messages. Configuration and upstream messages stay generic.
const (
	MsgInvalidFormat        = "Invalid request format"
	MsgAppointmentRateLimit = "Too many appointment requests. Please try again later."
	MsgContactRateLimit     = "Too many messages. Please try again later."
	MsgChatRateLimit        = "Rate limit exceeded. Please try again later."
	MsgCaptchaRequired      = "CAPTCHA verification required"
	MsgCaptchaFailed        = "CAPTCHA verification failed"
	MsgServiceUnavailable   = "Service temporarily unavailable"
	MsgSendFailed           = "Failed to send message"
	MsgChatBusy             = "AI service is busy. Please try again later."
	MsgChatUnavailable      = "AI service temporarily unavailable"
	MsgChatError            = "AI service error"
	MsgUnexpected           = "An unexpected error occurred"
)

// Error is a terminal request outcome. Reason is a log tag; Message is what
// the caller sees.
type Error struct {
	Code    ErrorCode
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason, message string, err error) *Error {
	return &Error{Code: code, Reason: reason, Message: message, Err: err}
}

// AsError returns err as *Error, wrapping anything else as INTERNAL_ERROR with
// the generic message.
func AsError(err error) *Error {
	var ue *Error
	if errors.As(err, &ue) {
		return ue
	}
	return newError(ErrorInternal, "unexpected", MsgUnexpected, err)
}
