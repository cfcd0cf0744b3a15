package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"

	"dentalcare-functions/internal/domain"
	"dentalcare-functions/internal/emails"
	"dentalcare-functions/internal/logging"
	"dentalcare-functions/internal/ratelimit"
	"dentalcare-functions/internal/validate"
)

// Function names used in logs and metrics.
const (
	FunctionAppointment = "appointment_notification"
	FunctionContact     = "contact_message"
	FunctionChat        = "ai_chat"
)

type EmailSender interface {
	Configured() bool
	Send(ctx context.Context, email domain.OutboundEmail) (string, error)
}

type CaptchaVerifier interface {
	Enabled() bool
	Verify(ctx context.Context, token, remoteIP string) error
}

type ChatStreamer interface {
	Configured() bool
	ChatStream(ctx context.Context, messages []domain.ChatMessage) (io.ReadCloser, error)
}

// Recorder receives request outcomes for metrics.
type Recorder interface {
	Request(function, outcome string)
	RateLimited(policy string)
	Captcha(result string)
	EmailSent(kind, result string)
	ChatUpstream(status int)
}

type nopRecorder struct{}

func (nopRecorder) Request(string, string)   {}
func (nopRecorder) RateLimited(string)       {}
func (nopRecorder) Captcha(string)           {}
func (nopRecorder) EmailSent(string, string) {}
func (nopRecorder) ChatUpstream(int)         {}

type options struct {
	recorder Recorder
}

type Option func(*options)

// WithRecorder sets the metrics sink. The default discards everything.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{recorder: nopRecorder{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Request is one inbound invocation, already stripped of its transport.
type Request struct {
	Body     []byte
	ClientIP string
}

// Clinic describes the practice for e-mails, service checks and the chat prompt.
type Clinic struct {
	Name          string
	From          string
	OwnerEmail    string
	OwnerWhatsApp string
	Phone         string
	Hours         []string
	Services      []string
	Facts         []string
}

func (c Clinic) emailClinic() emails.Clinic {
	return emails.Clinic{
		Name:          c.Name,
		OwnerEmail:    c.OwnerEmail,
		OwnerWhatsApp: c.OwnerWhatsApp,
		Phone:         c.Phone,
	}
}

// admit runs one limiter check. Backend failures are logged and the request
// is let through.
func admit(ctx context.Context, rec Recorder, limiter ratelimit.Limiter, policy, key, message string) error {
	ok, err := limiter.Allow(ctx, key)
	if err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "rate limiter unavailable, admitting request", "policy", policy, "err", err)
		return nil
	}
	if !ok {
		rec.RateLimited(policy)
		logging.FromContext(ctx).WarnContext(ctx, "rate limit exceeded", "policy", policy, "key", key)
		return newError(ErrorRateLimited, policy, message, nil)
	}
	return nil
}

// decodeBody parses the payload into untyped JSON for the validators.
func decodeBody(body []byte) (any, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, newError(ErrorMalformedRequest, "empty_body", MsgInvalidFormat, nil)
	}
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, newError(ErrorMalformedRequest, "invalid_json", MsgInvalidFormat, err)
	}
	return raw, nil
}

func validationError(err error) *Error {
	var ve *validate.Error
	if errors.As(err, &ve) {
		return newError(ErrorValidationFailed, "invalid_"+fieldTag(ve.Field), ve.Reason, err)
	}
	return newError(ErrorValidationFailed, "invalid_payload", MsgInvalidFormat, err)
}

func fieldTag(field string) string {
	if field == "" {
		return "payload"
	}
	return field
}

// outcome is the metrics label for a finished request.
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return string(AsError(err).Code)
}
