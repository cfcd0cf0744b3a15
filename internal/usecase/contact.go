package usecase

import (
	"context"
	"errors"
	"strings"

	"dentalcare-functions/internal/domain"
	"dentalcare-functions/internal/emails"
	"dentalcare-functions/internal/logging"
	"dentalcare-functions/internal/ratelimit"
	"dentalcare-functions/internal/validate"
)

// ContactService forwards contact form submissions to the clinic owner.
type ContactService struct {
	byIP   ratelimit.Limiter
	mailer EmailSender
	clinic Clinic
	rec    Recorder
}

func NewContactService(byIP ratelimit.Limiter, mailer EmailSender, clinic Clinic, opts ...Option) (*ContactService, error) {
	if byIP == nil {
		return nil, errors.New("usecase: contact limiter must not be nil")
	}
	if mailer == nil {
		return nil, errors.New("usecase: email sender must not be nil")
	}
	if strings.TrimSpace(clinic.OwnerEmail) == "" {
		return nil, errors.New("usecase: clinic owner email must not be empty")
	}
	o := buildOptions(opts)
	return &ContactService{byIP: byIP, mailer: mailer, clinic: clinic, rec: o.recorder}, nil
}

func (s *ContactService) Send(ctx context.Context, in Request) (err error) {
	defer func() { s.rec.Request(FunctionContact, outcome(err)) }()

	if err := admit(ctx, s.rec, s.byIP, ratelimit.ContactByIP.Name, in.ClientIP, MsgContactRateLimit); err != nil {
		return err
	}

	raw, err := decodeBody(in.Body)
	if err != nil {
		return err
	}
	msg, err := validate.Contact(raw)
	if err != nil {
		return validationError(err)
	}

	if !s.mailer.Configured() {
		logging.FromContext(ctx).ErrorContext(ctx, "email provider is not configured")
		return newError(ErrorConfigurationMissing, "email_not_configured", MsgServiceUnavailable, nil)
	}

	rendered, err := emails.ContactNotification(s.clinic.emailClinic(), msg)
	if err != nil {
		return newError(ErrorInternal, "render_failed", MsgUnexpected, err)
	}
	return deliverRequired(ctx, s.mailer, s.rec, outbound{
		kind: kindContactNotification,
		email: domain.OutboundEmail{
			From:    s.clinic.From,
			To:      []string{s.clinic.OwnerEmail},
			Subject: rendered.Subject,
			HTML:    rendered.HTML,
			ReplyTo: msg.Email,
		},
	})
}
