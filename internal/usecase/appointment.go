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

// OwnerNotified tells the booking page where the clinic was notified.
type OwnerNotified struct {
	Email    string `json:"email"`
	WhatsApp string `json:"whatsapp"`
}

type AppointmentOutput struct {
	OwnerNotified OwnerNotified
}

// AppointmentService validates booking requests and e-mails the clinic and
// the patient.
type AppointmentService struct {
	byIP    ratelimit.Limiter
	byEmail ratelimit.Limiter
	captcha CaptchaVerifier
	mailer  EmailSender
	clinic  Clinic
	rec     Recorder
}

func NewAppointmentService(byIP, byEmail ratelimit.Limiter, captcha CaptchaVerifier, mailer EmailSender, clinic Clinic, opts ...Option) (*AppointmentService, error) {
	if byIP == nil || byEmail == nil {
		return nil, errors.New("usecase: appointment limiters must not be nil")
	}
	if captcha == nil {
		return nil, errors.New("usecase: captcha verifier must not be nil")
	}
	if mailer == nil {
		return nil, errors.New("usecase: email sender must not be nil")
	}
	if strings.TrimSpace(clinic.OwnerEmail) == "" {
		return nil, errors.New("usecase: clinic owner email must not be empty")
	}
	o := buildOptions(opts)
	return &AppointmentService{
		byIP:    byIP,
		byEmail: byEmail,
		captcha: captcha,
		mailer:  mailer,
		clinic:  clinic,
		rec:     o.recorder,
	}, nil
}

func (s *AppointmentService) Notify(ctx context.Context, in Request) (out AppointmentOutput, err error) {
	defer func() { s.rec.Request(FunctionAppointment, outcome(err)) }()
	log := logging.FromContext(ctx)

	if err := admit(ctx, s.rec, s.byIP, ratelimit.AppointmentByIP.Name, in.ClientIP, MsgAppointmentRateLimit); err != nil {
		return AppointmentOutput{}, err
	}

	raw, err := decodeBody(in.Body)
	if err != nil {
		return AppointmentOutput{}, err
	}
	appt, err := validate.Appointment(raw)
	if err != nil {
		return AppointmentOutput{}, validationError(err)
	}
	if !validate.IsKnownService(appt.Service, s.clinic.Services) {
		log.InfoContext(ctx, "service not in allow-list", "reason", "unlisted_service", "service", appt.Service)
	}

	if err := s.verifyCaptcha(ctx, appt.CaptchaToken, in.ClientIP); err != nil {
		return AppointmentOutput{}, err
	}

	emailKey := strings.ToLower(appt.PatientEmail)
	if err := admit(ctx, s.rec, s.byEmail, ratelimit.AppointmentByEmail.Name, emailKey, MsgAppointmentRateLimit); err != nil {
		return AppointmentOutput{}, err
	}

	if !s.mailer.Configured() {
		log.ErrorContext(ctx, "email provider is not configured")
		return AppointmentOutput{}, newError(ErrorConfigurationMissing, "email_not_configured", MsgServiceUnavailable, nil)
	}

	batch, err := s.compose(appt)
	if err != nil {
		return AppointmentOutput{}, newError(ErrorInternal, "render_failed", MsgUnexpected, err)
	}
	sent := deliverBestEffort(ctx, s.mailer, s.rec, batch)
	log.InfoContext(ctx, "appointment request processed", "emails_sent", sent, "emails_total", len(batch))

	return AppointmentOutput{OwnerNotified: OwnerNotified{
		Email:    s.clinic.OwnerEmail,
		WhatsApp: s.clinic.OwnerWhatsApp,
	}}, nil
}

// verifyCaptcha fails open only when no secret is configured. With a secret,
// a missing token, a refusal or any verification error rejects the request.
func (s *AppointmentService) verifyCaptcha(ctx context.Context, token, clientIP string) error {
	log := logging.FromContext(ctx)
	if !s.captcha.Enabled() {
		s.rec.Captcha("skipped")
		log.WarnContext(ctx, "captcha secret not configured, skipping verification")
		return nil
	}
	if strings.TrimSpace(token) == "" {
		s.rec.Captcha("missing")
		return newError(ErrorCaptchaRejected, "captcha_missing", MsgCaptchaRequired, nil)
	}
	if err := s.captcha.Verify(ctx, token, clientIP); err != nil {
		s.rec.Captcha("failed")
		log.WarnContext(ctx, "captcha verification failed", "err", err)
		return newError(ErrorCaptchaRejected, "captcha_failed", MsgCaptchaFailed, err)
	}
	s.rec.Captcha("passed")
	return nil
}

func (s *AppointmentService) compose(appt domain.AppointmentRequest) ([]outbound, error) {
	clinic := s.clinic.emailClinic()
	owner, err := emails.OwnerAppointment(clinic, appt)
	if err != nil {
		return nil, err
	}
	patient, err := emails.PatientAcknowledgment(clinic, appt)
	if err != nil {
		return nil, err
	}
	return []outbound{
		{kind: kindOwnerAppointment, email: domain.OutboundEmail{
			From:    s.clinic.From,
			To:      []string{s.clinic.OwnerEmail},
			Subject: owner.Subject,
			HTML:    owner.HTML,
		}},
		{kind: kindPatientAcknowledgment, email: domain.OutboundEmail{
			From:    s.clinic.From,
			To:      []string{appt.PatientEmail},
			Subject: patient.Subject,
			HTML:    patient.HTML,
		}},
	}, nil
}
