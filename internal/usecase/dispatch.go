package usecase

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"dentalcare-functions/internal/domain"
	"dentalcare-functions/internal/logging"
)

// Email kinds, used as the metrics label.
const (
	kindOwnerAppointment      = "owner_appointment"
	kindPatientAcknowledgment = "patient_acknowledgment"
	kindContactNotification   = "contact_notification"
)

type outbound struct {
	kind  string
	email domain.OutboundEmail
}

// deliverBestEffort sends every e-mail concurrently and waits for all of
// them. A failed send is logged and counted; it neither cancels the others
// nor fails the request. It returns how many were accepted by the provider.
func deliverBestEffort(ctx context.Context, mailer EmailSender, rec Recorder, batch []outbound) int {
	accepted := make([]bool, len(batch))
	var g errgroup.Group
	for i, o := range batch {
		g.Go(func() error {
			accepted[i] = send(ctx, mailer, rec, o) == nil
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, ok := range accepted {
		if ok {
			n++
		}
	}
	return n
}

// deliverRequired sends a single e-mail whose failure fails the request.
func deliverRequired(ctx context.Context, mailer EmailSender, rec Recorder, o outbound) error {
	if err := send(ctx, mailer, rec, o); err != nil {
		return newError(ErrorUpstream, "email_send_failed", MsgSendFailed, err)
	}
	return nil
}

func send(ctx context.Context, mailer EmailSender, rec Recorder, o outbound) error {
	log := logging.FromContext(ctx)
	id, err := mailer.Send(ctx, o.email)
	if err != nil {
		rec.EmailSent(o.kind, "failed")
		log.ErrorContext(ctx, "email send failed", "kind", o.kind, "to", strings.Join(o.email.To, ","), "err", err)
		return err
	}
	rec.EmailSent(o.kind, "sent")
	log.InfoContext(ctx, "email sent", "kind", o.kind, "id", id)
	return nil
}
