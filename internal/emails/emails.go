// Package emails renders the fixed HTML e-mails sent for appointment and
// contact submissions.
//
// Every user-supplied value is passed through Escape on its own inside the
// templates; nothing reaches the markup unescaped.
package emails

import (
	"bytes"
	"embed"
	"fmt"
	"net/url"
	"strings"
	"text/template"

	"dentalcare-functions/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(
	template.New("emails").
		Funcs(template.FuncMap{"esc": Escape}).
		ParseFS(templateFS, "templates/*.html"),
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// Escape replaces the five HTML-significant characters with entities. Input
// that already contains entities is escaped again, so "&lt;" becomes "&amp;lt;".
func Escape(s string) string {
	return htmlEscaper.Replace(s)
}

// Clinic holds the owner-facing details rendered into e-mails.
type Clinic struct {
	Name          string
	OwnerEmail    string
	OwnerWhatsApp string
	Phone         string
}

// Message is a rendered e-mail.
type Message struct {
	Subject string
	HTML    string
}

// PatientQuestionText pre-fills the deep link sent back to patients.
const PatientQuestionText = "Hello! I recently booked an appointment and have a question."

// WhatsAppLink builds a wa.me deep link with text percent-encoded the way
// browsers encode URI components (spaces as %20).
func WhatsAppLink(number, text string) string {
	return "https://wa.me/" + url.PathEscape(number) + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

// AppointmentSummary is the plain-text summary pre-filled into the owner's
// messaging app. It is URL-encoded, never inserted into HTML as-is.
func AppointmentSummary(a domain.AppointmentRequest) string {
	var b strings.Builder
	b.WriteString("🦷 New Appointment Request!\n\n")
	b.WriteString("📋 Patient Details:\n")
	fmt.Fprintf(&b, "• Name: %s\n• Email: %s\n• Phone: %s\n\n", a.PatientName, a.PatientEmail, a.PatientPhone)
	b.WriteString("📅 Appointment:\n")
	fmt.Fprintf(&b, "• Service: %s\n", a.Service)
	if a.Doctor != "" {
		fmt.Fprintf(&b, "• Doctor: %s\n", a.Doctor)
	}
	fmt.Fprintf(&b, "• Date: %s\n• Time: %s\n", a.PreferredDate, a.PreferredTime)
	if a.Message != "" {
		fmt.Fprintf(&b, "\n📝 Notes: %s\n", a.Message)
	}
	b.WriteString("\nPlease confirm the appointment.")
	return b.String()
}

type appointmentView struct {
	Clinic       Clinic
	Appointment  domain.AppointmentRequest
	WhatsAppLink string
}

type contactView struct {
	Clinic  Clinic
	Contact domain.ContactMessage
}

// OwnerAppointment is the clinic-side notification with a deep link that opens
// the owner's messaging app pre-filled with the booking summary.
func OwnerAppointment(c Clinic, a domain.AppointmentRequest) (Message, error) {
	html, err := render("owner_appointment.html", appointmentView{
		Clinic:       c,
		Appointment:  a,
		WhatsAppLink: WhatsAppLink(c.OwnerWhatsApp, AppointmentSummary(a)),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		Subject: "🦷 New Appointment Request - " + Escape(a.PatientName),
		HTML:    html,
	}, nil
}

// PatientAcknowledgment confirms receipt to the patient and links back to the owner.
func PatientAcknowledgment(c Clinic, a domain.AppointmentRequest) (Message, error) {
	html, err := render("patient_acknowledgment.html", appointmentView{
		Clinic:       c,
		Appointment:  a,
		WhatsAppLink: WhatsAppLink(c.OwnerWhatsApp, PatientQuestionText),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		Subject: "Appointment Request Received - " + Escape(c.Name),
		HTML:    html,
	}, nil
}

// ContactNotification forwards a contact form submission to the owner.
func ContactNotification(c Clinic, m domain.ContactMessage) (Message, error) {
	html, err := render("contact_notification.html", contactView{Clinic: c, Contact: m})
	if err != nil {
		return Message{}, err
	}
	return Message{
		Subject: "📧 Contact Form: " + Escape(m.Subject),
		HTML:    html,
	}, nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("emails: render %s: %w", name, err)
	}
	return buf.String(), nil
}
