package domain

// AppointmentRequest is a validated booking request. It is never persisted here;
// it only feeds the notification e-mails.
type AppointmentRequest struct {
	PatientName   string
	PatientEmail  string
	PatientPhone  string
	Service       string
	Doctor        string
	PreferredDate string
	PreferredTime string
	Message       string
	CaptchaToken  string
}

// ContactMessage is a validated contact form submission.
type ContactMessage struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
}

// OutboundEmail is a transactional e-mail handed to the mail provider.
type OutboundEmail struct {
	From    string
	To      []string
	Subject string
	HTML    string
	ReplyTo string
}
