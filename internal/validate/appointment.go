package validate

import "dentalcare-functions/internal/domain"

// Appointment validates a decoded booking payload.
func Appointment(raw any) (domain.AppointmentRequest, error) {
	f, ok := asObject(raw)
	if !ok {
		return domain.AppointmentRequest{}, reject("", "Invalid request format")
	}

	name, ok := f.requiredString("patient_name")
	if !ok || !between(name, 1, maxNameLen) {
		return domain.AppointmentRequest{}, reject("patient_name", "Invalid patient name")
	}
	email, ok := f.requiredString("patient_email")
	if !ok || !IsValidEmail(email) {
		return domain.AppointmentRequest{}, reject("patient_email", "Invalid email address")
	}
	phone, ok := f.requiredString("patient_phone")
	if !ok || !IsValidPhone(phone) {
		return domain.AppointmentRequest{}, reject("patient_phone", "Invalid phone number")
	}
	service, ok := f.requiredString("service")
	if !ok || !between(service, 1, maxServiceLen) {
		return domain.AppointmentRequest{}, reject("service", "Invalid service")
	}
	date, ok := f.requiredString("preferred_date")
	if !ok || !IsValidDate(date) {
		return domain.AppointmentRequest{}, reject("preferred_date", "Invalid date format")
	}
	clock, ok := f.requiredString("preferred_time")
	if !ok || !IsValidTime(clock) {
		return domain.AppointmentRequest{}, reject("preferred_time", "Invalid time format")
	}

	doctor, _, ok := f.optionalString("doctor")
	if !ok || length(doctor) > maxNameLen {
		return domain.AppointmentRequest{}, reject("doctor", "Invalid doctor")
	}
	message, _, ok := f.optionalString("message")
	if !ok || length(message) > maxAppointmentNoteLen {
		return domain.AppointmentRequest{}, reject("message", "Message too long")
	}
	token, _, ok := f.optionalString("captchaToken")
	if !ok {
		return domain.AppointmentRequest{}, reject("captchaToken", "Invalid CAPTCHA token")
	}

	return domain.AppointmentRequest{
		PatientName:   name,
		PatientEmail:  email,
		PatientPhone:  phone,
		Service:       service,
		Doctor:        doctor,
		PreferredDate: date,
		PreferredTime: clock,
		Message:       message,
		CaptchaToken:  token,
	}, nil
}

// IsKnownService reports whether service appears in the advisory allow-list.
// Validation does not enforce it.
func IsKnownService(service string, known []string) bool {
	for _, s := range known {
		if s == service {
			return true
		}
	}
	return false
}
