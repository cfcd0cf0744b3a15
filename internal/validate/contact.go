package validate

import "dentalcare-functions/internal/domain"

// Contact validates a decoded contact form payload. Phone is optional; an
// empty string counts as not provided.
func Contact(raw any) (domain.ContactMessage, error) {
	f, ok := asObject(raw)
	if !ok {
		return domain.ContactMessage{}, reject("", "Invalid request format")
	}

	name, ok := f.requiredString("name")
	if !ok || !between(name, 1, maxNameLen) {
		return domain.ContactMessage{}, reject("name", "Invalid name")
	}
	email, ok := f.requiredString("email")
	if !ok || !IsValidEmail(email) {
		return domain.ContactMessage{}, reject("email", "Invalid email address")
	}
	phone, _, ok := f.optionalString("phone")
	if !ok || (phone != "" && !IsValidPhone(phone)) {
		return domain.ContactMessage{}, reject("phone", "Invalid phone number")
	}
	subject, ok := f.requiredString("subject")
	if !ok || !between(subject, 1, maxSubjectLen) {
		return domain.ContactMessage{}, reject("subject", "Invalid subject")
	}
	message, ok := f.requiredString("message")
	if !ok || !between(message, 1, maxContactMessageLen) {
		return domain.ContactMessage{}, reject("message", "Invalid message")
	}

	return domain.ContactMessage{
		Name:    name,
		Email:   email,
		Phone:   phone,
		Subject: subject,
		Message: message,
	}, nil
}
