package usecase

import (
	"strings"

	"dentalcare-functions/internal/domain"
)

var languageDirectives = map[domain.Language]string{
	domain.LanguageEnglish:    "Always respond in English.",
	domain.LanguageSpanish:    "Always respond in Spanish (español), even if the patient writes in another language.",
	domain.LanguagePortuguese: "Always respond in Portuguese (português), even if the patient writes in another language.",
	domain.LanguageFrench:     "Always respond in French (français), even if the patient writes in another language.",
	domain.LanguageUrdu:       "Always respond in Urdu (اردو), even if the patient writes in another language.",
}

func languageDirective(lang domain.Language) string {
	if d, ok := languageDirectives[lang]; ok {
		return d
	}
	return languageDirectives[domain.DefaultLanguage]
}

// buildPromptMessages puts the clinic system prompt ahead of the caller's turns,
// which are kept in their original order.
func buildPromptMessages(clinic Clinic, req domain.ChatRequest) []domain.ChatMessage {
	messages := make([]domain.ChatMessage, 0, len(req.Messages)+1)
	messages = append(messages, domain.ChatMessage{
		Role:    domain.RoleSystem,
		Content: buildSystemPrompt(clinic, req.Language),
	})
	return append(messages, req.Messages...)
}

func buildSystemPrompt(clinic Clinic, lang domain.Language) string {
	lines := []string{
		"Role:",
		"You are the friendly virtual assistant for " + clinic.Name + ", a dental clinic.",
		"",
		"You help patients with:",
		"- Information about dental services and treatments",
		"- How to request an appointment",
		"- Clinic hours and contact details",
		"- General oral health questions",
		"",
	}
	if len(clinic.Services) > 0 {
		lines = append(lines, "Services offered:")
		for _, s := range clinic.Services {
			lines = append(lines, "- "+s)
		}
		lines = append(lines, "")
	}
	if len(clinic.Hours) > 0 {
		lines = append(lines, "Opening hours:")
		for _, h := range clinic.Hours {
			lines = append(lines, "- "+h)
		}
		lines = append(lines, "")
	}
	if clinic.Phone != "" {
		lines = append(lines, "Clinic phone: "+clinic.Phone, "")
	}
	if len(clinic.Facts) > 0 {
		lines = append(lines, "Clinic facts:")
		for _, f := range clinic.Facts {
			lines = append(lines, "- "+f)
		}
		lines = append(lines, "")
	}
	lines = append(lines,
		"Behavior Rules:",
		"1) Be friendly, professional and concise.",
		"2) Never diagnose; recommend an examination at the clinic for specific problems.",
		"3) For severe pain, swelling or bleeding, advise calling the clinic or emergency services right away.",
		"4) Encourage booking through the appointment form when the patient wants a visit.",
		"",
		"Language:",
		languageDirective(lang),
	)
	return strings.Join(lines, "\n")
}
