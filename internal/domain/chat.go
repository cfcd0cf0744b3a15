package domain

// Chat roles accepted from callers.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Language is a supported chat reply language code.
type Language string

const (
	LanguageEnglish    Language = "en"
	LanguageSpanish    Language = "es"
	LanguagePortuguese Language = "pt"
	LanguageFrench     Language = "fr"
	LanguageUrdu       Language = "ur"
)

// DefaultLanguage is used when the caller omits the language or sends an unsupported one.
const DefaultLanguage = LanguageEnglish

// ParseLanguage returns the matching Language, or DefaultLanguage when code is not supported.
func ParseLanguage(code string) Language {
	switch l := Language(code); l {
	case LanguageEnglish, LanguageSpanish, LanguagePortuguese, LanguageFrench, LanguageUrdu:
		return l
	default:
		return DefaultLanguage
	}
}

// ChatMessage is the provider-agnostic chat message shape used by the handlers
// and LLM integrations. Order within a conversation is significant.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a validated conversation history plus the reply language.
type ChatRequest struct {
	Messages []ChatMessage
	Language Language
}
