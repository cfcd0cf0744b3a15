package validate

import (
	"fmt"

	"dentalcare-functions/internal/domain"
)

// Chat validates a decoded chat payload. An absent or unsupported language
// falls back to domain.DefaultLanguage instead of failing.
func Chat(raw any) (domain.ChatRequest, error) {
	f, ok := asObject(raw)
	if !ok {
		return domain.ChatRequest{}, reject("", "Invalid request format")
	}

	list, ok := f["messages"].([]any)
	if !ok || len(list) == 0 {
		return domain.ChatRequest{}, reject("messages", "Messages must be a non-empty array")
	}
	if len(list) > maxChatMessages {
		return domain.ChatRequest{}, reject("messages", fmt.Sprintf("Too many messages (max %d)", maxChatMessages))
	}

	messages := make([]domain.ChatMessage, 0, len(list))
	for _, item := range list {
		turn, ok := asObject(item)
		if !ok {
			return domain.ChatRequest{}, reject("messages", "Invalid message format")
		}
		role, ok := turn.requiredString("role")
		if !ok || !isChatRole(role) {
			return domain.ChatRequest{}, reject("messages", "Invalid message role")
		}
		content, ok := turn.requiredString("content")
		if !ok {
			return domain.ChatRequest{}, reject("messages", "Invalid message content")
		}
		if length(content) > maxChatContentLen {
			return domain.ChatRequest{}, reject("messages", "Message content too long")
		}
		messages = append(messages, domain.ChatMessage{Role: role, Content: content})
	}

	code, _ := f["language"].(string)
	return domain.ChatRequest{
		Messages: messages,
		Language: domain.ParseLanguage(code),
	}, nil
}

func isChatRole(role string) bool {
	switch role {
	case domain.RoleUser, domain.RoleAssistant, domain.RoleSystem:
		return true
	default:
		return false
	}
}
