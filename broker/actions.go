package broker

import (
	"errors"
	"fmt"
)

// ErrUnknownContactMethod signals a contact method other than call, email or chat.
var ErrUnknownContactMethod = errors.New("broker: unknown contact method")

// Contact methods.
const (
	ContactCall  = "call"
	ContactEmail = "email"
	ContactChat  = "chat"
)

// Contact returns the notification announcing an outreach to the broker.
func Contact(o Overview, method string) (Message, error) {
	switch method {
	case ContactCall:
		return Message{
			Title:       fmt.Sprintf("📞 Calling %s...", o.Name),
			Description: "Phone: +1 (555) 123-4567 • Initiating VoIP call",
		}, nil
	case ContactEmail:
		return Message{
			Title:       fmt.Sprintf("📧 Opening email to %s...", o.Name),
			Description: "Email: robert.turner@broker.com • Opening email client",
		}, nil
	case ContactChat:
		return Message{
			Title:       fmt.Sprintf("💬 Starting chat with %s...", o.Name),
			Description: "Opening integrated messaging platform",
		}, nil
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownContactMethod, method)
	}
}

// ToggleAssistant returns the notification for switching the AI assistant.
func ToggleAssistant(enabled bool) Message {
	if enabled {
		return Message{
			Title:       "🤖 AI Assistant activated!",
			Description: "Smart recommendations, risk assessment, and document processing enabled",
		}
	}
	return Message{
		Title:       "AI Assistant deactivated",
		Description: "Manual processing mode enabled",
	}
}
