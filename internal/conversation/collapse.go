// Package conversation collapses a multi-turn OpenAI message list into the
// single-turn input text a Bedrock agent expects.
package conversation

import (
	"strings"

	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/domain"
)

// Input is the result of collapsing a message list.
type Input struct {
	// Text is the full single-turn input handed to the agent.
	Text string
	// UsedFallback is true when no user message existed and the last message
	// of any role served as the current turn.
	UsedFallback bool
}

// roleLabel maps message roles to the transcript labels the agent sees.
func roleLabel(role domain.Role) string {
	switch role {
	case domain.RoleSystem:
		return "System instruction"
	case domain.RoleAssistant:
		return "Assistant"
	default:
		return "User"
	}
}

// Collapse flattens messages into one input text. The anchor is the last
// user message, or the last message of any role when no user message exists.
// Every message except the final element is rendered into a context
// transcript that precedes the anchor.
func Collapse(messages []domain.ChatMessage) (Input, error) {
	if len(messages) == 0 {
		return Input{}, domain.ErrEmptyConversation
	}

	anchor := ""
	usedFallback := true
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			anchor = messages[i].Content
			usedFallback = false
			break
		}
	}
	if usedFallback {
		anchor = messages[len(messages)-1].Content
	}

	var transcript strings.Builder
	for _, msg := range messages[:len(messages)-1] {
		transcript.WriteString(roleLabel(msg.Role))
		transcript.WriteString(": ")
		transcript.WriteString(msg.Content)
		transcript.WriteByte('\n')
	}

	text := anchor
	if transcript.Len() > 0 {
		text = transcript.String() + "\n\n" + "Current message: " + anchor
	}

	return Input{Text: text, UsedFallback: usedFallback}, nil
}
