package conversation

import (
	"errors"
	"testing"

	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/domain"
)

func TestCollapseSingleUserMessage(t *testing.T) {
	input, err := Collapse([]domain.ChatMessage{
		{Role: domain.RoleUser, Content: "Hello"},
	})
	if err != nil {
		t.Fatalf("Collapse failed: %v", err)
	}
	if input.Text != "Hello" {
		t.Fatalf("expected bare anchor, got %q", input.Text)
	}
	if input.UsedFallback {
		t.Fatalf("expected no fallback for a user message")
	}
}

func TestCollapseSystemThenUser(t *testing.T) {
	input, err := Collapse([]domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "Be terse"},
		{Role: domain.RoleUser, Content: "Hi"},
	})
	if err != nil {
		t.Fatalf("Collapse failed: %v", err)
	}
	want := "System instruction: Be terse\n\n\nCurrent message: Hi"
	if input.Text != want {
		t.Fatalf("expected %q, got %q", want, input.Text)
	}
}

func TestCollapseMultiTurn(t *testing.T) {
	input, err := Collapse([]domain.ChatMessage{
		{Role: domain.RoleUser, Content: "What is Go?"},
		{Role: domain.RoleAssistant, Content: "A language."},
		{Role: domain.RoleUser, Content: "Who made it?"},
	})
	if err != nil {
		t.Fatalf("Collapse failed: %v", err)
	}
	want := "User: What is Go?\nAssistant: A language.\n\n\nCurrent message: Who made it?"
	if input.Text != want {
		t.Fatalf("expected %q, got %q", want, input.Text)
	}
}

func TestCollapseFallbackToLastMessage(t *testing.T) {
	input, err := Collapse([]domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "Be terse"},
		{Role: domain.RoleAssistant, Content: "Understood."},
	})
	if err != nil {
		t.Fatalf("Collapse failed: %v", err)
	}
	if !input.UsedFallback {
		t.Fatalf("expected fallback when no user message exists")
	}
	want := "System instruction: Be terse\n\n\nCurrent message: Understood."
	if input.Text != want {
		t.Fatalf("expected %q, got %q", want, input.Text)
	}
}

func TestCollapseAnchorNotLast(t *testing.T) {
	// The anchor is the last user message even when an assistant message
	// follows it; the trailing assistant turn still lands in the transcript.
	input, err := Collapse([]domain.ChatMessage{
		{Role: domain.RoleUser, Content: "Hi"},
		{Role: domain.RoleAssistant, Content: "Hello!"},
	})
	if err != nil {
		t.Fatalf("Collapse failed: %v", err)
	}
	want := "User: Hi\n\n\nCurrent message: Hi"
	if input.Text != want {
		t.Fatalf("expected %q, got %q", want, input.Text)
	}
	if input.UsedFallback {
		t.Fatalf("expected no fallback, a user message exists")
	}
}

func TestCollapseEmptyConversation(t *testing.T) {
	_, err := Collapse(nil)
	if !errors.Is(err, domain.ErrEmptyConversation) {
		t.Fatalf("expected ErrEmptyConversation, got %v", err)
	}
}

func TestCollapseDeterministic(t *testing.T) {
	messages := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "ctx"},
		{Role: domain.RoleUser, Content: "q1"},
		{Role: domain.RoleAssistant, Content: "a1"},
		{Role: domain.RoleUser, Content: "q2"},
	}
	first, err := Collapse(messages)
	if err != nil {
		t.Fatalf("Collapse failed: %v", err)
	}
	second, err := Collapse(messages)
	if err != nil {
		t.Fatalf("Collapse failed: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical output, got %+v vs %+v", first, second)
	}
}
