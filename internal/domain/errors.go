package domain

import "errors"

// Sentinel errors shared across layers. The transport layer maps them to
// OpenAI-style error bodies and status codes.
var (
	// ErrEmptyConversation means the request carried no messages to anchor on.
	ErrEmptyConversation = errors.New("conversation has no messages")

	// ErrAgentNotConfigured means neither the requested model nor the default
	// agent is registered. Fatal for the request, not the process.
	ErrAgentNotConfigured = errors.New("agent not configured")

	// ErrInvalidFragment means the backend emitted a chunk that is not valid
	// UTF-8 text.
	ErrInvalidFragment = errors.New("fragment is not valid UTF-8")

	// ErrBackendInvocation wraps failures of the Bedrock call itself.
	ErrBackendInvocation = errors.New("agent invocation failed")

	// ErrPolicyBlocked means the request policy denied the call.
	ErrPolicyBlocked = errors.New("request blocked by policy")
)
