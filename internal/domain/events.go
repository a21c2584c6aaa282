package domain

import "encoding/json"

// EventType represents the type of an invocation log event.
type EventType string

const (
	EventTypeAgentCallStarted EventType = "agent_call_started"
	EventTypeAgentCallDone    EventType = "agent_call_done"
)

// Event represents one row of the invocation log.
type Event struct {
	EventID   string          `json:"event_id"`
	SessionID string          `json:"session_id"`
	Ts        int64           `json:"ts"` // Unix milliseconds
	Type      EventType       `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// AgentCallStartedPayload is the payload of an agent_call_started event.
type AgentCallStartedPayload struct {
	InvocationID string `json:"invocation_id"`
	Model        string `json:"model"`
	AgentID      string `json:"agent_id"`
	SessionID    string `json:"session_id"`
	Stream       bool   `json:"stream"`
}

// AgentCallDonePayload is the payload of an agent_call_done event.
type AgentCallDonePayload struct {
	InvocationID string `json:"invocation_id"`
	Model        string `json:"model"`
	LatencyMs    int64  `json:"latency_ms"`
	OutputBytes  int    `json:"output_bytes,omitempty"`
	Error        string `json:"error,omitempty"`
}
