package domain

// AgentIdentity addresses one configured Bedrock agent. Built once at
// startup from the environment and never mutated afterward.
type AgentIdentity struct {
	AgentID string `json:"agent_id"`
	AliasID string `json:"alias_id"`
}

// InvocationRequest is the single-turn input handed to the backend agent.
// Derived per call, not stored.
type InvocationRequest struct {
	AgentID   string
	AliasID   string
	SessionID string
	InputText string
}
