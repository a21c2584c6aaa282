package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/domain"
)

// recordEvent writes one invocation log event. Failures are logged, never
// propagated: the log is observability, not part of the request contract.
func (s *Service) recordEvent(ctx context.Context, sessionID string, eventType domain.EventType, payload interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &domain.Event{
		EventID:   "evt_" + shortHex(),
		SessionID: sessionID,
		Ts:        time.Now().UnixMilli(),
		Type:      eventType,
		Payload:   payloadBytes,
	}

	return s.store.CreateEvent(ctx, event)
}

func (s *Service) recordCallStarted(ctx context.Context, invocationID string, inv *invocation, stream bool) {
	if err := s.recordEvent(ctx, inv.request.SessionID, domain.EventTypeAgentCallStarted, domain.AgentCallStartedPayload{
		InvocationID: invocationID,
		Model:        inv.modelID,
		AgentID:      inv.request.AgentID,
		SessionID:    inv.request.SessionID,
		Stream:       stream,
	}); err != nil {
		log.Printf("WARN: failed to record agent_call_started event: %v", err)
	}
}

func (s *Service) recordCallDone(ctx context.Context, invocationID string, inv *invocation, startTime time.Time, outputBytes int, callErr error) {
	payload := domain.AgentCallDonePayload{
		InvocationID: invocationID,
		Model:        inv.modelID,
		LatencyMs:    time.Since(startTime).Milliseconds(),
		OutputBytes:  outputBytes,
	}
	if callErr != nil {
		payload.Error = callErr.Error()
	}
	if err := s.recordEvent(ctx, inv.request.SessionID, domain.EventTypeAgentCallDone, payload); err != nil {
		log.Printf("WARN: failed to record agent_call_done event: %v", err)
	}
}
