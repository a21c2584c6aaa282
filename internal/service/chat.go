package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/conversation"
	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/domain"
	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/relay"
	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/policy"
)

// invocation is the fully prepared state of one backend call.
type invocation struct {
	modelID string
	request *domain.InvocationRequest
	meta    relay.Meta
}

// shortHex returns the teacher-wide 8-char random id suffix.
func shortHex() string {
	return uuid.New().String()[:8]
}

// prepare runs the shared pre-invocation pipeline: policy check, registry
// resolution (with default substitution), context collapse and id synthesis.
func (s *Service) prepare(ctx context.Context, req *domain.ChatCompletionRequest) (*invocation, error) {
	modelID := req.Model
	if modelID == "" {
		modelID = s.registry.DefaultModelID()
	}

	decision, reason, err := s.policyEngine.Evaluate(ctx, policy.Input{
		Model:        modelID,
		Stream:       req.Stream,
		MessageCount: len(req.Messages),
	})
	if err != nil {
		return nil, fmt.Errorf("policy evaluation failed: %w", err)
	}
	if decision == policy.DecisionBlock {
		return nil, fmt.Errorf("%w: %s", domain.ErrPolicyBlocked, reason)
	}

	identity, err := s.registry.Resolve(modelID)
	if err != nil {
		return nil, err
	}

	input, err := conversation.Collapse(req.Messages)
	if err != nil {
		return nil, err
	}
	if input.UsedFallback {
		log.Printf("WARN: no user message found in conversation, using last message")
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = fmt.Sprintf("session-%s-%s", modelID, shortHex())
	}

	return &invocation{
		modelID: modelID,
		request: &domain.InvocationRequest{
			AgentID:   identity.AgentID,
			AliasID:   identity.AliasID,
			SessionID: sessionID,
			InputText: input.Text,
		},
		meta: relay.Meta{
			ID:      fmt.Sprintf("chatcmpl-%s-%s", modelID, shortHex()),
			Model:   modelID,
			Created: time.Now().Unix(),
		},
	}, nil
}

// ChatCompletion handles a non-streaming chat completion: the backend
// stream is drained into one aggregate response.
func (s *Service) ChatCompletion(ctx context.Context, req *domain.ChatCompletionRequest) (*domain.ChatCompletionResponse, error) {
	inv, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	invocationID := "inv_" + shortHex()
	startTime := time.Now()
	s.recordCallStarted(ctx, invocationID, inv, req.Stream)

	log.Printf("Calling Bedrock Agent: %s with alias: %s", inv.request.AgentID, inv.request.AliasID)
	stream, err := s.invoker.InvokeAgent(ctx, inv.request)
	if err != nil {
		s.recordCallDone(ctx, invocationID, inv, startTime, 0, err)
		return nil, err
	}
	defer stream.Close()

	resp, err := relay.Aggregate(stream, inv.meta)
	if err != nil {
		s.recordCallDone(ctx, invocationID, inv, startTime, 0, err)
		return nil, err
	}

	s.recordCallDone(ctx, invocationID, inv, startTime, len(resp.Choices[0].Message.Content), nil)
	return resp, nil
}

// ChatCompletionStream handles a streaming chat completion. Frames are
// handed to emit in order as backend fragments arrive; emit is expected to
// flush each frame to the client immediately.
func (s *Service) ChatCompletionStream(ctx context.Context, req *domain.ChatCompletionRequest, emit relay.FrameFunc) error {
	inv, err := s.prepare(ctx, req)
	if err != nil {
		return err
	}

	invocationID := "inv_" + shortHex()
	startTime := time.Now()
	s.recordCallStarted(ctx, invocationID, inv, true)

	log.Printf("Calling Bedrock Agent: %s with alias: %s", inv.request.AgentID, inv.request.AliasID)
	stream, err := s.invoker.InvokeAgent(ctx, inv.request)
	if err != nil {
		s.recordCallDone(ctx, invocationID, inv, startTime, 0, err)
		return err
	}
	defer stream.Close()

	outputBytes := 0
	err = relay.Stream(stream, inv.meta, func(chunk *domain.ChatCompletionChunk) error {
		if delta := chunk.Choices[0].Delta; delta != nil {
			outputBytes += len(delta.Content)
		}
		return emit(chunk)
	})

	s.recordCallDone(ctx, invocationID, inv, startTime, outputBytes, err)
	return err
}
