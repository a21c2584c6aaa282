// Package relay translates the backend agent's chunked completion stream
// into OpenAI-shaped responses, either aggregated or frame by frame.
package relay

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/domain"
)

// FragmentStream is a pull-based sequence of completion fragments from the
// backend. Recv returns io.EOF after the final fragment. Implementations are
// not restartable and are consumed exactly once per request.
type FragmentStream interface {
	Recv() ([]byte, error)
}

// Meta carries the response identity shared by every frame of one request.
// Computed once before the relay begins.
type Meta struct {
	ID      string
	Model   string
	Created int64
}

// FrameFunc receives each stream frame in order. Returning an error stops
// the relay; the error is propagated to the caller.
type FrameFunc func(*domain.ChatCompletionChunk) error

const finishReasonStop = "stop"

// usageUnavailable is the placeholder usage block. Bedrock Agents report no
// token counts.
func usageUnavailable() *domain.Usage {
	return &domain.Usage{PromptTokens: -1, CompletionTokens: -1, TotalTokens: -1}
}

// Aggregate drains the whole stream and returns one complete response with
// the concatenated content. A fragment that is not valid UTF-8 fails the
// request rather than being dropped.
func Aggregate(stream FragmentStream, meta Meta) (*domain.ChatCompletionResponse, error) {
	var completion strings.Builder
	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrBackendInvocation, err)
		}
		if !utf8.Valid(fragment) {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidFragment, fragment)
		}
		completion.Write(fragment)
	}

	finish := finishReasonStop
	return &domain.ChatCompletionResponse{
		ID:      meta.ID,
		Object:  "chat.completion",
		Created: meta.Created,
		Model:   meta.Model,
		Choices: []domain.Choice{
			{
				Index: 0,
				Message: &domain.ChatMessage{
					Role:    domain.RoleAssistant,
					Content: completion.String(),
				},
				FinishReason: &finish,
			},
		},
		Usage: usageUnavailable(),
	}, nil
}

// Stream emits the frame sequence for one request: a role announcement, one
// content frame per non-empty fragment in arrival order, and a terminal
// frame with finish_reason "stop". Only a single fragment is held in memory
// at a time; emit is called as each frame becomes available so the transport
// can flush immediately. The end-of-stream sentinel is the transport's
// responsibility and is only written after Stream returns nil.
func Stream(stream FragmentStream, meta Meta, emit FrameFunc) error {
	if err := emit(roleFrame(meta)); err != nil {
		return err
	}

	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrBackendInvocation, err)
		}
		if !utf8.Valid(fragment) {
			return fmt.Errorf("%w: %q", domain.ErrInvalidFragment, fragment)
		}
		if len(fragment) == 0 {
			continue
		}
		if err := emit(contentFrame(meta, string(fragment))); err != nil {
			return err
		}
	}

	return emit(finishFrame(meta))
}

func roleFrame(meta Meta) *domain.ChatCompletionChunk {
	return chunk(meta, domain.Choice{
		Index: 0,
		Delta: &domain.Delta{Role: domain.RoleAssistant},
	})
}

func contentFrame(meta Meta, content string) *domain.ChatCompletionChunk {
	return chunk(meta, domain.Choice{
		Index: 0,
		Delta: &domain.Delta{Content: content},
	})
}

func finishFrame(meta Meta) *domain.ChatCompletionChunk {
	finish := finishReasonStop
	return chunk(meta, domain.Choice{
		Index:        0,
		Delta:        &domain.Delta{},
		FinishReason: &finish,
	})
}

func chunk(meta Meta, choice domain.Choice) *domain.ChatCompletionChunk {
	return &domain.ChatCompletionChunk{
		ID:      meta.ID,
		Object:  "chat.completion.chunk",
		Created: meta.Created,
		Model:   meta.Model,
		Choices: []domain.Choice{choice},
	}
}
