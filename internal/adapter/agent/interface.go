// Package agent provides an abstraction for invoking backend Bedrock agents.
package agent

import (
	"context"

	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/domain"
)

// FragmentStream is the chunked response of one agent invocation. Recv
// returns the next raw fragment, io.EOF at the end of the stream, or the
// backend error that ended it. Close releases the underlying transport.
type FragmentStream interface {
	Recv() ([]byte, error)
	Close() error
}

// Invoker defines the interface for backend agent invocation.
type Invoker interface {
	// InvokeAgent starts a single-turn agent call and returns its response
	// stream. The stream must be closed by the caller.
	InvokeAgent(ctx context.Context, req *domain.InvocationRequest) (FragmentStream, error)
}

// Ensure implementations satisfy the Invoker interface.
var (
	_ Invoker = (*BedrockClient)(nil)
	_ Invoker = (*MockClient)(nil)
)
