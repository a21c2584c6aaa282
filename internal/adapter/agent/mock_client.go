package agent

import (
	"context"
	"fmt"
	"io"

	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/domain"
)

// MockClient is a mock Invoker for credential-free runs and testing.
type MockClient struct{}

// NewMockClient creates a new mock agent client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// InvokeAgent returns a canned response echoing the input, split into a few
// fragments so streaming paths are exercised.
func (m *MockClient) InvokeAgent(ctx context.Context, req *domain.InvocationRequest) (FragmentStream, error) {
	reply := fmt.Sprintf("Mock agent %s received: %s", req.AgentID, req.InputText)
	return NewStaticStream(splitIntoFragments(reply, 16)), nil
}

func splitIntoFragments(s string, size int) [][]byte {
	var fragments [][]byte
	for len(s) > size {
		fragments = append(fragments, []byte(s[:size]))
		s = s[size:]
	}
	if len(s) > 0 {
		fragments = append(fragments, []byte(s))
	}
	return fragments
}

// StaticStream replays a fixed fragment sequence. Used by the mock client
// and in tests.
type StaticStream struct {
	fragments [][]byte
	pos       int
	err       error
}

// NewStaticStream creates a stream over the given fragments.
func NewStaticStream(fragments [][]byte) *StaticStream {
	return &StaticStream{fragments: fragments}
}

// NewFailingStream creates a stream that yields its fragments and then
// fails with err instead of ending cleanly.
func NewFailingStream(fragments [][]byte, err error) *StaticStream {
	return &StaticStream{fragments: fragments, err: err}
}

func (s *StaticStream) Recv() ([]byte, error) {
	if s.pos >= len(s.fragments) {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	fragment := s.fragments[s.pos]
	s.pos++
	return fragment, nil
}

func (s *StaticStream) Close() error { return nil }
