package agent

import (
	"context"
	"log"
	"os"

	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/config"
)

const (
	// EnvProxyMode is the environment variable name for mode selection.
	EnvProxyMode = "PROXY_MODE"
	// ModeMock indicates mock mode should be used.
	ModeMock = "MOCK"
)

// NewInvoker creates an agent invoker based on the PROXY_MODE environment
// variable. If PROXY_MODE=MOCK, returns a MockClient; otherwise returns a
// real Bedrock client.
func NewInvoker(ctx context.Context, cfg *config.Config) (Invoker, error) {
	if os.Getenv(EnvProxyMode) == ModeMock {
		log.Println("PROXY_MODE=MOCK detected, using mock agent client")
		return NewMockClient(), nil
	}
	return NewBedrockClient(ctx, cfg)
}
