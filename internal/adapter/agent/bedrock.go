package agent

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"

	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/config"
	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/domain"
)

// BedrockClient invokes agents through the Bedrock Agent Runtime API.
type BedrockClient struct {
	runtime *bedrockagentruntime.Client
	timeout time.Duration
}

// NewBedrockClient creates a Bedrock agent client. Static credentials are
// used when both halves are configured, otherwise the default AWS
// credential chain applies.
func NewBedrockClient(ctx context.Context, cfg *config.Config) (*BedrockClient, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &BedrockClient{
		runtime: bedrockagentruntime.NewFromConfig(awsCfg),
		timeout: cfg.InvokeTimeout,
	}, nil
}

// InvokeAgent starts a single-turn invocation and exposes its event stream
// as a FragmentStream. The configured timeout caps the whole invocation,
// stream consumption included.
func (c *BedrockClient) InvokeAgent(ctx context.Context, req *domain.InvocationRequest) (FragmentStream, error) {
	cancel := context.CancelFunc(func() {})
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}

	out, err := c.runtime.InvokeAgent(ctx, &bedrockagentruntime.InvokeAgentInput{
		AgentId:      aws.String(req.AgentID),
		AgentAliasId: aws.String(req.AliasID),
		SessionId:    aws.String(req.SessionID),
		InputText:    aws.String(req.InputText),
		EnableTrace:  aws.Bool(false),
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendInvocation, err)
	}
	return &bedrockStream{events: out.GetStream(), cancel: cancel}, nil
}

// bedrockStream adapts the SDK event stream to FragmentStream. Only
// completion chunks carry content; trace and control members are skipped.
type bedrockStream struct {
	events *bedrockagentruntime.InvokeAgentEventStream
	cancel context.CancelFunc
}

func (s *bedrockStream) Recv() ([]byte, error) {
	for event := range s.events.Events() {
		if chunk, ok := event.(*types.ResponseStreamMemberChunk); ok {
			return chunk.Value.Bytes, nil
		}
	}
	if err := s.events.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendInvocation, err)
	}
	return nil, io.EOF
}

func (s *bedrockStream) Close() error {
	s.cancel()
	return s.events.Close()
}
