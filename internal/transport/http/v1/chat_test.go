package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/adapter/agent"
	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/config"
	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/domain"
	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/registry"
	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/repository"
	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/service"
	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/policy"
)

// fakeInvoker replays fixed fragments and captures the invocation request.
type fakeInvoker struct {
	fragments [][]byte
	invokeErr error
	streamErr error
	lastReq   *domain.InvocationRequest
}

func (f *fakeInvoker) InvokeAgent(ctx context.Context, req *domain.InvocationRequest) (agent.FragmentStream, error) {
	f.lastReq = req
	if f.invokeErr != nil {
		return nil, f.invokeErr
	}
	if f.streamErr != nil {
		return agent.NewFailingStream(f.fragments, f.streamErr), nil
	}
	return agent.NewStaticStream(f.fragments), nil
}

type testEnv struct {
	echo    *echo.Echo
	invoker *fakeInvoker
	store   *repository.SQLiteStore
}

func newTestEnv(t *testing.T, invoker *fakeInvoker, policyContent string) *testEnv {
	t.Helper()

	cfg := &config.Config{
		APIKey:       "none",
		DefaultAgent: "DEFAULT",
	}
	reg := registry.New([]config.AgentEntry{
		{ModelID: "DEFAULT", AgentID: "agent-default", AliasID: "alias-default"},
		{ModelID: "SUPPORT-BOT", AgentID: "agent-support", AliasID: "alias-support"},
	}, cfg.DefaultAgent)

	store, err := repository.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	engine, err := policy.NewEngine(context.Background(), policyContent)
	require.NoError(t, err)

	svc := service.New(store, invoker, reg, engine, cfg)

	e := echo.New()
	NewHandler(svc, cfg).RegisterRoutes(e)

	return &testEnv{echo: e, invoker: invoker, store: store}
}

func postChat(env *testEnv, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/completions", bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)
	return rec
}

// sseData extracts the data payload of every SSE event in the body.
func sseData(body string) []string {
	var data []string
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			data = append(data, strings.TrimPrefix(line, "data: "))
		}
	}
	return data
}

func TestChatCompletionsValidation(t *testing.T) {
	env := newTestEnv(t, &fakeInvoker{}, policy.DefaultPolicy)

	rec := postChat(env, `{"messages":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp domain.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_request_error", resp.Error.Type)
	assert.Nil(t, env.invoker.lastReq, "backend must not be invoked")
}

func TestChatCompletionsNonStreaming(t *testing.T) {
	invoker := &fakeInvoker{fragments: [][]byte{[]byte("Hel"), []byte("lo")}}
	env := newTestEnv(t, invoker, policy.DefaultPolicy)

	rec := postChat(env, `{"model":"SUPPORT-BOT","session_id":"sess-42","messages":[{"role":"user","content":"Hi"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp domain.ChatCompletionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "chat.completion", resp.Object)
	assert.Equal(t, "SUPPORT-BOT", resp.Model)
	assert.True(t, strings.HasPrefix(resp.ID, "chatcmpl-SUPPORT-BOT-"), "id %q", resp.ID)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "Hello", resp.Choices[0].Message.Content)
	assert.Equal(t, domain.RoleAssistant, resp.Choices[0].Message.Role)
	assert.Equal(t, -1, resp.Usage.TotalTokens)

	require.NotNil(t, invoker.lastReq)
	assert.Equal(t, "agent-support", invoker.lastReq.AgentID)
	assert.Equal(t, "alias-support", invoker.lastReq.AliasID)
	assert.Equal(t, "sess-42", invoker.lastReq.SessionID)
	assert.Equal(t, "Hi", invoker.lastReq.InputText)

	events, err := env.store.GetEvents(context.Background(), "sess-42", 0, nil, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventTypeAgentCallStarted, events[0].Type)
	assert.Equal(t, domain.EventTypeAgentCallDone, events[1].Type)
}

func TestChatCompletionsCollapsesContext(t *testing.T) {
	invoker := &fakeInvoker{fragments: [][]byte{[]byte("ok")}}
	env := newTestEnv(t, invoker, policy.DefaultPolicy)

	rec := postChat(env, `{"model":"DEFAULT","messages":[{"role":"system","content":"Be terse"},{"role":"user","content":"Hi"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, invoker.lastReq)
	assert.Equal(t, "System instruction: Be terse\n\n\nCurrent message: Hi", invoker.lastReq.InputText)
}

func TestChatCompletionsUnknownModelFallsBack(t *testing.T) {
	invoker := &fakeInvoker{fragments: [][]byte{[]byte("ok")}}
	env := newTestEnv(t, invoker, policy.DefaultPolicy)

	rec := postChat(env, `{"model":"unknown-model","messages":[{"role":"user","content":"Hi"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, invoker.lastReq)
	assert.Equal(t, "agent-default", invoker.lastReq.AgentID)
	assert.Equal(t, "alias-default", invoker.lastReq.AliasID)

	// The response still reports the requested model id.
	var resp domain.ChatCompletionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unknown-model", resp.Model)
}

func TestChatCompletionsGeneratesSessionID(t *testing.T) {
	invoker := &fakeInvoker{fragments: [][]byte{[]byte("ok")}}
	env := newTestEnv(t, invoker, policy.DefaultPolicy)

	rec := postChat(env, `{"model":"DEFAULT","messages":[{"role":"user","content":"Hi"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, invoker.lastReq)
	assert.True(t, strings.HasPrefix(invoker.lastReq.SessionID, "session-DEFAULT-"),
		"session id %q", invoker.lastReq.SessionID)
}

func TestChatCompletionsStreaming(t *testing.T) {
	invoker := &fakeInvoker{fragments: [][]byte{[]byte("Hel"), []byte("lo")}}
	env := newTestEnv(t, invoker, policy.DefaultPolicy)

	rec := postChat(env, `{"model":"DEFAULT","stream":true,"messages":[{"role":"user","content":"Hi"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))

	data := sseData(rec.Body.String())
	require.Len(t, data, 5, "role, two content, finish, DONE: %v", data)
	assert.Equal(t, "[DONE]", data[4])

	var frames []domain.ChatCompletionChunk
	for _, d := range data[:4] {
		var chunk domain.ChatCompletionChunk
		require.NoError(t, json.Unmarshal([]byte(d), &chunk))
		frames = append(frames, chunk)
	}

	assert.Equal(t, domain.RoleAssistant, frames[0].Choices[0].Delta.Role)
	assert.Nil(t, frames[0].Choices[0].FinishReason)
	assert.Equal(t, "Hel", frames[1].Choices[0].Delta.Content)
	assert.Equal(t, "lo", frames[2].Choices[0].Delta.Content)
	require.NotNil(t, frames[3].Choices[0].FinishReason)
	assert.Equal(t, "stop", *frames[3].Choices[0].FinishReason)

	// Every frame shares the same response identity.
	for _, frame := range frames {
		assert.Equal(t, frames[0].ID, frame.ID)
		assert.Equal(t, frames[0].Created, frame.Created)
		assert.Equal(t, "DEFAULT", frame.Model)
	}
}

func TestChatCompletionsStreamingMidStreamError(t *testing.T) {
	invoker := &fakeInvoker{
		fragments: [][]byte{[]byte("partial")},
		streamErr: assert.AnError,
	}
	env := newTestEnv(t, invoker, policy.DefaultPolicy)

	rec := postChat(env, `{"model":"DEFAULT","stream":true,"messages":[{"role":"user","content":"Hi"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `"partial"`)
	assert.Contains(t, body, `"error"`)
	assert.NotContains(t, body, "[DONE]", "a failed stream must not signal clean termination")
}

func TestChatCompletionsBackendFailure(t *testing.T) {
	env := newTestEnv(t, &fakeInvoker{invokeErr: domain.ErrBackendInvocation}, policy.DefaultPolicy)

	rec := postChat(env, `{"model":"DEFAULT","messages":[{"role":"user","content":"Hi"}]}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp domain.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "upstream_error", resp.Error.Type)
}

func TestChatCompletionsStreamingBackendFailureBeforeFrames(t *testing.T) {
	env := newTestEnv(t, &fakeInvoker{invokeErr: domain.ErrBackendInvocation}, policy.DefaultPolicy)

	rec := postChat(env, `{"model":"DEFAULT","stream":true,"messages":[{"role":"user","content":"Hi"}]}`)
	// No frame was written, so a proper error status is still possible.
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "data:")
}

const blockSupportPolicy = `
package chat_policy

default decision := "allow"

decision := "block" if {
	input.model == "SUPPORT-BOT"
}
`

func TestChatCompletionsPolicyBlocked(t *testing.T) {
	invoker := &fakeInvoker{fragments: [][]byte{[]byte("ok")}}
	env := newTestEnv(t, invoker, blockSupportPolicy)

	rec := postChat(env, `{"model":"SUPPORT-BOT","messages":[{"role":"user","content":"Hi"}]}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, env.invoker.lastReq, "blocked request must not reach the backend")

	rec = postChat(env, `{"model":"DEFAULT","messages":[{"role":"user","content":"Hi"}]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}
