package v1

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/CityOfBunbury/Bedrock-Agent-Proxy/internal/domain"
)

// ChatCompletions handles chat completion requests.
// POST /api/v1/chat/completions
func (h *Handler) ChatCompletions(c echo.Context) error {
	var req domain.ChatCompletionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest,
			errorBody("invalid request body", "invalid_request_error", "", ""))
	}

	if len(req.Messages) == 0 {
		return c.JSON(http.StatusBadRequest,
			errorBody("messages is required", "invalid_request_error", "messages", ""))
	}

	if req.Stream {
		return h.handleStreamingRequest(c, &req)
	}

	return h.handleNonStreamingRequest(c, &req)
}

// handleNonStreamingRequest drains the backend stream into one response.
func (h *Handler) handleNonStreamingRequest(c echo.Context, req *domain.ChatCompletionRequest) error {
	resp, err := h.service.ChatCompletion(c.Request().Context(), req)
	if err != nil {
		log.Printf("ERROR: chat completion failed: %v", err)
		status, body := errorStatus(err)
		return c.JSON(status, body)
	}

	return c.JSON(http.StatusOK, resp)
}

// handleStreamingRequest relays backend fragments as SSE chunk frames. The
// SSE headers are only committed once the first frame exists, so failures
// before any output still produce a proper JSON error status.
func (h *Handler) handleStreamingRequest(c echo.Context, req *domain.ChatCompletionRequest) error {
	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return c.JSON(http.StatusInternalServerError,
			errorBody("streaming not supported", "internal_error", "", ""))
	}

	started := false
	err := h.service.ChatCompletionStream(c.Request().Context(), req, func(chunk *domain.ChatCompletionChunk) error {
		if !started {
			writeSSEHeaders(c)
			started = true
		}

		data, err := json.Marshal(chunk)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.Response().Writer, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})

	if err != nil {
		log.Printf("ERROR: streaming chat completion failed: %v", err)
		if !started {
			status, body := errorStatus(err)
			return c.JSON(status, body)
		}
		// Frames already reached the client and cannot be retracted. Emit an
		// error event and close the stream without the [DONE] marker so the
		// consumer sees the truncation.
		_, body := errorStatus(err)
		if data, marshalErr := json.Marshal(body); marshalErr == nil {
			fmt.Fprintf(c.Response().Writer, "data: %s\n\n", data)
			flusher.Flush()
		}
		return nil
	}

	// A clean relay always produced at least the role frame.
	fmt.Fprintf(c.Response().Writer, "data: [DONE]\n\n")
	flusher.Flush()
	return nil
}

// writeSSEHeaders commits the streaming response headers.
func writeSSEHeaders(c echo.Context) {
	header := c.Response().Header()
	header.Set(echo.HeaderContentType, "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	// Disable proxy buffering (nginx) so frames reach the client per flush.
	header.Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)
}
