// Package nim provides the HTTP handlers for the NIM proxy's OpenAI-compatible
// surface: health check, model listing, and the chat completions endpoint.
// Chat completions is the translation core: it remaps the model name,
// normalizes parameters, issues exactly one upstream call, and relays the
// result back as reshaped JSON or as a forwarded event stream.
package nim

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nimroute/nim-proxy/internal/api/handlers"
	"github.com/nimroute/nim-proxy/internal/metrics"
	"github.com/nimroute/nim-proxy/internal/registry"
	"github.com/nimroute/nim-proxy/internal/translator"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// NIMAPIHandler contains the handlers for the proxy's API endpoints.
type NIMAPIHandler struct {
	*handlers.BaseAPIHandler
}

// NewNIMAPIHandler creates a new NIM API handler instance on top of the
// shared base handler state.
func NewNIMAPIHandler(base *handlers.BaseAPIHandler) *NIMAPIHandler {
	return &NIMAPIHandler{BaseAPIHandler: base}
}

// Health handles the /health endpoint. It always reports ok; the proxy has
// no dependencies worth probing besides the upstream, which is exercised per
// request anyway.
func (h *NIMAPIHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": registry.OwnedBy,
	})
}

// Models handles the /v1/models endpoint. It returns every client-facing
// model alias from the mapping table in OpenAI-compatible list format.
func (h *NIMAPIHandler) Models(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   h.Registry.Models(),
	})
}

// ChatCompletions handles the /v1/chat/completions endpoint. It reads the
// raw request body and dispatches to the streaming or non-streaming path
// based on the caller's stream flag.
func (h *NIMAPIHandler) ChatCompletions(c *gin.Context) {
	rawJSON, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, handlers.NewErrorResponse(http.StatusBadRequest, "invalid request body: "+err.Error()))
		return
	}

	if gjson.GetBytes(rawJSON, "stream").Bool() {
		h.handleStreamingResponse(c, rawJSON)
	} else {
		h.handleNonStreamingResponse(c, rawJSON)
	}
}

// handleNonStreamingResponse performs the buffered translation path: one
// upstream call, then the response is reshaped into the OpenAI-compatible
// shape with the caller's originally requested model name echoed back.
func (h *NIMAPIHandler) handleNonStreamingResponse(c *gin.Context, rawJSON []byte) {
	requestedModel := gjson.GetBytes(rawJSON, "model").String()
	upstreamModel := h.Registry.Resolve(requestedModel)
	nimJSON := translator.BuildNIMRequest(rawJSON, upstreamModel)

	start := time.Now()
	resp, errMsg := h.Client.SendMessage(c.Request.Context(), nimJSON)
	h.Metrics.ObserveUpstreamDuration(upstreamModel, metrics.ModeSync, time.Since(start))

	if errMsg != nil {
		h.Metrics.ObserveUpstreamError(errMsg.StatusCode)
		h.Metrics.ObserveRequest(requestedModel, metrics.ModeSync, errMsg.StatusCode)
		c.JSON(errMsg.StatusCode, handlers.NewErrorResponse(errMsg.StatusCode, errMsg.Error.Error()))
		return
	}

	h.Metrics.ObserveRequest(requestedModel, metrics.ModeSync, http.StatusOK)
	c.Data(http.StatusOK, "application/json", translator.ReshapeNIMResponse(resp, requestedModel))
}

// handleStreamingResponse performs the event-stream relay path. The upstream
// call is made first: a failure there still becomes a clean error envelope.
// Once the upstream has answered, the event-stream headers are committed and
// the raw bytes are forwarded unmodified and in order, flushed per chunk.
// A failure after that point cannot be converted into an error envelope; it
// is logged and the stream closes without injecting a fabricated frame.
func (h *NIMAPIHandler) handleStreamingResponse(c *gin.Context, rawJSON []byte) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, handlers.NewErrorResponse(http.StatusInternalServerError, "streaming not supported"))
		return
	}

	requestedModel := gjson.GetBytes(rawJSON, "model").String()
	upstreamModel := h.Registry.Resolve(requestedModel)
	nimJSON := translator.BuildNIMRequest(rawJSON, upstreamModel)

	start := time.Now()
	stream, errMsg := h.Client.APIRequest(c.Request.Context(), nimJSON, true)
	if errMsg != nil {
		h.Metrics.ObserveUpstreamError(errMsg.StatusCode)
		c.JSON(errMsg.StatusCode, handlers.NewErrorResponse(errMsg.StatusCode, errMsg.Error.Error()))
		h.finishStream(requestedModel, upstreamModel, start, errMsg.StatusCode)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	flusher.Flush()

	dataChan, errChan := h.Client.RelayStream(c.Request.Context(), stream)
	for dataChan != nil || errChan != nil {
		select {
		case <-c.Request.Context().Done():
			// Client disconnected; the request context cancellation tears
			// down the upstream call.
			log.Debugf("client disconnected mid-stream: %v", c.Request.Context().Err())
			h.finishStream(requestedModel, upstreamModel, start, http.StatusOK)
			return

		case chunk, okStream := <-dataChan:
			if !okStream {
				dataChan = nil
				continue
			}
			_, _ = c.Writer.Write(chunk)
			flusher.Flush()

		case streamErr, okError := <-errChan:
			if !okError {
				errChan = nil
				continue
			}
			h.Metrics.ObserveUpstreamError(streamErr.StatusCode)
			log.Warnf("upstream stream failed after response committed: %v", streamErr.Error)
			h.finishStream(requestedModel, upstreamModel, start, http.StatusOK)
			return
		}
	}

	h.finishStream(requestedModel, upstreamModel, start, http.StatusOK)
}

// finishStream records the metrics for one completed streaming request.
func (h *NIMAPIHandler) finishStream(requestedModel, upstreamModel string, start time.Time, status int) {
	h.Metrics.ObserveUpstreamDuration(upstreamModel, metrics.ModeStream, time.Since(start))
	h.Metrics.ObserveRequest(requestedModel, metrics.ModeStream, status)
}
