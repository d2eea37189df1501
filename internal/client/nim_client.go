// Package client implements the outbound HTTP client for the upstream NIM
// chat-completions API. It supports buffered single-response requests and a
// streaming mode that relays the upstream SSE byte stream through channels,
// unmodified and in order.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nimroute/nim-proxy/internal/config"
	"github.com/nimroute/nim-proxy/internal/util"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// streamReadBufferSize is the chunk size used by the stream forwarding loop.
const streamReadBufferSize = 4096

// ErrorMessage carries an upstream failure together with the HTTP status
// code the proxy should surface to the caller.
type ErrorMessage struct {
	// StatusCode is the upstream HTTP status when the upstream answered,
	// or 500 for transport-level failures.
	StatusCode int

	// Error describes the failure, preferring the upstream's own
	// error.message when one was returned.
	Error error
}

// NIMClient issues requests against one NIM-compatible endpoint with a
// bearer credential fixed at construction. It holds no per-request state;
// one instance serves all inbound requests concurrently.
type NIMClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewNIMClient creates a NIM API client from the application configuration,
// wiring the optional outbound proxy into the HTTP transport.
func NewNIMClient(cfg *config.Config) *NIMClient {
	return &NIMClient{
		httpClient: util.SetProxy(cfg, &http.Client{}),
		baseURL:    strings.TrimSuffix(cfg.UpstreamBaseURL, "/"),
		apiKey:     cfg.APIKey,
	}
}

// APIRequest performs one POST against the NIM chat-completions endpoint and
// returns the open response body on success. Non-2xx responses and transport
// failures are normalized into an ErrorMessage: status and message come from
// the upstream when available, otherwise 500 and the transport error.
func (c *NIMClient) APIRequest(ctx context.Context, rawJSON []byte, stream bool) (io.ReadCloser, *ErrorMessage) {
	url := c.baseURL + "/chat/completions"
	req, errReq := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(rawJSON))
	if errReq != nil {
		return nil, &ErrorMessage{
			StatusCode: http.StatusInternalServerError,
			Error:      fmt.Errorf("failed to create request: %w", errReq),
		}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	if stream {
		req.Header.Set("Accept", "text/event-stream")
		req.Header.Set("Cache-Control", "no-cache")
	}

	log.Debugf("NIM API request: %s model=%s key=%s", url, gjson.GetBytes(rawJSON, "model").String(), util.HideAPIKey(c.apiKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Errorf("NIM transport error: %v", err)
		return nil, &ErrorMessage{
			StatusCode: http.StatusInternalServerError,
			Error:      fmt.Errorf("failed to execute request: %w", err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() {
			if errClose := resp.Body.Close(); errClose != nil {
				log.Warnf("failed to close response body: %v", errClose)
			}
		}()
		bodyBytes, _ := io.ReadAll(resp.Body)
		message := upstreamErrorText(bodyBytes)
		log.Warnf("NIM upstream error: status=%d message=%s", resp.StatusCode, message)
		return nil, &ErrorMessage{
			StatusCode: resp.StatusCode,
			Error:      fmt.Errorf("%s", message),
		}
	}

	return resp.Body, nil
}

// upstreamErrorText extracts the message to surface for a non-2xx upstream
// response: the structured error.message when present, else the raw body,
// else a generic fallback.
func upstreamErrorText(body []byte) string {
	if msg := gjson.GetBytes(body, "error.message").String(); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return "upstream request failed"
}

// SendMessage performs a buffered, non-streaming upstream call and returns
// the full response body.
func (c *NIMClient) SendMessage(ctx context.Context, rawJSON []byte) ([]byte, *ErrorMessage) {
	respBody, errMsg := c.APIRequest(ctx, rawJSON, false)
	if errMsg != nil {
		return nil, errMsg
	}
	defer func() {
		_ = respBody.Close()
	}()

	bodyBytes, errReadAll := io.ReadAll(respBody)
	if errReadAll != nil {
		return nil, &ErrorMessage{
			StatusCode: http.StatusInternalServerError,
			Error:      fmt.Errorf("failed to read response body: %w", errReadAll),
		}
	}
	return bodyBytes, nil
}

// RelayStream forwards the raw bytes of an open upstream response body
// through the returned data channel, unmodified and in arrival order. The
// forwarding loop does no reframing and no inspection of the event stream.
// A mid-stream upstream failure surfaces on the second channel after the
// bytes read so far have been delivered. Both channels close when the relay
// terminates, whether by upstream EOF, upstream error, or context
// cancellation; the relay owns the stream and closes it.
func (c *NIMClient) RelayStream(ctx context.Context, stream io.ReadCloser) (<-chan []byte, <-chan *ErrorMessage) {
	dataChan := make(chan []byte)
	errChan := make(chan *ErrorMessage, 1)

	go func() {
		defer close(dataChan)
		defer close(errChan)
		defer func() {
			_ = stream.Close()
		}()

		buf := make([]byte, streamReadBufferSize)
		for {
			n, err := stream.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case dataChan <- chunk:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if err != io.EOF && ctx.Err() == nil {
					errChan <- &ErrorMessage{
						StatusCode: http.StatusInternalServerError,
						Error:      fmt.Errorf("upstream stream failed: %w", err),
					}
				}
				return
			}
		}
	}()

	return dataChan, errChan
}
