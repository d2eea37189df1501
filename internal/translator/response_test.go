package translator

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestReshapeNIMResponse_EchoesRequestedModel(t *testing.T) {
	upstream := []byte(`{"id":"cmpl-123","created":1700000000,"model":"meta/llama-3.1-70b-instruct","choices":[{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}]}`)

	out := ReshapeNIMResponse(upstream, "gpt-4")

	// The caller sees the name they asked for, never the upstream identifier.
	assert.Equal(t, "gpt-4", gjson.GetBytes(out, "model").String())
	assert.Equal(t, "cmpl-123", gjson.GetBytes(out, "id").String())
	assert.Equal(t, int64(1700000000), gjson.GetBytes(out, "created").Int())
	assert.Equal(t, "chat.completion", gjson.GetBytes(out, "object").String())
}

func TestReshapeNIMResponse_GeneratesMissingIDAndTimestamp(t *testing.T) {
	upstream := []byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"hi"},"finish_reason":"stop"}]}`)

	out := ReshapeNIMResponse(upstream, "gpt-4")

	id := gjson.GetBytes(out, "id").String()
	assert.True(t, strings.HasPrefix(id, "chatcmpl-"))
	assert.Greater(t, len(id), len("chatcmpl-"))

	created := gjson.GetBytes(out, "created").Int()
	now := time.Now().Unix()
	assert.InDelta(t, now, created, 5)
}

func TestReshapeNIMResponse_Choices(t *testing.T) {
	upstream := []byte(`{"id":"x","choices":[{"index":0,"message":{"role":"assistant","content":"one"},"finish_reason":"length"},{"index":1,"message":{"content":"two"}}]}`)

	out := ReshapeNIMResponse(upstream, "gpt-4")

	choices := gjson.GetBytes(out, "choices").Array()
	assert.Len(t, choices, 2)

	assert.Equal(t, int64(0), choices[0].Get("index").Int())
	assert.Equal(t, "one", choices[0].Get("message.content").String())
	assert.Equal(t, "length", choices[0].Get("finish_reason").String())

	// Missing role and finish_reason fall back to defaults.
	assert.Equal(t, "assistant", choices[1].Get("message.role").String())
	assert.Equal(t, "stop", choices[1].Get("finish_reason").String())
}

func TestReshapeNIMResponse_UsagePassthrough(t *testing.T) {
	upstream := []byte(`{"id":"x","choices":[],"usage":{"prompt_tokens":9,"completion_tokens":12,"total_tokens":21}}`)

	out := ReshapeNIMResponse(upstream, "gpt-4")

	assert.Equal(t, `{"prompt_tokens":9,"completion_tokens":12,"total_tokens":21}`, gjson.GetBytes(out, "usage").Raw)
}

func TestReshapeNIMResponse_NoChoices(t *testing.T) {
	out := ReshapeNIMResponse([]byte(`{"id":"x"}`), "gpt-4")

	choices := gjson.GetBytes(out, "choices")
	assert.True(t, choices.IsArray())
	assert.Len(t, choices.Array(), 0)
}
