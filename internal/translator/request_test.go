package translator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestBuildNIMRequest_MaxTokensNormalization(t *testing.T) {
	tests := []struct {
		name     string
		rawJSON  string
		expected int64
	}{
		{"absent gets floor", `{"model":"gpt-4","messages":[]}`, 4096},
		{"zero gets floor", `{"model":"gpt-4","messages":[],"max_tokens":0}`, 4096},
		{"low value gets floor", `{"model":"gpt-4","messages":[],"max_tokens":10}`, 4096},
		{"threshold gets floor", `{"model":"gpt-4","messages":[],"max_tokens":256}`, 4096},
		{"just above threshold passes", `{"model":"gpt-4","messages":[],"max_tokens":257}`, 257},
		{"large value passes verbatim", `{"model":"gpt-4","messages":[],"max_tokens":2000}`, 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := BuildNIMRequest([]byte(tt.rawJSON), "meta/llama-3.1-70b-instruct")
			assert.Equal(t, tt.expected, gjson.GetBytes(out, "max_tokens").Int())
		})
	}
}

func TestBuildNIMRequest_TemperatureNormalization(t *testing.T) {
	tests := []struct {
		name     string
		rawJSON  string
		expected float64
	}{
		{"absent gets default", `{"model":"gpt-4","messages":[]}`, 0.7},
		{"zero gets default", `{"model":"gpt-4","messages":[],"temperature":0}`, 0.7},
		{"explicit value passes verbatim", `{"model":"gpt-4","messages":[],"temperature":0.25}`, 0.25},
		{"high value passes verbatim", `{"model":"gpt-4","messages":[],"temperature":1.5}`, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := BuildNIMRequest([]byte(tt.rawJSON), "meta/llama-3.1-70b-instruct")
			assert.Equal(t, tt.expected, gjson.GetBytes(out, "temperature").Float())
		})
	}
}

func TestBuildNIMRequest_ModelAndMessages(t *testing.T) {
	rawJSON := []byte(`{"model":"gpt-4","messages":[{"role":"user","content":"hi"}],"max_tokens":10}`)
	out := BuildNIMRequest(rawJSON, "meta/llama-3.1-70b-instruct")

	assert.Equal(t, "meta/llama-3.1-70b-instruct", gjson.GetBytes(out, "model").String())
	assert.Equal(t, `[{"role":"user","content":"hi"}]`, gjson.GetBytes(out, "messages").Raw)
	assert.Equal(t, int64(4096), gjson.GetBytes(out, "max_tokens").Int())
	assert.Equal(t, 0.7, gjson.GetBytes(out, "temperature").Float())
	assert.False(t, gjson.GetBytes(out, "stream").Bool())
}

func TestBuildNIMRequest_StreamFlag(t *testing.T) {
	out := BuildNIMRequest([]byte(`{"model":"gpt-4","messages":[],"stream":true}`), "meta/llama-3.1-70b-instruct")
	assert.True(t, gjson.GetBytes(out, "stream").Bool())

	out = BuildNIMRequest([]byte(`{"model":"gpt-4","messages":[]}`), "meta/llama-3.1-70b-instruct")
	assert.True(t, gjson.GetBytes(out, "stream").Exists())
	assert.False(t, gjson.GetBytes(out, "stream").Bool())
}

func TestBuildNIMRequest_DropsUnknownFields(t *testing.T) {
	out := BuildNIMRequest([]byte(`{"model":"gpt-4","messages":[],"top_p":0.9,"frequency_penalty":1}`), "meta/llama-3.1-70b-instruct")
	assert.False(t, gjson.GetBytes(out, "top_p").Exists())
	assert.False(t, gjson.GetBytes(out, "frequency_penalty").Exists())
}
