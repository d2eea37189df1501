// Package translator converts between the inbound OpenAI-compatible
// chat-completion schema and the upstream NIM schema. Requests and responses
// are handled as raw JSON bytes; only the fields the proxy cares about are
// touched, everything else in messages passes through byte-for-byte.
package translator

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	// maxTokensFloorThreshold is the largest caller-supplied max_tokens that
	// still gets replaced by the floor value. Values above it pass verbatim.
	maxTokensFloorThreshold = 256

	// maxTokensFloor is substituted whenever the caller omits max_tokens or
	// requests a value at or below the threshold. Low limits routinely
	// truncate completions mid-sentence; the floor trades away genuinely
	// short completions for never-truncated ones. Intentional, not a bug.
	maxTokensFloor = 4096

	// temperatureDefault is substituted when temperature is absent or zero.
	temperatureDefault = 0.7
)

// BuildNIMRequest derives the outbound NIM request from the raw inbound
// request bytes and the already-resolved upstream model identifier.
//
// Normalization rules:
//   - model: the resolved upstream identifier, never the caller's name.
//   - messages: verbatim passthrough.
//   - max_tokens: caller values above 256 pass verbatim; anything else
//     becomes 4096.
//   - temperature: absent or zero becomes 0.7; anything else passes verbatim.
//   - stream: boolean of the caller's flag, defaulting to false.
//
// No other inbound fields are forwarded upstream.
func BuildNIMRequest(rawJSON []byte, upstreamModel string) []byte {
	out := `{}`
	out, _ = sjson.Set(out, "model", upstreamModel)

	if messages := gjson.GetBytes(rawJSON, "messages"); messages.Exists() {
		out, _ = sjson.SetRaw(out, "messages", messages.Raw)
	} else {
		out, _ = sjson.SetRaw(out, "messages", "[]")
	}

	if temperature := gjson.GetBytes(rawJSON, "temperature"); temperature.Exists() && temperature.Float() != 0 {
		out, _ = sjson.SetRaw(out, "temperature", temperature.Raw)
	} else {
		out, _ = sjson.Set(out, "temperature", temperatureDefault)
	}

	if maxTokens := gjson.GetBytes(rawJSON, "max_tokens"); maxTokens.Exists() && maxTokens.Int() > maxTokensFloorThreshold {
		out, _ = sjson.SetRaw(out, "max_tokens", maxTokens.Raw)
	} else {
		out, _ = sjson.Set(out, "max_tokens", maxTokensFloor)
	}

	out, _ = sjson.Set(out, "stream", gjson.GetBytes(rawJSON, "stream").Bool())

	return []byte(out)
}
