package translator

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ReshapeNIMResponse converts a buffered upstream NIM completion body into
// the OpenAI-compatible response shape. The model field always echoes the
// caller's originally requested name, not the resolved upstream identifier,
// so clients see the identity they asked for. Missing id/created fields get
// generated substitutes; usage passes through verbatim when present.
func ReshapeNIMResponse(upstream []byte, requestedModel string) []byte {
	root := gjson.ParseBytes(upstream)

	out := `{"id":"","object":"chat.completion","created":0,"model":"","choices":[]}`

	id := root.Get("id").String()
	if id == "" {
		id = "chatcmpl-" + uuid.NewString()
	}
	out, _ = sjson.Set(out, "id", id)

	if created := root.Get("created"); created.Exists() && created.Int() != 0 {
		out, _ = sjson.Set(out, "created", created.Int())
	} else {
		out, _ = sjson.Set(out, "created", time.Now().Unix())
	}

	out, _ = sjson.Set(out, "model", requestedModel)

	var choices []any
	root.Get("choices").ForEach(func(_, choice gjson.Result) bool {
		role := choice.Get("message.role").String()
		if role == "" {
			role = "assistant"
		}
		finishReason := choice.Get("finish_reason").String()
		if finishReason == "" {
			finishReason = "stop"
		}
		choices = append(choices, map[string]any{
			"index": choice.Get("index").Int(),
			"message": map[string]any{
				"role":    role,
				"content": choice.Get("message.content").String(),
			},
			"finish_reason": finishReason,
		})
		return true
	})
	if len(choices) > 0 {
		choicesJSON, _ := json.Marshal(choices)
		out, _ = sjson.SetRaw(out, "choices", string(choicesJSON))
	}

	if usage := root.Get("usage"); usage.Exists() {
		out, _ = sjson.SetRaw(out, "usage", usage.Raw)
	}

	return []byte(out)
}
