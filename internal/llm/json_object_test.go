package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"BareObject", `{"a":1}`, `{"a":1}`},
		{"SurroundingProse", "Sure! Here it is:\n{\"a\":{\"b\":2}}\nHope this helps.", `{"a":{"b":2}}`},
		{"MarkdownFence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"NoBraces", "x equals two", "x equals two"},
		{"OnlyOpening", "{ broken", "{ broken"},
		{"ReversedBraces", "} text {", "} text {"},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSONObject(tt.in))
		})
	}
}

func TestExtractJSONObjectParsesEmbeddedPayload(t *testing.T) {
	payload := `{"equationId":"2x+3=7","steps":[{"stepNumber":1,"description":"Subtract 3"}],"finalAnswer":"x=2"}`
	for _, wrap := range []struct{ prefix, suffix string }{
		{"", ""},
		{"Here you go: ", ""},
		{"", " -- done"},
		{"noise without braces\n", "\ntrailing words"},
	} {
		extracted := ExtractJSONObject(wrap.prefix + payload + wrap.suffix)
		assert.Equal(t, payload, extracted)

		var v map[string]any
		assert.NoError(t, json.Unmarshal([]byte(extracted), &v))
	}
}
