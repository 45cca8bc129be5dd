package llm

import "strings"

// ExtractJSONObject returns the text between the first '{' and the last '}'
// inclusive. When no such ordered pair exists the whole text is returned.
func ExtractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}
