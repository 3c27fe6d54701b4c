// Package splitter partitions a model response into a markdown report and an
// embedded JSON section. The scan is best-effort over untrusted model output:
// a missing or corrupt JSON section degrades to the original dataset and
// never fails the request.
package splitter

import (
	"encoding/json"
	"strings"
)

const (
	openFence  = "```json"
	closeFence = "```"
)

// fence is the tagged result of the two-phase scan.
type fence struct {
	markdown string
	jsonText string
}

// locateJSONFence finds the first json-marked code fence. The candidate JSON
// runs until the next closing fence, or to the end of the text when the model
// never closed the block.
func locateJSONFence(analysis string) (fence, bool) {
	parts := strings.SplitN(analysis, openFence, 2)
	if len(parts) < 2 {
		return fence{}, false
	}
	jsonText := strings.SplitN(parts[1], closeFence, 2)[0]
	return fence{
		markdown: strings.TrimSpace(parts[0]),
		jsonText: strings.TrimSpace(jsonText),
	}, true
}

// Split derives the (markdown, enhanced dataset) pair from a model response.
// Without a distinguishable JSON section the whole response is the report and
// the dataset passes through unchanged.
func Split(analysis string, original map[string]any) (string, any) {
	found, ok := locateJSONFence(analysis)
	if !ok {
		return analysis, original
	}

	var enhanced any
	if err := json.Unmarshal([]byte(found.jsonText), &enhanced); err != nil {
		// Corrupt or truncated JSON section: keep the narrative, fall back
		// to the original dataset.
		return found.markdown, original
	}
	return found.markdown, enhanced
}
