package splitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func originalDataset() map[string]any {
	return map[string]any{
		"tickets": []any{map[string]any{"id": float64(1)}},
	}
}

func TestSplitExtractsFencedJSON(t *testing.T) {
	analysis := "# Report\n\nSome findings.\n\n```json\n{\"tickets\": [{\"id\": 1, \"severity_analysis\": {\"adjusted_severity\": \"High\"}}]}\n```\n\nTrailing notes."

	markdown, enhanced := Split(analysis, originalDataset())

	assert.Equal(t, "# Report\n\nSome findings.", markdown)
	doc, ok := enhanced.(map[string]any)
	assert.True(t, ok)
	tickets := doc["tickets"].([]any)
	ticket := tickets[0].(map[string]any)
	assert.Equal(t, float64(1), ticket["id"])
	assert.Contains(t, ticket, "severity_analysis")
}

func TestSplitNoFenceFallsBackToOriginal(t *testing.T) {
	original := originalDataset()
	analysis := "# Report\n\nThe model produced prose only."

	markdown, enhanced := Split(analysis, original)

	assert.Equal(t, analysis, markdown)
	assert.Equal(t, original, enhanced)
}

func TestSplitMalformedJSONFallsBackToOriginal(t *testing.T) {
	original := originalDataset()
	analysis := "# Report\n\n```json\n{\"tickets\": [truncated\n```"

	markdown, enhanced := Split(analysis, original)

	assert.Equal(t, "# Report", markdown)
	assert.Equal(t, original, enhanced)
}

func TestSplitUnclosedFenceReadsToEnd(t *testing.T) {
	analysis := "Narrative.\n```json\n{\"tickets\": []}"

	markdown, enhanced := Split(analysis, originalDataset())

	assert.Equal(t, "Narrative.", markdown)
	doc, ok := enhanced.(map[string]any)
	assert.True(t, ok)
	assert.Empty(t, doc["tickets"])
}

func TestSplitPlainFenceIsNotJSONSection(t *testing.T) {
	original := originalDataset()
	analysis := "# Report\n```\nnot a json fence\n```"

	markdown, enhanced := Split(analysis, original)

	assert.Equal(t, analysis, markdown)
	assert.Equal(t, original, enhanced)
}
