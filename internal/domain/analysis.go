package domain

import "encoding/json"

// TicketDataset is a parsed vulnerability ticket export. The document shape
// is opaque beyond the optional "tickets" array.
type TicketDataset struct {
	Raw      string
	Document map[string]any
}

// ParseTicketDataset parses decoded upload text into a dataset.
func ParseTicketDataset(raw string) (*TicketDataset, error) {
	var document map[string]any
	if err := json.Unmarshal([]byte(raw), &document); err != nil {
		return nil, err
	}
	return &TicketDataset{Raw: raw, Document: document}, nil
}

// Tickets returns the "tickets" array when present.
func (d *TicketDataset) Tickets() []any {
	if d == nil || d.Document == nil {
		return nil
	}
	tickets, ok := d.Document["tickets"].([]any)
	if !ok {
		return nil
	}
	return tickets
}

// TicketCount degrades to zero when the "tickets" key is absent.
func (d *TicketDataset) TicketCount() int {
	return len(d.Tickets())
}

// AnalysisArtifacts pairs the two outputs derived from a model response.
// EnhancedDataset is never nil: when no structured enrichment could be
// extracted it is the original dataset document.
type AnalysisArtifacts struct {
	MarkdownReport  string
	EnhancedDataset any
}

// SeverityAnalysis is the per-ticket enrichment the prompt asks the model to
// attach. It is a contract with the upstream model and is not validated
// locally beyond best-effort parsing of the response.
type SeverityAnalysis struct {
	InitialSeverity   string   `json:"initial_severity"`
	AdjustedSeverity  string   `json:"adjusted_severity"`
	RiskFactors       []string `json:"risk_factors"`
	MitigatingFactors []string `json:"mitigating_factors"`
	ConfidenceScore   float64  `json:"confidence_score"`
	Reasoning         string   `json:"reasoning"`
}

// ArtifactHandles addresses the persisted pair of artifacts.
type ArtifactHandles struct {
	Markdown string
	JSON     string
}
