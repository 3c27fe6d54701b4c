package dto

// AnalyzeSuccessResponse is returned when the pipeline completes.
type AnalyzeSuccessResponse struct {
	Success         bool   `json:"success"`
	MarkdownFile    string `json:"markdown_file"`
	JSONFile        string `json:"json_file"`
	TicketsAnalyzed int    `json:"tickets_analyzed"`
	ModelUsed       string `json:"model_used"`
	MockMode        bool   `json:"mock_mode"`
	AnalysisPreview string `json:"analysis_preview"`
	Analysis        string `json:"analysis"`
	ModifiedJSON    any    `json:"modified_json"`
}

// AnalyzeFailureResponse is returned when any pipeline stage fails.
type AnalyzeFailureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
