// Package prompt composes the analysis instruction sent to the completion
// endpoint. Build is pure: identical inputs always yield identical prompts.
package prompt

import "fmt"

const analysisTemplate = `You are a cybersecurity expert analyzing vulnerability data. Please analyze the following AttackIQ assessment data using the provided severity classification criteria.

SEVERITY CLASSIFICATION CRITERIA:
%s

ATTACKIQ ASSESSMENT DATA:
%s

Please provide:
1. A comprehensive markdown analysis report
2. For each ticket in the JSON data, add a "severity_analysis" object with:
   - initial_severity: Based on the raw data
   - adjusted_severity: Your expert assessment
   - risk_factors: List of factors that increase risk
   - mitigating_factors: List of factors that reduce risk
   - confidence_score: Your confidence in the assessment (0-100)
   - reasoning: Brief explanation of your assessment

Return your response in the following format:
1. First, provide the markdown analysis report
2. Then, provide the enhanced JSON with severity_analysis added to each ticket

Separate the markdown and JSON sections clearly.`

// Build embeds the severity criteria and the raw dataset text verbatim into
// the fixed instruction template.
func Build(severityText, datasetText string) string {
	return fmt.Sprintf(analysisTemplate, severityText, datasetText)
}
